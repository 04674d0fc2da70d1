package matcher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/vocabulary"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Post Date", "post date"},
		{"post-date ", "post date"},
		{"  Transaction_Date\t", "transaction date"},
		{"Débito", "débito"},
		{"SSN (last 4)", "ssn last 4"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"post date", "date", 100},
		{"date", "post date", 100},
		{"amount", "amount out", 100},
		{"abc", "xyz", 0},
		{"credit score", "credit report", 66.67},
		{"date of birth", "date of transaction", 70},
		{"", "date", 0},
		{"date", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, TokenSetRatio(tt.a, tt.b), 0.01)
		})
	}
}

func TestTokenSetRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"credit score", "credit report"},
		{"money out", "amount out"},
		{"date of birth", "date of transaction"},
	}
	for _, p := range pairs {
		assert.InDelta(t, TokenSetRatio(p[0], p[1]), TokenSetRatio(p[1], p[0]), 1e-9)
	}
}

func defaultVocab(t *testing.T) *vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.Default()
	require.NoError(t, err)
	return v
}

func TestMatcher_SynonymsMatchTheirOwnEntry(t *testing.T) {
	v := defaultVocab(t)

	fields := New(v.Fields, FieldThreshold)
	for _, e := range v.Fields {
		for _, s := range e.Synonyms {
			r, ok := fields.Match(s)
			require.True(t, ok, "synonym %q", s)
			assert.Equal(t, e.Name, r.Name, "synonym %q", s)
			assert.Equal(t, 100.0, r.Score, "synonym %q", s)
		}
	}

	types := New(v.DocumentTypes, TypeThreshold)
	for _, e := range v.DocumentTypes {
		for _, s := range e.Synonyms {
			r, ok := types.Match(s)
			require.True(t, ok, "synonym %q", s)
			assert.Equal(t, e.Name, r.Name, "synonym %q", s)
		}
	}
}

func TestMatcher_Match(t *testing.T) {
	m := New(defaultVocab(t).Fields, FieldThreshold)

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Date", "date", true},
		{"Post-Date ", "date", true},
		{"Amount", "debit", true},
		{"Withdrawals", "debit", true},
		{"Deposits", "credit", true},
		{"Running Balance", "balance", true},
		{"Memo", "description", true},
		{"Type", "", false},
		{"Money Out", "", false},
		{"Foo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r, ok := m.Match(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, r.Name)
				assert.GreaterOrEqual(t, r.Score, float64(FieldThreshold))
			}
		})
	}
}

func TestMatcher_BestIgnoresThreshold(t *testing.T) {
	m := New(defaultVocab(t).Fields, FieldThreshold)
	r := m.Best("Money Out")
	assert.NotEmpty(t, r.Name)
	assert.Less(t, r.Score, float64(FieldThreshold))
}

func TestMatcher_TieKeepsVocabularyOrder(t *testing.T) {
	m := New([]vocabulary.Entry{
		{Name: "first", Synonyms: []string{"total"}},
		{Name: "second", Synonyms: []string{"total"}},
	}, 80)

	r, ok := m.Match("Total")
	require.True(t, ok)
	assert.Equal(t, "first", r.Name)
}

func TestMatcher_EntryScoresAndPick(t *testing.T) {
	m := New(defaultVocab(t).DocumentTypes, TypeThreshold)

	scores := m.EntryScores("Full Name", "Date of Birth", "Credit Score")
	require.Len(t, scores, 3)
	assert.Equal(t, "bank_statement", scores[0].Name)
	assert.Equal(t, 100.0, scores[1].Score)

	best, ok := m.Pick(scores)
	require.True(t, ok)
	assert.Equal(t, "credit_bureau", best.Name)

	_, ok = m.Pick(m.EntryScores("Foo", "Bar", "Baz"))
	assert.False(t, ok)

	_, ok = m.Pick(nil)
	assert.False(t, ok)
}

func TestMapHeaders(t *testing.T) {
	m := New(defaultVocab(t).Fields, FieldThreshold)

	hm := m.MapHeaders([]string{"Date", "Description", "Amount", "Type", "Balance", "Transaction Date"})

	if diff := cmp.Diff([]string{"date", "description", "debit", "balance"}, hm.Fields()); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Type", "Transaction Date"}, hm.Unmapped)
	assert.Equal(t, 4, hm.Len())

	c, ok := hm.Canonical("Amount")
	require.True(t, ok)
	assert.Equal(t, "debit", c)

	raw, ok := hm.Raw("date")
	require.True(t, ok)
	assert.Equal(t, "Date", raw, "first header claims the field")

	assert.True(t, hm.Has("balance"))
	assert.False(t, hm.Has("credit"))
	_, ok = hm.Canonical("Type")
	assert.False(t, ok)
}

func TestMapHeaders_Empty(t *testing.T) {
	m := New(defaultVocab(t).Fields, FieldThreshold)
	hm := m.MapHeaders(nil)
	assert.Zero(t, hm.Len())
	assert.Empty(t, hm.Fields())
	assert.False(t, hm.Has("date"))
}
