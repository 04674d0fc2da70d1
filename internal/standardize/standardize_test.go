package standardize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/matcher"
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

func fieldMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	v, err := vocabulary.Default()
	require.NoError(t, err)
	return matcher.New(v.Fields, matcher.FieldThreshold)
}

func standardize(t *testing.T, tab *domain.Tabular) (*domain.BankStatement, error) {
	t.Helper()
	return BankStatement(context.Background(), tab, fieldMatcher(t).MapHeaders(tab.Headers))
}

func TestBankStatement_AmountAndTypeColumns(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Date", "Description", "Amount", "Type", "Balance"},
		Rows: []domain.Row{
			{"Date": "2024-01-01", "Description": "Rent", "Amount": 1000.0, "Type": "debit", "Balance": 5000.0},
			{"Date": "2024-01-02", "Description": "Salary", "Amount": 2000.0, "Type": "credit", "Balance": 7000.0},
			{"Date": "2024-01-03", "Description": "Groceries", "Amount": 150.0, "Type": "debit", "Balance": 6850.0},
		},
	}

	stmt, err := standardize(t, tab)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 3)

	want := []struct {
		typ    domain.TransactionType
		amount float64
	}{
		{domain.TransactionDebit, -1000},
		{domain.TransactionCredit, 2000},
		{domain.TransactionDebit, -150},
	}
	for i, w := range want {
		txn := stmt.Transactions[i]
		assert.Equal(t, w.typ, txn.Type, "row %d", i)
		require.NotNil(t, txn.Amount, "row %d", i)
		assert.Equal(t, w.amount, *txn.Amount, "row %d", i)
	}

	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 1}, stmt.StartDate)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 3}, stmt.EndDate)
	assert.Equal(t, domain.DefaultCurrency, stmt.Currency)
	assert.Equal(t, domain.DefaultBankName, stmt.BankName)
}

func TestBankStatement_DebitCreditColumns(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Posting Date", "Narration", "Withdrawal", "Deposit", "Balance", "Reference"},
		Rows: []domain.Row{
			{"Posting Date": "01/15/2024", "Narration": "ATM", "Withdrawal": "1,200.50", "Deposit": "", "Balance": "$3,000.00", "Reference": "X1"},
			{"Posting Date": "01/16/2024", "Narration": nil, "Withdrawal": nil, "Deposit": "(50)", "Balance": nil, "Reference": "X2"},
			{"Posting Date": "01/17/2024", "Narration": "Fee", "Withdrawal": nil, "Deposit": nil, "Balance": 2949.5, "Reference": "X3"},
		},
	}

	stmt, err := standardize(t, tab)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 3)

	first := stmt.Transactions[0]
	assert.Equal(t, domain.TransactionDebit, first.Type)
	assert.InDelta(t, -1200.50, *first.Amount, 1e-9)
	assert.InDelta(t, 3000.0, *first.Balance, 1e-9)

	second := stmt.Transactions[1]
	assert.Equal(t, DefaultDescription, second.Description)
	assert.Equal(t, domain.TransactionUnknown, second.Type, "negative deposit is neither credit nor debit")
	assert.InDelta(t, -50.0, *second.Amount, 1e-9)
	assert.Nil(t, second.Balance)

	third := stmt.Transactions[2]
	assert.Equal(t, domain.TransactionUnknown, third.Type)
	require.NotNil(t, third.Amount)
	assert.Zero(t, *third.Amount)
}

func TestBankStatement_NoAmountColumns(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Date", "Description", "Balance"},
		Rows: []domain.Row{
			{"Date": "2024-02-01", "Description": "Opening", "Balance": 100.0},
		},
	}

	stmt, err := standardize(t, tab)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Nil(t, stmt.Transactions[0].Amount)
	assert.Equal(t, domain.TransactionUnknown, stmt.Transactions[0].Type)
}

func TestBankStatement_TypeColumnWithoutAmounts(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Date", "Description", "Type", "Balance"},
		Rows: []domain.Row{
			{"Date": "2024-02-01", "Description": "Salary", "Type": "CR", "Balance": 100.0},
			{"Date": "2024-02-02", "Description": "Rent", "Type": "withdrawal", "Balance": 40.0},
			{"Date": "2024-02-03", "Description": "Adjustment", "Type": "other", "Balance": 40.0},
		},
	}

	stmt, err := standardize(t, tab)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 3)

	want := []domain.TransactionType{domain.TransactionCredit, domain.TransactionDebit, domain.TransactionUnknown}
	for i, txn := range stmt.Transactions {
		assert.Nil(t, txn.Amount, "row %d", i)
		assert.Equal(t, want[i], txn.Type, "row %d", i)
	}
}

func TestBankStatement_DropsNoiseAndBadDates(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Date", "Description", "Debit", "Credit", "Balance"},
		Rows: []domain.Row{
			{"Date": nil, "Description": "", "Debit": nil, "Credit": nil, "Balance": nil},
			{"Date": "Statement total", "Description": "", "Debit": 10.0, "Credit": nil, "Balance": nil},
			{"Date": "2024-03-05", "Description": "Coffee", "Debit": 4.0, "Credit": nil, "Balance": 96.0},
		},
	}

	stmt, err := standardize(t, tab)
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "Coffee", stmt.Transactions[0].Description)
}

func TestBankStatement_EmptyDataset(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.Row
	}{
		{"no rows", nil},
		{"only blank rows", []domain.Row{{"Date": nil, "Description": " "}}},
		{"no parseable dates", []domain.Row{{"Date": "n/a", "Description": "Rent", "Debit": 10.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := &domain.Tabular{Headers: []string{"Date", "Description", "Debit"}, Rows: tt.rows}
			_, err := standardize(t, tab)
			assert.True(t, errors.Is(err, domain.ErrEmptyDataset))
		})
	}
}

func TestBankStatement_CanonicalHeadersAreIdempotent(t *testing.T) {
	tab := &domain.Tabular{
		Headers: vocabulary.BankStatementFields,
		Rows: []domain.Row{
			{"date": "2024-01-01", "description": "Rent", "debit": 1000.0, "credit": nil, "balance": 5000.0},
			{"date": "2024-01-02", "description": "Salary", "debit": nil, "credit": 2000.0, "balance": 7000.0},
		},
	}

	mapping := fieldMatcher(t).MapHeaders(tab.Headers)
	for _, f := range vocabulary.BankStatementFields {
		raw, ok := mapping.Raw(f)
		require.True(t, ok)
		assert.Equal(t, f, raw)
	}

	first, err := BankStatement(context.Background(), tab, mapping)
	require.NoError(t, err)

	// Feed the standardized transactions back through as canonical rows.
	data, err := json.Marshal(first.Transactions)
	require.NoError(t, err)
	var again []map[string]any
	require.NoError(t, json.Unmarshal(data, &again))

	rows := make([]domain.Row, 0, len(again))
	for _, r := range again {
		amount, _ := r["amount"].(float64)
		row := domain.Row{"date": r["date"], "description": r["description"], "balance": r["balance"]}
		if amount < 0 {
			row["debit"] = -amount
		} else {
			row["credit"] = amount
		}
		rows = append(rows, row)
	}

	second, err := BankStatement(context.Background(), &domain.Tabular{Headers: tab.Headers, Rows: rows}, mapping)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{12.5, domain.Float(12.5)},
		{3, domain.Float(3)},
		{json.Number("7.25"), domain.Float(7.25)},
		{"1,234.56", domain.Float(1234.56)},
		{"$ 99", domain.Float(99)},
		{"€1 000", domain.Float(1000)},
		{"(42.10)", domain.Float(-42.10)},
		{"-5", domain.Float(-5)},
		{"", nil},
		{"abc", nil},
		{"NaN", nil},
		{nil, nil},
		{true, nil},
	}

	for _, tt := range tests {
		got := ParseAmount(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "%v", tt.in)
			continue
		}
		require.NotNil(t, got, "%v", tt.in)
		assert.InDelta(t, *tt.want, *got, 1e-9, "%v", tt.in)
	}
}

func TestParseDate(t *testing.T) {
	jan15 := civil.Date{Year: 2024, Month: 1, Day: 15}

	tests := []struct {
		in any
		ok bool
	}{
		{"2024-01-15", true},
		{"2024-01-15T10:00:00Z", true},
		{"2024-01-15 10:00:00", true},
		{"01/15/2024", true},
		{"1/15/2024", true},
		{"15.01.2024", true},
		{"15 Jan 2024", true},
		{"Jan 15, 2024", true},
		{45306.0, true},
		{"not a date", false},
		{"", false},
		{nil, false},
		{-3.0, false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, jan15, got, "%v", tt.in)
		}
	}
}

func TestCreditBureau(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Full Name", "Date of Birth", "Address", "SSN Last Four", "Inquiries Last 6 Months", "Total Debt", "Credit Score"},
		Rows: []domain.Row{{
			"Full Name": "Jane Doe", "Date of Birth": "1990-05-01", "Address": "1 Main St",
			"SSN Last Four": 1234.0, "Inquiries Last 6 Months": 2.0, "Total Debt": "12,500", "Credit Score": 710.0,
		}},
	}

	in, err := CreditBureau(tab)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", in.FullName)
	assert.Equal(t, "1234", in.SSNLastFour)
	assert.Equal(t, 2, in.InquiriesLast6Months)
	assert.Equal(t, 12500.0, in.TotalDebt)
	require.NotNil(t, in.CreditScore)
	assert.Equal(t, 710, *in.CreditScore)
}

func TestCreditBureau_MissingFields(t *testing.T) {
	tab := &domain.Tabular{
		Headers: []string{"Full Name", "Credit Score"},
		Rows:    []domain.Row{{"Full Name": "Jane Doe", "Credit Score": 700.0}},
	}

	_, err := CreditBureau(tab)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, domain.DocumentTypeCreditBureau, vErr.DocumentType)
	assert.Equal(t, []string{"date_of_birth", "address", "ssn_last_four", "inquiries_last_6_months", "total_debt"}, vErr.Fields)
	assert.True(t, domain.IsClientError(err))
}

func TestCreditBureau_NonNumeric(t *testing.T) {
	tab := &domain.Tabular{
		Rows: []domain.Row{{
			"full_name": "Jane Doe", "date_of_birth": "1990-05-01", "address": "1 Main St",
			"ssn_last_four": "1234", "inquiries_last_6_months": "several", "total_debt": 0.0,
		}},
	}

	_, err := CreditBureau(tab)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "inquiries_last_6_months")
}

func TestKybKyc(t *testing.T) {
	row := domain.Row{
		"Company Name": "Acme Ltd", "Registration Number": "RC-1", "Registration Date": "2015-03-01",
		"Registered Address": "2 High St", "Business Type": "LLC", "Contact Person Name": "Sam Lee",
		"Contact Person Email": "sam@acme.test", "Phone Number": "+1 555 0100", "Website": "https://acme.test",
	}

	in, err := KybKyc(&domain.Tabular{Rows: []domain.Row{row}})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", in.CompanyName)
	require.NotNil(t, in.Website)
	assert.Equal(t, "https://acme.test", *in.Website)

	row["Contact Person Email"] = "not-an-email"
	_, err = KybKyc(&domain.Tabular{Rows: []domain.Row{row}})
	assert.True(t, domain.IsClientError(err))

	_, err = KybKyc(&domain.Tabular{})
	assert.True(t, domain.IsClientError(err))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "inquiries_last_6_months", SnakeCase("Inquiries Last 6 Months"))
	assert.Equal(t, "full_name", SnakeCase("full_name"))
	assert.Equal(t, "contact_person_email", SnakeCase(" Contact-Person  Email "))
}
