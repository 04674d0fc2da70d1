// Package classifier decides the document type of extracted content.
package classifier

import (
	"fmt"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/matcher"
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

// Method names the heuristic that produced a classification.
type Method string

const (
	MethodStructure Method = "structure"
	MethodKeyword   Method = "keyword"
	MethodText      Method = "text"
	MethodNone      Method = "none"
)

const (
	minMappedFields   = 3
	minPopulatedKeys  = 3
	minPopulatedShare = 0.5
)

// Result is the outcome of Classify. Mapping is set for tabular content.
type Result struct {
	Type    domain.DocumentType
	Method  Method
	Score   float64
	Mapping matcher.HeaderMapping
}

// Classifier holds the field and document-type matchers built from one
// vocabulary.
type Classifier struct {
	fields *matcher.Matcher
	types  *matcher.Matcher
}

// New builds a classifier over v.
func New(v *vocabulary.Vocabulary, fieldThreshold, typeThreshold float64) *Classifier {
	return &Classifier{
		fields: matcher.New(v.Fields, fieldThreshold),
		types:  matcher.New(v.DocumentTypes, typeThreshold),
	}
}

// Fields returns the field matcher used for header mapping.
func (c *Classifier) Fields() *matcher.Matcher {
	return c.fields
}

// Classify returns the document type of content. Content that clears no
// threshold is unknown.
func (c *Classifier) Classify(content domain.Content) Result {
	switch v := content.(type) {
	case *domain.Tabular:
		return c.classifyTabular(v)
	case *domain.Text:
		return c.classifyText(v.Content)
	case *domain.Unrecognized, nil:
		return Result{Type: domain.DocumentTypeUnknown, Method: MethodNone}
	default:
		panic(fmt.Sprintf("classifier: unhandled content %T", content))
	}
}

func (c *Classifier) classifyTabular(t *domain.Tabular) Result {
	mapping := c.fields.MapHeaders(t.Headers)

	// Structure first: a recognizable ledger wins over any keyword hit.
	if mapping.Len() >= minMappedFields && isTransactional(mapping, t.Rows) {
		return Result{
			Type:    domain.DocumentTypeBankStatement,
			Method:  MethodStructure,
			Score:   100,
			Mapping: mapping,
		}
	}

	best, ok := c.types.Pick(c.types.EntryScores(t.Headers...))
	if !ok {
		return Result{Type: domain.DocumentTypeUnknown, Method: MethodNone, Score: best.Score, Mapping: mapping}
	}
	return Result{
		Type:    domain.DocumentType(best.Name),
		Method:  MethodKeyword,
		Score:   best.Score,
		Mapping: mapping,
	}
}

func (c *Classifier) classifyText(text string) Result {
	best, ok := c.types.Pick(c.types.EntryScores(text))
	if !ok {
		return Result{Type: domain.DocumentTypeUnknown, Method: MethodNone, Score: best.Score}
	}
	return Result{Type: domain.DocumentType(best.Name), Method: MethodText, Score: best.Score}
}

// isTransactional requires date, description and at least one of debit,
// credit or balance, and more than half the rows populating at least three
// mapped key columns.
func isTransactional(mapping matcher.HeaderMapping, rows []domain.Row) bool {
	if !mapping.Has(vocabulary.FieldDate) || !mapping.Has(vocabulary.FieldDescription) {
		return false
	}
	if !mapping.Has(vocabulary.FieldDebit) && !mapping.Has(vocabulary.FieldCredit) && !mapping.Has(vocabulary.FieldBalance) {
		return false
	}
	if len(rows) == 0 {
		return false
	}

	keys := make([]string, 0, mapping.Len())
	for _, a := range mapping.Assignments {
		keys = append(keys, a.Raw)
	}

	populated := 0
	for _, row := range rows {
		n := 0
		for _, k := range keys {
			if !domain.IsBlank(row[k]) {
				n++
			}
		}
		if n >= minPopulatedKeys {
			populated++
		}
	}
	return float64(populated)/float64(len(rows)) > minPopulatedShare
}
