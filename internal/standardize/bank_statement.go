// Package standardize turns classified raw content into typed canonical
// records.
package standardize

import (
	"context"
	"math"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
	"github.com/dvloznov/docrisk/internal/matcher"
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

// TypeColumn is the one non-canonical column kept through standardization.
// When present it overrides the direction derived from debit and credit.
const TypeColumn = "type"

// DefaultDescription replaces a missing description.
const DefaultDescription = "N/A"

type canonicalRow map[string]any

// BankStatement standardizes tabular rows into a statement. Rows that are
// blank across every canonical column, or whose date does not parse, are
// dropped. It returns domain.ErrEmptyDataset when nothing remains.
func BankStatement(ctx context.Context, t *domain.Tabular, mapping matcher.HeaderMapping) (*domain.BankStatement, error) {
	log := logger.FromContext(ctx)

	present := mapping.Fields()
	typeHeader, hasType := typeColumn(t.Headers, mapping)

	rows := make([]canonicalRow, 0, len(t.Rows))
	for i, raw := range t.Rows {
		row := make(canonicalRow, len(present)+1)
		blank := true
		for _, field := range present {
			header, _ := mapping.Raw(field)
			v := raw[header]
			row[field] = v
			if !domain.IsBlank(v) {
				blank = false
			}
		}
		if blank {
			log.Debug().Int("row", i).Msg("Dropping blank row")
			continue
		}
		if hasType {
			row[TypeColumn] = raw[typeHeader]
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	hasDebit := mapping.Has(vocabulary.FieldDebit)
	hasCredit := mapping.Has(vocabulary.FieldCredit)

	txns := make([]domain.Transaction, 0, len(rows))
	for i, row := range rows {
		date, ok := ParseDate(row[vocabulary.FieldDate])
		if !ok {
			log.Warn().Int("row", i).Interface("date", row[vocabulary.FieldDate]).Msg("Dropping row with unparseable date")
			continue
		}

		txn := domain.Transaction{
			Date:        date,
			Description: Text(row[vocabulary.FieldDescription]),
			Balance:     ParseAmount(row[vocabulary.FieldBalance]),
			Type:        domain.TransactionUnknown,
		}
		if txn.Description == "" {
			txn.Description = DefaultDescription
		}

		txn.Amount, txn.Type = deriveAmount(
			hasDebit, ParseAmount(row[vocabulary.FieldDebit]),
			hasCredit, ParseAmount(row[vocabulary.FieldCredit]),
		)
		if hasType {
			applyExplicitType(&txn, row[TypeColumn])
		}
		txns = append(txns, txn)
	}

	if len(txns) == 0 {
		return nil, domain.ErrEmptyDataset
	}

	start, end := dateRange(txns)
	return &domain.BankStatement{
		AccountHolderName: domain.DefaultAccountHolder,
		AccountNumber:     domain.DefaultAccountNumber,
		BankName:          domain.DefaultBankName,
		StartDate:         start,
		EndDate:           end,
		Currency:          domain.DefaultCurrency,
		Transactions:      txns,
	}, nil
}

// typeColumn finds an unmapped header literally named "type".
func typeColumn(headers []string, mapping matcher.HeaderMapping) (string, bool) {
	for _, h := range headers {
		if _, mapped := mapping.Canonical(h); mapped {
			continue
		}
		if matcher.Normalize(h) == TypeColumn {
			return h, true
		}
	}
	return "", false
}

// deriveAmount computes the signed amount as credit minus debit, treating a
// missing side as zero. With neither column the amount is unknown.
func deriveAmount(hasDebit bool, debit *float64, hasCredit bool, credit *float64) (*float64, domain.TransactionType) {
	if !hasDebit && !hasCredit {
		return nil, domain.TransactionUnknown
	}

	var d, c float64
	if hasDebit && debit != nil {
		d = *debit
	}
	if hasCredit && credit != nil {
		c = *credit
	}

	amount := c - d
	switch {
	case c > 0:
		return &amount, domain.TransactionCredit
	case d > 0:
		return &amount, domain.TransactionDebit
	default:
		return &amount, domain.TransactionUnknown
	}
}

func applyExplicitType(txn *domain.Transaction, v any) {
	var typ domain.TransactionType
	switch matcher.Normalize(Text(v)) {
	case "credit", "cr", "c", "deposit", "in":
		typ = domain.TransactionCredit
	case "debit", "dr", "d", "withdrawal", "out":
		typ = domain.TransactionDebit
	default:
		return
	}

	txn.Type = typ
	if txn.Amount == nil {
		return
	}
	abs := math.Abs(*txn.Amount)
	if typ == domain.TransactionDebit {
		abs = -abs
	}
	txn.Amount = &abs
}

func dateRange(txns []domain.Transaction) (civil.Date, civil.Date) {
	start, end := txns[0].Date, txns[0].Date
	for _, t := range txns[1:] {
		if t.Date.Before(start) {
			start = t.Date
		}
		if t.Date.After(end) {
			end = t.Date
		}
	}
	return start, end
}
