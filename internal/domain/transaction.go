package domain

import (
	"cloud.google.com/go/civil"
)

// TransactionType is the direction of a standardized ledger line.
type TransactionType string

const (
	TransactionCredit  TransactionType = "credit"
	TransactionDebit   TransactionType = "debit"
	TransactionUnknown TransactionType = "unknown"
)

// Transaction represents one standardized ledger line.
// Amount is signed: positive for credits, negative for debits.
type Transaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      *float64        `json:"amount"`
	Type        TransactionType `json:"type"`
	Balance     *float64        `json:"balance"`
}

// BankStatement aggregates the transactions of one statement.
type BankStatement struct {
	AccountHolderName string        `json:"account_holder_name"`
	AccountNumber     string        `json:"account_number"`
	BankName          string        `json:"bank_name"`
	StartDate         civil.Date    `json:"start_date"`
	EndDate           civil.Date    `json:"end_date"`
	Currency          string        `json:"currency"`
	Transactions      []Transaction `json:"transactions"`
}

// Placeholder statement attributes. Tabular statements carry no header block
// to read these from.
const (
	DefaultAccountHolder = "Default Account Holder"
	DefaultAccountNumber = "XXXX-XXXX-XXXX-1234"
	DefaultBankName      = "Generic Bank"
	DefaultCurrency      = "USD"
)
