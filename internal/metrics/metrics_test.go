package metrics

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/docrisk/internal/domain"
)

func txn(day int, typ domain.TransactionType, amount float64, balance *float64) domain.Transaction {
	return domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 1, Day: day},
		Description: string(typ),
		Amount:      domain.Float(amount),
		Type:        typ,
		Balance:     balance,
	}
}

func statement(txns ...domain.Transaction) *domain.BankStatement {
	return &domain.BankStatement{Transactions: txns}
}

func TestDerive_Cashflow(t *testing.T) {
	m := Derive(statement(
		txn(1, domain.TransactionCredit, 2000, nil),
		txn(2, domain.TransactionDebit, -1000, nil),
		txn(3, domain.TransactionDebit, -150, nil),
	), domain.ExternalSignals{})

	assert.Equal(t, 2000.0, *m.Cashflow.TotalInflow)
	assert.Equal(t, 1150.0, *m.Cashflow.TotalOutflow)
	assert.Equal(t, 850.0, *m.Cashflow.NetCashflow)
	assert.InDelta(t, 283.333, *m.Cashflow.AverageMonthlyCashflow, 0.001)
	assert.Equal(t, 0.0, *m.Cashflow.CashflowVolatility)
}

func TestDerive_IgnoresNilAmountsAndUnknownType(t *testing.T) {
	unknown := txn(4, domain.TransactionUnknown, 999, nil)
	missing := domain.Transaction{Date: civil.Date{Year: 2024, Month: 1, Day: 5}, Type: domain.TransactionCredit}

	m := Derive(statement(txn(1, domain.TransactionCredit, 100, nil), unknown, missing), domain.ExternalSignals{})
	assert.Equal(t, 100.0, *m.Cashflow.TotalInflow)
	assert.Equal(t, 0.0, *m.Cashflow.TotalOutflow)
}

func TestDerive_Liquidity(t *testing.T) {
	tests := []struct {
		name       string
		txns       []domain.Transaction
		wantRatio  *float64
		wantAssets *float64
	}{
		{
			name: "latest balances",
			txns: []domain.Transaction{
				txn(1, domain.TransactionDebit, -1000, domain.Float(5000)),
				txn(2, domain.TransactionCredit, 2000, domain.Float(7000)),
				txn(3, domain.TransactionDebit, -150, domain.Float(6850)),
			},
			wantRatio:  domain.Float(7000.0 / 6850.0),
			wantAssets: domain.Float(7000),
		},
		{
			name:       "no balances at all",
			txns:       []domain.Transaction{txn(1, domain.TransactionCredit, 10, nil)},
			wantRatio:  domain.Float(0),
			wantAssets: nil,
		},
		{
			name:       "liabilities only",
			txns:       []domain.Transaction{txn(1, domain.TransactionDebit, -10, domain.Float(300))},
			wantRatio:  domain.Float(0),
			wantAssets: nil,
		},
		{
			name:       "assets without liabilities",
			txns:       []domain.Transaction{txn(1, domain.TransactionCredit, 10, domain.Float(500))},
			wantRatio:  nil,
			wantAssets: domain.Float(500),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Derive(statement(tt.txns...), domain.ExternalSignals{})
			if tt.wantRatio == nil {
				assert.Nil(t, m.Liquidity.CurrentRatio)
				assert.Nil(t, m.Liquidity.QuickRatio)
			} else {
				require.NotNil(t, m.Liquidity.CurrentRatio)
				assert.InDelta(t, *tt.wantRatio, *m.Liquidity.CurrentRatio, 1e-9)
				assert.InDelta(t, *tt.wantRatio, *m.Liquidity.QuickRatio, 1e-9)
			}
			assert.Nil(t, m.Liquidity.CashConversionCycle)
			assert.Equal(t, tt.wantAssets, m.Liquidity.DaysCashOnHand)
		})
	}
}

func TestDerive_DebtServicing(t *testing.T) {
	m := Derive(statement(
		txn(1, domain.TransactionCredit, 2000, nil),
		txn(2, domain.TransactionDebit, -1000, nil),
	), domain.ExternalSignals{TotalDebt: domain.Float(500)})

	assert.InDelta(t, 10.0, *m.DebtServicing.DSCR, 1e-9)
	assert.InDelta(t, 0.25, *m.DebtServicing.DebtToIncomeRatio, 1e-9)
	assert.InDelta(t, 0.05, *m.DebtServicing.LoanPaymentToIncomeRatio, 1e-9)
	assert.Equal(t, 0.0, *m.Discipline.SavingsRate)
	assert.Equal(t, 0, *m.Discipline.OverdraftFrequency)
}

func TestDerive_UndefinedRatiosAreNil(t *testing.T) {
	// Outflow only: inflow is zero, so debt-to-income with a nonzero debt is undefined.
	m := Derive(statement(txn(1, domain.TransactionDebit, -100, nil)),
		domain.ExternalSignals{TotalDebt: domain.Float(1000)})

	assert.Equal(t, 0.0, *m.DebtServicing.DSCR, "zero ebitda over nonzero payments")
	assert.Nil(t, m.DebtServicing.DebtToIncomeRatio)
	assert.Nil(t, m.DebtServicing.LoanPaymentToIncomeRatio)
	assert.Equal(t, 0.0, *m.Discipline.SavingsRate)

	// Inflow only: no debt payments, so DSCR is undefined.
	m = Derive(statement(txn(1, domain.TransactionCredit, 100, nil)), domain.ExternalSignals{})
	assert.Nil(t, m.DebtServicing.DSCR)
	assert.Equal(t, 0.0, *m.DebtServicing.DebtToIncomeRatio)
}

func TestDerive_HighRiskTransactions(t *testing.T) {
	big := txn(4, domain.TransactionDebit, -5000, nil)
	m := Derive(statement(
		txn(1, domain.TransactionDebit, -100, nil),
		txn(2, domain.TransactionDebit, -120, nil),
		txn(3, domain.TransactionDebit, -80, nil),
		big,
		txn(5, domain.TransactionCredit, 9000, nil),
	), domain.ExternalSignals{})

	require.Len(t, m.RiskIndicators.HighRiskTransactions, 1)
	assert.Equal(t, big, m.RiskIndicators.HighRiskTransactions[0])

	m = Derive(statement(txn(1, domain.TransactionCredit, 10, nil)), domain.ExternalSignals{})
	assert.NotNil(t, m.RiskIndicators.HighRiskTransactions)
	assert.Empty(t, m.RiskIndicators.HighRiskTransactions)
}

func TestDerive_Signals(t *testing.T) {
	stmt := statement(txn(1, domain.TransactionCredit, 10, nil))

	m := Derive(stmt, domain.ExternalSignals{})
	assert.Equal(t, 0.0, *m.RiskIndicators.CreditScoreChange)
	assert.Equal(t, 0, *m.RiskIndicators.NegativeNewsMentions)
	assert.False(t, *m.RiskIndicators.BankruptcyFlags)

	m = Derive(stmt, domain.ExternalSignals{
		CreditScoreChange:    domain.Float(-35),
		NegativeNewsMentions: domain.Int(2),
		BankruptcyFlags:      domain.Bool(true),
	})
	assert.Equal(t, -35.0, *m.RiskIndicators.CreditScoreChange)
	assert.Equal(t, 2, *m.RiskIndicators.NegativeNewsMentions)
	assert.True(t, *m.RiskIndicators.BankruptcyFlags)
}

func TestDerive_EmptyStatement(t *testing.T) {
	for _, stmt := range []*domain.BankStatement{nil, statement()} {
		m := Derive(stmt, domain.ExternalSignals{BankruptcyFlags: domain.Bool(true)})

		assert.Equal(t, domain.CashflowMetrics{}, m.Cashflow)
		assert.Equal(t, domain.LiquidityMetrics{}, m.Liquidity)
		assert.Equal(t, domain.FinancialDisciplineMetrics{}, m.Discipline)
		assert.Equal(t, domain.DebtServicingMetrics{}, m.DebtServicing)
		assert.Nil(t, m.RiskIndicators.BankruptcyFlags)

		data, err := json.Marshal(m.RiskIndicators)
		require.NoError(t, err)
		assert.JSONEq(t, `{"high_risk_transactions":[],"credit_score_change":null,"negative_news_mentions":null,"bankruptcy_flags":null}`, string(data))
	}
}
