// Package metrics derives financial aggregates from standardized statements.
//
// A field is nil when its data is absent or its ratio is undefined. Nil is
// never replaced by zero.
package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/dvloznov/docrisk/internal/domain"
)

// Proxies used until real debt and earnings data is available.
var (
	debtPaymentShare = decimal.RequireFromString("0.1")
	ebitdaShare      = decimal.RequireFromString("0.5")
	highRiskFactor   = decimal.NewFromInt(2)
)

// Derive computes every metrics block for stmt. Signals feed the pass-through
// risk indicators and the debt-to-income ratio. An empty statement yields
// all-nil blocks.
func Derive(stmt *domain.BankStatement, signals domain.ExternalSignals) domain.Metrics {
	if stmt == nil || len(stmt.Transactions) == 0 {
		return domain.Metrics{
			RiskIndicators: domain.RiskIndicators{HighRiskTransactions: []domain.Transaction{}},
		}
	}

	signals = signals.Resolved()
	txns := stmt.Transactions
	f := sumFlows(txns)

	return domain.Metrics{
		Cashflow:       cashflow(f, len(txns)),
		Liquidity:      liquidity(txns),
		Discipline:     discipline(f),
		DebtServicing:  debtServicing(f, decimal.NewFromFloat(*signals.TotalDebt)),
		RiskIndicators: riskIndicators(txns, signals),
	}
}

type flows struct {
	inflow  decimal.Decimal
	outflow decimal.Decimal
}

// sumFlows adds credit amounts to inflow and debit magnitudes to outflow.
func sumFlows(txns []domain.Transaction) flows {
	var f flows
	for _, t := range txns {
		if t.Amount == nil {
			continue
		}
		amount := decimal.NewFromFloat(*t.Amount).Abs()
		switch t.Type {
		case domain.TransactionCredit:
			f.inflow = f.inflow.Add(amount)
		case domain.TransactionDebit:
			f.outflow = f.outflow.Add(amount)
		}
	}
	return f
}

func cashflow(f flows, count int) domain.CashflowMetrics {
	net := f.inflow.Sub(f.outflow)
	return domain.CashflowMetrics{
		TotalInflow:            floatPtr(f.inflow),
		TotalOutflow:           floatPtr(f.outflow),
		NetCashflow:            floatPtr(net),
		AverageMonthlyCashflow: floatPtr(net.Div(decimal.NewFromInt(int64(count)))),
		CashflowVolatility:     domain.Float(0),
	}
}

// liquidity treats the latest credit balance as assets and the latest debit
// balance as liabilities. A side never observed counts as zero in the ratio;
// days cash on hand stays nil without an observed assets balance.
func liquidity(txns []domain.Transaction) domain.LiquidityMetrics {
	assets, seen := latestBalance(txns, domain.TransactionCredit)
	liabilities, _ := latestBalance(txns, domain.TransactionDebit)
	ratio := safeRatio(assets, liabilities)

	out := domain.LiquidityMetrics{
		CurrentRatio:        ratio,
		QuickRatio:          copyFloat(ratio),
		CashConversionCycle: nil,
	}
	if seen {
		out.DaysCashOnHand = floatPtr(assets)
	}
	return out
}

func latestBalance(txns []domain.Transaction, typ domain.TransactionType) (decimal.Decimal, bool) {
	var (
		found  bool
		latest domain.Transaction
	)
	for _, t := range txns {
		if t.Type != typ || t.Balance == nil {
			continue
		}
		if !found || !t.Date.Before(latest.Date) {
			latest = t
			found = true
		}
	}
	if !found {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*latest.Balance), true
}

func discipline(f flows) domain.FinancialDisciplineMetrics {
	savings := decimal.Zero
	return domain.FinancialDisciplineMetrics{
		OverdraftFrequency: domain.Int(0),
		LatePaymentCount:   domain.Int(0),
		BouncedChequeCount: domain.Int(0),
		SavingsRate:        safeRatio(savings, f.inflow),
	}
}

func debtServicing(f flows, totalDebt decimal.Decimal) domain.DebtServicingMetrics {
	annualDebtPayments := f.outflow.Mul(debtPaymentShare)
	ebitda := f.inflow.Mul(ebitdaShare)

	return domain.DebtServicingMetrics{
		DSCR:                     safeRatio(ebitda, annualDebtPayments),
		DebtToIncomeRatio:        safeRatio(totalDebt, f.inflow),
		LoanPaymentToIncomeRatio: safeRatio(annualDebtPayments, f.inflow),
	}
}

// riskIndicators flags debits larger than twice the mean debit magnitude.
func riskIndicators(txns []domain.Transaction, signals domain.ExternalSignals) domain.RiskIndicators {
	out := domain.RiskIndicators{
		HighRiskTransactions: []domain.Transaction{},
		CreditScoreChange:    copyFloat(signals.CreditScoreChange),
		NegativeNewsMentions: domain.Int(*signals.NegativeNewsMentions),
		BankruptcyFlags:      domain.Bool(*signals.BankruptcyFlags),
	}

	var (
		sum   decimal.Decimal
		count int64
	)
	for _, t := range txns {
		if t.Type == domain.TransactionDebit && t.Amount != nil {
			sum = sum.Add(decimal.NewFromFloat(*t.Amount).Abs())
			count++
		}
	}
	if count == 0 {
		return out
	}

	limit := sum.Div(decimal.NewFromInt(count)).Mul(highRiskFactor)
	for _, t := range txns {
		if t.Type != domain.TransactionDebit || t.Amount == nil {
			continue
		}
		if decimal.NewFromFloat(*t.Amount).Abs().GreaterThan(limit) {
			out.HighRiskTransactions = append(out.HighRiskTransactions, t)
		}
	}
	return out
}

// safeRatio divides num by den. Zero over zero is zero; anything else over
// zero is undefined and yields nil.
func safeRatio(num, den decimal.Decimal) *float64 {
	if den.IsZero() {
		if num.IsZero() {
			return domain.Float(0)
		}
		return nil
	}
	return floatPtr(num.Div(den))
}

func floatPtr(d decimal.Decimal) *float64 {
	return domain.Float(d.InexactFloat64())
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return domain.Float(*p)
}
