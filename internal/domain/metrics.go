package domain

// Metric blocks use pointer fields so that "unknown" serializes as an
// explicit null instead of a zero.

type CashflowMetrics struct {
	TotalInflow            *float64 `json:"total_inflow"`
	TotalOutflow           *float64 `json:"total_outflow"`
	NetCashflow            *float64 `json:"net_cashflow"`
	AverageMonthlyCashflow *float64 `json:"average_monthly_cashflow"`
	CashflowVolatility     *float64 `json:"cashflow_volatility"`
}

type LiquidityMetrics struct {
	CurrentRatio        *float64 `json:"current_ratio"`
	QuickRatio          *float64 `json:"quick_ratio"`
	CashConversionCycle *float64 `json:"cash_conversion_cycle"`
	DaysCashOnHand      *float64 `json:"days_cash_on_hand"`
}

type FinancialDisciplineMetrics struct {
	OverdraftFrequency *int     `json:"overdraft_frequency"`
	LatePaymentCount   *int     `json:"late_payment_count"`
	BouncedChequeCount *int     `json:"bounced_cheque_count"`
	SavingsRate        *float64 `json:"savings_rate"`
}

type DebtServicingMetrics struct {
	DSCR                     *float64 `json:"dscr"`
	DebtToIncomeRatio        *float64 `json:"debt_to_income_ratio"`
	LoanPaymentToIncomeRatio *float64 `json:"loan_payment_to_income_ratio"`
}

// RiskIndicators holds derived outliers plus pass-through external signals.
// HighRiskTransactions is never nil so it encodes as [].
type RiskIndicators struct {
	HighRiskTransactions []Transaction `json:"high_risk_transactions"`
	CreditScoreChange    *float64      `json:"credit_score_change"`
	NegativeNewsMentions *int          `json:"negative_news_mentions"`
	BankruptcyFlags      *bool         `json:"bankruptcy_flags"`
}

// Metrics bundles the five aggregates the rule engine scores.
type Metrics struct {
	Cashflow       CashflowMetrics            `json:"cashflow_metrics"`
	Liquidity      LiquidityMetrics           `json:"liquidity_metrics"`
	Discipline     FinancialDisciplineMetrics `json:"financial_discipline_metrics"`
	DebtServicing  DebtServicingMetrics       `json:"debt_servicing_metrics"`
	RiskIndicators RiskIndicators             `json:"risk_indicators"`
}

// ExternalSignals are inputs supplied by upstream collaborators rather than
// derived from transactions. Nil fields take their defaults.
type ExternalSignals struct {
	CreditScoreChange    *float64 `json:"credit_score_change,omitempty"`
	NegativeNewsMentions *int     `json:"negative_news_mentions,omitempty"`
	BankruptcyFlags      *bool    `json:"bankruptcy_flags,omitempty"`
	TotalDebt            *float64 `json:"total_debt,omitempty"`
}

// Resolved returns a copy with every nil field set to its default.
func (s ExternalSignals) Resolved() ExternalSignals {
	if s.CreditScoreChange == nil {
		s.CreditScoreChange = Float(0)
	}
	if s.NegativeNewsMentions == nil {
		s.NegativeNewsMentions = Int(0)
	}
	if s.BankruptcyFlags == nil {
		s.BankruptcyFlags = Bool(false)
	}
	if s.TotalDebt == nil {
		s.TotalDebt = Float(0)
	}
	return s
}

func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Bool(v bool) *bool        { return &v }
