package risk

import (
	"github.com/dvloznov/docrisk/internal/domain"
)

// Variables flattens metrics into the namespace rules are evaluated in:
// every metric by its own name plus one map per block. Nil metrics stay nil
// and evaluate as CEL null.
func Variables(m domain.Metrics) map[string]any {
	cashflow := map[string]any{
		"total_inflow":             float(m.Cashflow.TotalInflow),
		"total_outflow":            float(m.Cashflow.TotalOutflow),
		"net_cashflow":             float(m.Cashflow.NetCashflow),
		"average_monthly_cashflow": float(m.Cashflow.AverageMonthlyCashflow),
		"cashflow_volatility":      float(m.Cashflow.CashflowVolatility),
	}
	liquidity := map[string]any{
		"current_ratio":         float(m.Liquidity.CurrentRatio),
		"quick_ratio":           float(m.Liquidity.QuickRatio),
		"cash_conversion_cycle": float(m.Liquidity.CashConversionCycle),
		"days_cash_on_hand":     float(m.Liquidity.DaysCashOnHand),
	}
	discipline := map[string]any{
		"overdraft_frequency":  integer(m.Discipline.OverdraftFrequency),
		"late_payment_count":   integer(m.Discipline.LatePaymentCount),
		"bounced_cheque_count": integer(m.Discipline.BouncedChequeCount),
		"savings_rate":         float(m.Discipline.SavingsRate),
	}
	debt := map[string]any{
		"dscr":                         float(m.DebtServicing.DSCR),
		"debt_to_income_ratio":         float(m.DebtServicing.DebtToIncomeRatio),
		"loan_payment_to_income_ratio": float(m.DebtServicing.LoanPaymentToIncomeRatio),
	}
	indicators := map[string]any{
		"high_risk_transaction_count": int64(len(m.RiskIndicators.HighRiskTransactions)),
		"credit_score_change":         float(m.RiskIndicators.CreditScoreChange),
		"negative_news_mentions":      integer(m.RiskIndicators.NegativeNewsMentions),
		"bankruptcy_flags":            boolean(m.RiskIndicators.BankruptcyFlags),
	}

	vars := map[string]any{
		"cashflow_metrics":             cashflow,
		"liquidity_metrics":            liquidity,
		"financial_discipline_metrics": discipline,
		"debt_servicing_metrics":       debt,
		"risk_indicators":              indicators,
	}
	for _, block := range []map[string]any{cashflow, liquidity, discipline, debt, indicators} {
		for k, v := range block {
			vars[k] = v
		}
	}
	return vars
}

// blockNames are the per-block map variables.
var blockNames = []string{
	"cashflow_metrics",
	"liquidity_metrics",
	"financial_discipline_metrics",
	"debt_servicing_metrics",
	"risk_indicators",
}

// metricNames returns every flat variable name.
func metricNames() []string {
	vars := Variables(domain.Metrics{})
	names := make([]string, 0, len(vars))
	for name := range vars {
		if !isBlock(name) {
			names = append(names, name)
		}
	}
	return names
}

func isBlock(name string) bool {
	for _, b := range blockNames {
		if b == name {
			return true
		}
	}
	return false
}

func float(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func integer(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func boolean(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}
