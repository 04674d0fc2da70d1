package risk

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"

	"github.com/google/cel-go/cel"
	"github.com/rs/zerolog"

	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/logger"
)

// Score bounds and bin cut-offs.
const (
	MinScore        = 0
	MaxScore        = 100
	MediumThreshold = 30
	HighThreshold   = 70
)

// NoRulesTriggered is the rationale when no rule fired.
const NoRulesTriggered = "No specific rules triggered. Base assessment."

// PlaceholderScore is the fixed score for document types without
// metrics-based scoring.
const PlaceholderScore = 50

// costLimit bounds the runtime cost of a single expression evaluation.
const costLimit = 10000

type compiledRule struct {
	Rule
	condition cel.Program
	score     cel.Program
	rationale *template.Template
}

// Engine evaluates a compiled rule set. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	env   *cel.Env
	rules []compiledRule
}

// NewEngine compiles rules in order. A rule that fails to compile is dropped
// with a warning; the remaining rules still load.
func NewEngine(rules []Rule, log zerolog.Logger) (*Engine, error) {
	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("create rule environment: %w", err)
	}

	e := &Engine{env: env}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if seen[r.Name] {
			log.Warn().Str("rule", r.Name).Msg("Skipping duplicate rule")
			continue
		}
		cr, err := e.compile(r)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("rule", r.Name).Msg("Skipping malformed rule")
			continue
		}
		seen[r.Name] = true
		e.rules = append(e.rules, cr)
	}

	log.Debug().Int("rules", len(e.rules)).Msg("Risk rules loaded")
	return e, nil
}

// Load builds an engine from a rule file, or from the embedded rules when
// path is empty.
func Load(path string, log zerolog.Logger) (*Engine, error) {
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules, log)
}

func newEnv() (*cel.Env, error) {
	names := metricNames()
	sort.Strings(names)

	opts := []cel.EnvOption{cel.CrossTypeNumericComparisons(true)}
	for _, name := range names {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	for _, block := range blockNames {
		opts = append(opts, cel.Variable(block, cel.MapType(cel.StringType, cel.DynType)))
	}
	return cel.NewEnv(opts...)
}

func (e *Engine) compile(r Rule) (compiledRule, error) {
	if r.Name == "" {
		return compiledRule{}, fmt.Errorf("rule has no name")
	}
	if strings.TrimSpace(r.Condition) == "" {
		return compiledRule{}, fmt.Errorf("rule %s has no condition", r.Name)
	}

	cr := compiledRule{Rule: r}

	var err error
	if cr.condition, err = e.program(r.Condition); err != nil {
		return compiledRule{}, fmt.Errorf("condition: %w", err)
	}
	if strings.TrimSpace(r.ScoreExpression) != "" {
		if cr.score, err = e.program(r.ScoreExpression); err != nil {
			return compiledRule{}, fmt.Errorf("score_expression: %w", err)
		}
	}

	text := r.Rationale
	if text == "" {
		text = r.Name
	}
	if cr.rationale, err = template.New(r.Name).Parse(text); err != nil {
		return compiledRule{}, fmt.Errorf("rationale: %w", err)
	}
	return cr, nil
}

func (e *Engine) program(expr string) (cel.Program, error) {
	ast, iss := e.env.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	return e.env.Program(ast, cel.CostLimit(costLimit))
}

// Rules returns the loaded rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.Rule)
	}
	return out
}

// Assess scores m. Rules whose condition cannot be evaluated are skipped
// with a warning. The score is clamped to [0, 100].
func (e *Engine) Assess(ctx context.Context, m domain.Metrics) domain.RiskAssessment {
	log := logger.FromContext(ctx)
	vars := Variables(m)

	// Each impact is capped so the running sum cannot overflow.
	limit := int64(MaxScore * max(len(e.rules), 1))

	score := 0
	var rationale []string
	for _, r := range e.rules {
		triggered, err := evalBool(r.condition, vars)
		if err != nil {
			log.Warn().Err(err).Str("rule", r.Name).Msg("Skipping rule: condition not evaluable")
			continue
		}
		if !triggered {
			continue
		}

		impact := saturate(int64(r.ScoreImpact), limit)
		if r.score != nil {
			impact, err = evalInt(r.score, vars, limit)
			if err != nil {
				log.Warn().Err(err).Str("rule", r.Name).Msg("Skipping rule: score expression not evaluable")
				continue
			}
		}

		score += impact
		rationale = append(rationale, r.render(vars))
		log.Debug().Str("rule", r.Name).Int("impact", impact).Msg("Rule triggered")
	}

	if len(rationale) == 0 {
		rationale = []string{NoRulesTriggered}
	}

	clamped := float64(min(max(score, MinScore), MaxScore))
	bin, decision := BinFor(clamped)
	return domain.RiskAssessment{
		Score:     clamped,
		Bin:       bin,
		Decision:  decision,
		Rationale: rationale,
	}
}

func (r compiledRule) render(vars map[string]any) string {
	var buf bytes.Buffer
	if err := r.rationale.Execute(&buf, vars); err != nil {
		return r.Rationale
	}
	return buf.String()
}

func evalBool(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %s, want bool", out.Type().TypeName())
	}
	return b, nil
}

// evalInt truncates numeric results toward zero and saturates them at
// ±limit.
func evalInt(prg cel.Program, vars map[string]any, limit int64) (int, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return 0, err
	}
	switch v := out.Value().(type) {
	case int64:
		return saturate(v, limit), nil
	case uint64:
		if v > uint64(limit) {
			return int(limit), nil
		}
		return int(v), nil
	case float64:
		if math.IsNaN(v) {
			return 0, fmt.Errorf("score expression returned %v", v)
		}
		return int(math.Max(-float64(limit), math.Min(math.Trunc(v), float64(limit)))), nil
	default:
		return 0, fmt.Errorf("score expression returned %s, want int or double", out.Type().TypeName())
	}
}

func saturate(v, limit int64) int {
	return int(min(max(v, -limit), limit))
}

// BinFor maps a clamped score to its bin and decision.
func BinFor(score float64) (domain.RiskBin, domain.Decision) {
	switch {
	case score < MediumThreshold:
		return domain.RiskBinLow, domain.DecisionApproved
	case score < HighThreshold:
		return domain.RiskBinMedium, domain.DecisionReviewRequired
	default:
		return domain.RiskBinHigh, domain.DecisionRejected
	}
}

// PlaceholderAssessment is the fixed verdict for document types that are
// validated but not scored from metrics.
func PlaceholderAssessment(docType domain.DocumentType) domain.RiskAssessment {
	bin, decision := BinFor(PlaceholderScore)
	return domain.RiskAssessment{
		Score:     PlaceholderScore,
		Bin:       bin,
		Decision:  decision,
		Rationale: []string{fmt.Sprintf("Fixed assessment for %s documents: manual review required.", docType)},
	}
}
