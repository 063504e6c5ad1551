// Package policy applies the switch-decision business rules to a candidate
// offer: minimum savings, binding-period constraints, provider stability,
// and partner trust. Evaluation is a pure scoring function; nothing here
// moves money or persists state.
package policy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"strompris/pkg/market"
)

// RuleName identifies one of the four rule evaluators.
type RuleName string

const (
	RuleSavings   RuleName = "savings"
	RuleBinding   RuleName = "binding"
	RuleStability RuleName = "stability"
	RuleTrust     RuleName = "trust"
)

// Relative importance of each rule in the aggregate score.
const (
	importanceSavings   = 0.5
	importanceBinding   = 0.2
	importanceStability = 0.15
	importanceTrust     = 0.15
)

// Score gates: a switch needs >= 50; urgency upgrades need more.
const (
	switchScoreGate = 50
	mediumScoreGate = 60
	highScoreGate   = 80
)

// RuleResult is the outcome of a single rule evaluator.
type RuleResult struct {
	Rule   RuleName `json:"rule"`
	Passed bool     `json:"passed"`
	Reason string   `json:"reason"`
	Weight float64  `json:"weight"` // 0..1
}

// Config holds the tunable thresholds. Zero values are filled from
// DefaultConfig by NewEngine.
type Config struct {
	MinimumMonthlySavings int64    `json:"minimum_monthly_savings"` // NOK
	MinimumYearlySavings  int64    `json:"minimum_yearly_savings"`  // NOK
	UrgencyHighPercent    float64  `json:"urgency_high_percent"`
	UrgencyMediumPercent  float64  `json:"urgency_medium_percent"`
	PreferPartners        bool     `json:"prefer_partners"`
	PartnerWeight         float64  `json:"partner_weight"`
	PenalizeBinding       bool     `json:"penalize_binding"`
	MaxBindingMonths      int      `json:"max_binding_months"`
	KnownProviders        []string `json:"known_providers,omitempty"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinimumMonthlySavings: 50,
		MinimumYearlySavings:  500,
		UrgencyHighPercent:    20,
		UrgencyMediumPercent:  10,
		PreferPartners:        true,
		PartnerWeight:         0.1,
		PenalizeBinding:       true,
		MaxBindingMonths:      12,
		KnownProviders: []string{
			"tibber", "fjordkraft", "fortum", "norgesenergi", "lyse",
		},
	}
}

// EvaluationRequest is the context for one switch decision.
type EvaluationRequest struct {
	Profile        market.ConsumptionProfile
	Offer          market.Offer
	MonthlySavings int64
	YearlySavings  int64
	SavingsPercent float64
}

// Decision is the scored outcome of a policy evaluation.
type Decision struct {
	ShouldSwitch bool           `json:"should_switch"`
	Urgency      market.Urgency `json:"urgency"`
	Score        int            `json:"score"` // 0..100
	Reasons      []string       `json:"reasons"`
	Rules        []RuleResult   `json:"rules"`
	EvaluatedAt  time.Time      `json:"evaluated_at"`
}

// Engine evaluates switch decisions against a fixed configuration.
type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine creates an engine, filling unset numeric thresholds from
// DefaultConfig. Boolean options are taken as given.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MinimumMonthlySavings == 0 {
		cfg.MinimumMonthlySavings = def.MinimumMonthlySavings
	}
	if cfg.MinimumYearlySavings == 0 {
		cfg.MinimumYearlySavings = def.MinimumYearlySavings
	}
	if cfg.UrgencyHighPercent == 0 {
		cfg.UrgencyHighPercent = def.UrgencyHighPercent
	}
	if cfg.UrgencyMediumPercent == 0 {
		cfg.UrgencyMediumPercent = def.UrgencyMediumPercent
	}
	if cfg.PartnerWeight == 0 {
		cfg.PartnerWeight = def.PartnerWeight
	}
	if cfg.MaxBindingMonths == 0 {
		cfg.MaxBindingMonths = def.MaxBindingMonths
	}
	if cfg.KnownProviders == nil {
		cfg.KnownProviders = def.KnownProviders
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// NewDefaultEngine creates an engine with production defaults.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultConfig())
}

// Evaluate runs the four rules and aggregates them into a Decision.
// All rule reasons are reported, including rules that passed with low
// weight, for transparency in the UI.
func (e *Engine) Evaluate(req EvaluationRequest) *Decision {
	rules := []RuleResult{
		e.evalSavings(req),
		e.evalBinding(req),
		e.evalStability(req),
		e.evalTrust(req),
	}

	score := aggregateScore(rules)

	reasons := make([]string, 0, len(rules))
	for _, r := range rules {
		reasons = append(reasons, r.Reason)
	}

	return &Decision{
		ShouldSwitch: rules[0].Passed && rules[1].Passed && score >= switchScoreGate,
		Urgency:      e.classifyUrgency(req.SavingsPercent, score),
		Score:        score,
		Reasons:      reasons,
		Rules:        rules,
		EvaluatedAt:  e.now(),
	}
}

func aggregateScore(rules []RuleResult) int {
	importance := map[RuleName]float64{
		RuleSavings:   importanceSavings,
		RuleBinding:   importanceBinding,
		RuleStability: importanceStability,
		RuleTrust:     importanceTrust,
	}
	var sum float64
	for _, r := range rules {
		sum += r.Weight * importance[r.Rule]
	}
	score := int(math.Round(sum * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// classifyUrgency is deliberately conservative: high percentage savings
// alone do not grant high urgency without also clearing the composite
// score gate.
func (e *Engine) classifyUrgency(savingsPercent float64, score int) market.Urgency {
	switch {
	case savingsPercent >= e.cfg.UrgencyHighPercent && score >= highScoreGate:
		return market.UrgencyHigh
	case savingsPercent >= e.cfg.UrgencyMediumPercent && score >= mediumScoreGate:
		return market.UrgencyMedium
	default:
		return market.UrgencyLow
	}
}

// evalSavings fails hard below the minimum thresholds; above them the
// weight saturates at three times the monthly minimum.
func (e *Engine) evalSavings(req EvaluationRequest) RuleResult {
	if req.MonthlySavings < e.cfg.MinimumMonthlySavings || req.YearlySavings < e.cfg.MinimumYearlySavings {
		return RuleResult{
			Rule:   RuleSavings,
			Passed: false,
			Weight: 0,
			Reason: fmt.Sprintf("Savings of %d NOK/month are below the %d NOK/month minimum",
				req.MonthlySavings, e.cfg.MinimumMonthlySavings),
		}
	}

	weight := float64(req.MonthlySavings) / float64(e.cfg.MinimumMonthlySavings) / 3
	if weight > 1 {
		weight = 1
	}
	return RuleResult{
		Rule:   RuleSavings,
		Passed: true,
		Weight: weight,
		Reason: fmt.Sprintf("Saves %d NOK/month (%d NOK/year)", req.MonthlySavings, req.YearlySavings),
	}
}

func (e *Engine) evalBinding(req EvaluationRequest) RuleResult {
	now := e.now()

	// An unexpired binding on the current contract blocks the switch
	// regardless of configuration; that constraint is contractual.
	if until := req.Profile.BindingUntil; until != nil && until.After(now) {
		monthsLeft := int(math.Ceil(until.Sub(now).Hours() / (24 * 30)))
		return RuleResult{
			Rule:   RuleBinding,
			Passed: false,
			Weight: 0,
			Reason: fmt.Sprintf("Current contract is bound for about %d more month(s)", monthsLeft),
		}
	}

	binding := req.Offer.BindingMonths
	if binding == 0 {
		return RuleResult{
			Rule:   RuleBinding,
			Passed: true,
			Weight: 1,
			Reason: "New offer has no binding period",
		}
	}

	if !e.cfg.PenalizeBinding {
		return RuleResult{
			Rule:   RuleBinding,
			Passed: true,
			Weight: 1,
			Reason: fmt.Sprintf("New offer has %d month(s) binding", binding),
		}
	}

	if binding > e.cfg.MaxBindingMonths {
		return RuleResult{
			Rule:   RuleBinding,
			Passed: false,
			Weight: 0,
			Reason: fmt.Sprintf("Offer binding of %d months exceeds the %d month maximum",
				binding, e.cfg.MaxBindingMonths),
		}
	}

	weight := 1 - (float64(binding)/float64(e.cfg.MaxBindingMonths))*0.5
	return RuleResult{
		Rule:   RuleBinding,
		Passed: true,
		Weight: weight,
		Reason: fmt.Sprintf("New offer has %d month(s) binding (max %d)", binding, e.cfg.MaxBindingMonths),
	}
}

// evalStability never blocks; it weights provider track record.
func (e *Engine) evalStability(req EvaluationRequest) RuleResult {
	weight := 0.7
	notes := []string{"Provider assumed stable"}

	if req.Offer.IsPartner {
		weight += 0.2
		notes = append(notes, "vetted partner")
	}
	if e.isKnownProvider(req.Offer.ProviderName) {
		weight += 0.1
		notes = append(notes, "well-known provider")
	}
	if weight > 1 {
		weight = 1
	}

	return RuleResult{
		Rule:   RuleStability,
		Passed: true,
		Weight: weight,
		Reason: strings.Join(notes, "; "),
	}
}

// evalTrust never blocks; expired validity is reported as a caution.
func (e *Engine) evalTrust(req EvaluationRequest) RuleResult {
	now := e.now()
	weight := 0.5
	notes := []string{}

	if e.cfg.PreferPartners && req.Offer.IsPartner {
		weight += e.cfg.PartnerWeight
		notes = append(notes, "partner offer preferred")
	}
	if !req.Offer.ValidFrom.After(now) {
		weight += 0.2
		notes = append(notes, "offer currently valid")
	}
	if req.Offer.ValidUntil == nil || req.Offer.ValidUntil.After(now) {
		weight += 0.2
	} else {
		notes = append(notes, "caution: offer validity has expired")
	}
	if weight > 1 {
		weight = 1
	}
	if len(notes) == 0 {
		notes = append(notes, "no trust signals")
	}

	return RuleResult{
		Rule:   RuleTrust,
		Passed: true,
		Weight: weight,
		Reason: strings.Join(notes, "; "),
	}
}

func (e *Engine) isKnownProvider(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range e.cfg.KnownProviders {
		if strings.Contains(lower, strings.ToLower(known)) {
			return true
		}
	}
	return false
}
