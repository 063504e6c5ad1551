package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strompris/pkg/market"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(cfg Config) *Engine {
	e := NewEngine(cfg)
	e.now = func() time.Time { return testNow }
	return e
}

func goodOffer() market.Offer {
	return market.Offer{
		ID:           "tibber-spot",
		ProviderName: "Tibber",
		PriceType:    market.PriceTypeSpot,
		BindingMonths: 0,
		IsPartner:    true,
		ValidFrom:    testNow.AddDate(0, -1, 0),
	}
}

func request(monthly int64, percent float64) EvaluationRequest {
	return EvaluationRequest{
		Profile: market.ConsumptionProfile{
			Zone:      market.ZoneNO1,
			PriceType: market.PriceTypeFixed,
		},
		Offer:          goodOffer(),
		MonthlySavings: monthly,
		YearlySavings:  monthly * 12,
		SavingsPercent: percent,
	}
}

func TestStrongCandidateSwitchesWithHighUrgency(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	d := e.Evaluate(request(300, 25))

	assert.True(t, d.ShouldSwitch)
	assert.Equal(t, market.UrgencyHigh, d.Urgency)
	// All four rules at full weight: 0.5 + 0.2 + 0.15 + 0.15 = 1.0.
	assert.Equal(t, 100, d.Score)
	assert.Len(t, d.Reasons, 4)
}

func TestBelowMinimumMonthlySavingsBlocks(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	d := e.Evaluate(request(49, 40))

	assert.False(t, d.ShouldSwitch)
	require.Equal(t, RuleSavings, d.Rules[0].Rule)
	assert.False(t, d.Rules[0].Passed)
	assert.Zero(t, d.Rules[0].Weight)
}

func TestBelowMinimumYearlySavingsBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinimumYearlySavings = 1000
	e := newTestEngine(cfg)

	// 60/month clears the monthly floor but 720/year misses the yearly one.
	d := e.Evaluate(request(60, 10))
	assert.False(t, d.ShouldSwitch)
	assert.False(t, d.Rules[0].Passed)
}

func TestSavingsWeightSaturatesAtTripleMinimum(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	assert.InDelta(t, 0.5, e.Evaluate(request(75, 5)).Rules[0].Weight, 1e-9)
	assert.InDelta(t, 1.0, e.Evaluate(request(150, 10)).Rules[0].Weight, 1e-9)
	assert.InDelta(t, 1.0, e.Evaluate(request(600, 40)).Rules[0].Weight, 1e-9)
}

func TestUnexpiredBindingBlocksDespiteLargeSavings(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(500, 40)
	until := testNow.AddDate(0, 0, 45)
	req.Profile.BindingUntil = &until

	d := e.Evaluate(req)
	assert.False(t, d.ShouldSwitch)
	require.Equal(t, RuleBinding, d.Rules[1].Rule)
	assert.False(t, d.Rules[1].Passed)
	assert.Contains(t, d.Rules[1].Reason, "2 more month(s)")
}

func TestExpiredBindingDoesNotBlock(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(300, 25)
	until := testNow.AddDate(0, -2, 0)
	req.Profile.BindingUntil = &until

	d := e.Evaluate(req)
	assert.True(t, d.ShouldSwitch)
	assert.True(t, d.Rules[1].Passed)
}

func TestOfferBindingAboveMaximumBlocks(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(300, 25)
	req.Offer.BindingMonths = 18

	d := e.Evaluate(req)
	assert.False(t, d.ShouldSwitch)
	assert.False(t, d.Rules[1].Passed)
}

func TestOfferBindingWeightPenalty(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(300, 25)
	req.Offer.BindingMonths = 6

	d := e.Evaluate(req)
	assert.True(t, d.Rules[1].Passed)
	// 1 - (6/12)*0.5 = 0.75.
	assert.InDelta(t, 0.75, d.Rules[1].Weight, 1e-9)
}

func TestPenalizeBindingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PenalizeBinding = false
	e := newTestEngine(cfg)

	req := request(300, 25)
	req.Offer.BindingMonths = 24

	d := e.Evaluate(req)
	assert.True(t, d.Rules[1].Passed)
	assert.InDelta(t, 1.0, d.Rules[1].Weight, 1e-9)
}

func TestStabilityWeightsPartnerAndKnownProvider(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(300, 25)
	req.Offer.IsPartner = false
	req.Offer.ProviderName = "Ukjent Kraft AS"
	assert.InDelta(t, 0.7, e.Evaluate(req).Rules[2].Weight, 1e-9)

	req.Offer.ProviderName = "Fjordkraft AS"
	assert.InDelta(t, 0.8, e.Evaluate(req).Rules[2].Weight, 1e-9)

	req.Offer.IsPartner = true
	assert.InDelta(t, 1.0, e.Evaluate(req).Rules[2].Weight, 1e-9)
}

func TestTrustCautionOnExpiredOffer(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	req := request(300, 25)
	expired := testNow.AddDate(0, 0, -1)
	req.Offer.ValidUntil = &expired

	d := e.Evaluate(req)
	require.Equal(t, RuleTrust, d.Rules[3].Rule)
	// Expiry is a caution, never a failure.
	assert.True(t, d.Rules[3].Passed)
	assert.Contains(t, d.Rules[3].Reason, "caution")
}

func TestPartnerPreferenceDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreferPartners = false
	e := newTestEngine(cfg)

	d := e.Evaluate(request(300, 25))
	// Trust: 0.5 base + 0.2 valid-from + 0.2 not-expired, no partner bonus.
	assert.InDelta(t, 0.9, d.Rules[3].Weight, 1e-9)
}

func TestHighPercentageAloneDoesNotGrantHighUrgency(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	// Weak composite: savings weight 0.4, offer binding 12 months (0.5),
	// unknown non-partner provider (0.7), trust without partner (0.9).
	// Score = 20 + 10 + 10.5 + 13.5 = 54.
	req := request(60, 25)
	req.Offer.IsPartner = false
	req.Offer.ProviderName = "Ukjent Kraft AS"
	req.Offer.BindingMonths = 12

	d := e.Evaluate(req)
	assert.Equal(t, 54, d.Score)
	assert.True(t, d.ShouldSwitch) // savings + binding pass, score >= 50
	assert.Equal(t, market.UrgencyLow, d.Urgency)
}

func TestMediumUrgencyNeedsScoreSixty(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	// 15% savings with a strong composite score lands on medium.
	req := request(180, 15)
	req.Offer.IsPartner = false
	req.Offer.ProviderName = "Fjordkraft"

	d := e.Evaluate(req)
	assert.GreaterOrEqual(t, d.Score, 60)
	assert.Equal(t, market.UrgencyMedium, d.Urgency)
}

func TestUrgencyMonotonicInPercentageAtHighScore(t *testing.T) {
	e := newTestEngine(DefaultConfig())

	rank := map[market.Urgency]int{
		market.UrgencyLow: 0, market.UrgencyMedium: 1, market.UrgencyHigh: 2,
	}

	prev := -1
	for _, percent := range []float64{5, 12, 19, 22, 35} {
		d := e.Evaluate(request(400, percent))
		require.GreaterOrEqual(t, d.Score, 80)
		assert.GreaterOrEqual(t, rank[d.Urgency], prev, "urgency regressed at %.0f%%", percent)
		prev = rank[d.Urgency]
	}
}

func TestReasonsCoverAllRulesInOrder(t *testing.T) {
	e := newTestEngine(DefaultConfig())
	d := e.Evaluate(request(300, 25))

	require.Len(t, d.Rules, 4)
	assert.Equal(t, RuleSavings, d.Rules[0].Rule)
	assert.Equal(t, RuleBinding, d.Rules[1].Rule)
	assert.Equal(t, RuleStability, d.Rules[2].Rule)
	assert.Equal(t, RuleTrust, d.Rules[3].Rule)
	for i, r := range d.Rules {
		assert.Equal(t, r.Reason, d.Reasons[i])
	}
}
