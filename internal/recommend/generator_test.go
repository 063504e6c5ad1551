package recommend

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strompris/internal/estimate"
	"strompris/pkg/market"
)

type fixedSpot struct {
	ore decimal.Decimal
}

func (f fixedSpot) AverageOre(_ context.Context, _ market.PriceZone) decimal.Decimal {
	return f.ore
}

func newGenerator(spotOre int64) *Generator {
	source := fixedSpot{ore: decimal.NewFromInt(spotOre)}
	return NewGenerator(estimate.NewEstimator(source, nil), nil)
}

func ore(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func nok(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func profileWithCost(monthly int64) market.ConsumptionProfile {
	return market.ConsumptionProfile{
		YearlyConsumptionKwh: 16000,
		Zone:                 market.ZoneNO1,
		MonthlyCost:          nok(monthly),
		PriceType:            market.PriceTypeFixed,
	}
}

func spotOffer(id string, markup float64, fee int64) market.Offer {
	return market.Offer{
		ID:         id,
		PriceType:  market.PriceTypeSpot,
		MarkupOre:  ore(markup),
		MonthlyFee: decimal.NewFromInt(fee),
	}
}

func TestNoBaselineNoRecommendations(t *testing.T) {
	g := newGenerator(60)
	profile := profileWithCost(1200)
	profile.MonthlyCost = nil

	recs := g.Recommend(context.Background(), profile, []market.Offer{spotOffer("a", 1, 29)})
	assert.Empty(t, recs)
}

func TestNegativeSavingsExcluded(t *testing.T) {
	// At 80 øre the offer estimates to 1229/month against a 1200 baseline.
	g := newGenerator(80)
	recs := g.Recommend(context.Background(), profileWithCost(1200), []market.Offer{
		spotOffer("a", 10, 29),
	})
	assert.Empty(t, recs)
}

func TestSmallSavingsExcluded(t *testing.T) {
	g := newGenerator(80)
	// Estimates to 1229; baseline 1260 saves only 31 NOK, below the floor.
	recs := g.Recommend(context.Background(), profileWithCost(1260), []market.Offer{
		spotOffer("a", 10, 29),
	})
	assert.Empty(t, recs)

	// Baseline 1279 saves exactly 50 and is included.
	recs = g.Recommend(context.Background(), profileWithCost(1279), []market.Offer{
		spotOffer("a", 10, 29),
	})
	require.Len(t, recs, 1)
	assert.EqualValues(t, 50, recs[0].MonthlySavings)
}

func TestScenarioMediumUrgency(t *testing.T) {
	// Spot average 60 øre: estimate 962, savings 238, 19.8% -> medium.
	g := newGenerator(60)
	offer := spotOffer("a", 10, 29)
	offer.IsPartner = true

	recs := g.Recommend(context.Background(), profileWithCost(1200), []market.Offer{offer})
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.EqualValues(t, 962, rec.EstimatedCost)
	assert.EqualValues(t, 238, rec.MonthlySavings)
	assert.EqualValues(t, 238*12, rec.YearlySavings)
	assert.InDelta(t, 19.83, rec.SavingsPercent, 0.01)
	assert.Equal(t, market.UrgencyMedium, rec.Urgency)
}

func TestHighUrgencyAtTwentyPercent(t *testing.T) {
	g := newGenerator(60)
	// Baseline 2000: savings 2000-962 = 1038, 51.9% -> high.
	recs := g.Recommend(context.Background(), profileWithCost(2000), []market.Offer{
		spotOffer("a", 10, 29),
	})
	require.Len(t, recs, 1)
	assert.Equal(t, market.UrgencyHigh, recs[0].Urgency)
}

func TestRecommendationsSortedBySavingsDescending(t *testing.T) {
	g := newGenerator(60)
	offers := []market.Offer{
		spotOffer("mid", 10, 49),
		spotOffer("best", 1, 19),
		spotOffer("worst", 15, 79),
	}
	recs := g.Recommend(context.Background(), profileWithCost(1500), offers)
	require.Len(t, recs, 3)

	assert.Equal(t, "best", recs[0].Offer.ID)
	assert.Equal(t, "mid", recs[1].Offer.ID)
	assert.Equal(t, "worst", recs[2].Offer.ID)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].MonthlySavings, recs[i].MonthlySavings)
	}
}

func TestTiesKeepCatalogOrder(t *testing.T) {
	g := newGenerator(60)
	offers := []market.Offer{
		spotOffer("first", 10, 29),
		spotOffer("second", 10, 29),
	}
	recs := g.Recommend(context.Background(), profileWithCost(1200), offers)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Offer.ID)
	assert.Equal(t, "second", recs[1].Offer.ID)
}

func TestReasonsOrderedAndAdditive(t *testing.T) {
	g := newGenerator(60)
	offer := spotOffer("a", 10, 29)
	offer.IsPartner = true
	offer.BindingMonths = 0

	recs := g.Recommend(context.Background(), profileWithCost(1200), []market.Offer{offer})
	require.Len(t, recs, 1)

	assert.Equal(t, []string{
		"Estimated savings of 238 NOK per month",
		"2856 NOK in savings per year",
		"No binding period",
		"Partner offer",
		"Spot price contracts are often cheaper than fixed price over time",
	}, recs[0].Reasons)
}

func TestSpotReasonOnlyForFixedProfiles(t *testing.T) {
	g := newGenerator(60)
	profile := profileWithCost(1200)
	profile.PriceType = market.PriceTypeSpot

	recs := g.Recommend(context.Background(), profile, []market.Offer{spotOffer("a", 10, 29)})
	require.Len(t, recs, 1)
	assert.NotContains(t, recs[0].Reasons,
		"Spot price contracts are often cheaper than fixed price over time")
}

func TestCompareOffersAscending(t *testing.T) {
	g := newGenerator(60)
	offers := []market.Offer{
		spotOffer("expensive", 15, 79),
		spotOffer("cheap", 1, 19),
		spotOffer("middle", 10, 49),
	}
	rows := g.CompareOffers(context.Background(), profileWithCost(1200), offers)
	require.Len(t, rows, 3)

	assert.Equal(t, "cheap", rows[0].Offer.ID)
	assert.Equal(t, "middle", rows[1].Offer.ID)
	assert.Equal(t, "expensive", rows[2].Offer.ID)
	for _, row := range rows {
		assert.Equal(t, row.EstimatedMonthlyCost*12, row.EstimatedYearlyCost)
	}
}

func TestCompareOffersNeedsNoBaseline(t *testing.T) {
	g := newGenerator(60)
	profile := profileWithCost(1200)
	profile.MonthlyCost = nil

	rows := g.CompareOffers(context.Background(), profile, []market.Offer{spotOffer("a", 10, 29)})
	assert.Len(t, rows, 1)
}
