// Package recommend filters and ranks candidate offers against the user's
// current contract cost, producing savings-bearing recommendations and the
// ascending cost comparison used by the comparison view.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"strompris/internal/estimate"
	"strompris/pkg/market"
)

// MinimumMonthlySavings is the floor (NOK/month) below which a switch is
// not worth the friction of switching.
const MinimumMonthlySavings = 50

// Urgency classification thresholds, in percent of current monthly cost.
const (
	highSavingsPercent   = 20
	mediumSavingsPercent = 10
)

// Recommendation is one savings-bearing switch candidate.
type Recommendation struct {
	ID             uuid.UUID    `json:"id"`
	Offer          market.Offer `json:"offer"`
	CurrentCost    int64        `json:"current_cost"`
	EstimatedCost  int64        `json:"estimated_cost"`
	MonthlySavings int64        `json:"monthly_savings"`
	YearlySavings  int64        `json:"yearly_savings"`
	SavingsPercent float64      `json:"savings_percent"`
	Urgency        market.Urgency `json:"urgency"`
	Reasons        []string     `json:"reasons"`
}

// Generator produces recommendations from estimated offer costs.
type Generator struct {
	estimator *estimate.Estimator
	logger    *slog.Logger
}

func NewGenerator(estimator *estimate.Estimator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{estimator: estimator, logger: logger}
}

// Recommend estimates every offer against the profile and returns the ones
// saving at least MinimumMonthlySavings, ordered by descending monthly
// savings (stable; ties keep catalog order). Without a known current
// monthly cost there is no baseline and the result is empty.
func (g *Generator) Recommend(ctx context.Context, profile market.ConsumptionProfile, offers []market.Offer) []Recommendation {
	if profile.MonthlyCost == nil || !profile.MonthlyCost.IsPositive() {
		g.logger.Info("no current monthly cost on profile, skipping recommendations")
		return []Recommendation{}
	}
	currentCost := profile.MonthlyCost.Round(0).IntPart()

	recs := make([]Recommendation, 0, len(offers))
	for _, offer := range offers {
		estimated := g.estimator.MonthlyCost(ctx, offer, profile)
		monthly := currentCost - estimated
		if monthly < MinimumMonthlySavings {
			continue
		}

		percent := float64(monthly) / float64(currentCost) * 100
		recs = append(recs, Recommendation{
			ID:             uuid.New(),
			Offer:          offer,
			CurrentCost:    currentCost,
			EstimatedCost:  estimated,
			MonthlySavings: monthly,
			YearlySavings:  monthly * 12,
			SavingsPercent: percent,
			Urgency:        classifyUrgency(percent),
			Reasons:        buildReasons(offer, profile, monthly),
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MonthlySavings > recs[j].MonthlySavings
	})
	return recs
}

func classifyUrgency(savingsPercent float64) market.Urgency {
	switch {
	case savingsPercent >= highSavingsPercent:
		return market.UrgencyHigh
	case savingsPercent >= mediumSavingsPercent:
		return market.UrgencyMedium
	default:
		return market.UrgencyLow
	}
}

// buildReasons returns every applicable reason in fixed order; reasons are
// additive, not mutually exclusive.
func buildReasons(offer market.Offer, profile market.ConsumptionProfile, monthlySavings int64) []string {
	reasons := []string{
		fmt.Sprintf("Estimated savings of %d NOK per month", monthlySavings),
		fmt.Sprintf("%d NOK in savings per year", monthlySavings*12),
	}
	if offer.BindingMonths == 0 {
		reasons = append(reasons, "No binding period")
	}
	if offer.IsPartner {
		reasons = append(reasons, "Partner offer")
	}
	if offer.PriceType == market.PriceTypeSpot && profile.PriceType == market.PriceTypeFixed {
		reasons = append(reasons, "Spot price contracts are often cheaper than fixed price over time")
	}
	return reasons
}
