package recommend

import (
	"context"
	"sort"

	"strompris/pkg/market"
)

// OfferCost is one row of the cost comparison view.
type OfferCost struct {
	Offer                market.Offer `json:"offer"`
	EstimatedMonthlyCost int64        `json:"estimated_monthly_cost"`
	EstimatedYearlyCost  int64        `json:"estimated_yearly_cost"`
}

// CompareOffers estimates every offer for the profile and returns the rows
// sorted ascending by estimated monthly cost. Unlike Recommend this needs
// no current-cost baseline; it is a plain side-by-side comparison.
func (g *Generator) CompareOffers(ctx context.Context, profile market.ConsumptionProfile, offers []market.Offer) []OfferCost {
	rows := make([]OfferCost, 0, len(offers))
	for _, offer := range offers {
		monthly := g.estimator.MonthlyCost(ctx, offer, profile)
		rows = append(rows, OfferCost{
			Offer:                offer,
			EstimatedMonthlyCost: monthly,
			EstimatedYearlyCost:  monthly * 12,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EstimatedMonthlyCost < rows[j].EstimatedMonthlyCost
	})
	return rows
}
