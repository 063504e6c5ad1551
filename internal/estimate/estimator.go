// Package estimate computes the estimated monthly cost of a provider offer
// for a given consumption profile and current spot price data.
package estimate

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"strompris/pkg/market"
)

// DefaultYearlyConsumptionKwh is the national average household consumption,
// used when a profile has no usable value.
const DefaultYearlyConsumptionKwh = 16000

var (
	monthsPerYear = decimal.NewFromInt(12)
	orePerNOK     = decimal.NewFromInt(100)

	// defaultFixedUnitOre applies to fixed offers that do not state a
	// unit price.
	defaultFixedUnitOre = decimal.NewFromInt(100)

	// defaultVariableMarkupOre: variable offers reuse the spot formula with
	// this markup when none is stated. Provisional; mirrors current product
	// behavior rather than a distinct variable-price model.
	defaultVariableMarkupOre = decimal.NewFromInt(5)
)

// SpotSource supplies the current average spot price for a zone in øre/kWh.
// Implementations never fail; they fall back to representative prices.
type SpotSource interface {
	AverageOre(ctx context.Context, zone market.PriceZone) decimal.Decimal
}

// Estimator turns (offer, profile) pairs into whole-NOK monthly costs.
type Estimator struct {
	spot   SpotSource
	logger *slog.Logger
}

func NewEstimator(spot SpotSource, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{spot: spot, logger: logger}
}

// MonthlyCost estimates the monthly cost of an offer in whole NOK.
// It never returns an error, and the result is always at least the
// offer's monthly fee.
func (e *Estimator) MonthlyCost(ctx context.Context, offer market.Offer, profile market.ConsumptionProfile) int64 {
	yearly := profile.YearlyConsumptionKwh
	if yearly <= 0 {
		yearly = DefaultYearlyConsumptionKwh
	}
	monthlyKwh := decimal.NewFromFloat(yearly).Div(monthsPerYear)

	var unitOre decimal.Decimal
	switch offer.PriceType {
	case market.PriceTypeFixed:
		unitOre = defaultFixedUnitOre
		if offer.UnitPriceOre != nil {
			unitOre = *offer.UnitPriceOre
		}
	case market.PriceTypeVariable:
		markup := defaultVariableMarkupOre
		if offer.MarkupOre != nil {
			markup = *offer.MarkupOre
		}
		unitOre = e.spot.AverageOre(ctx, profile.Zone).Add(markup)
	default: // spot
		markup := decimal.Zero
		if offer.MarkupOre != nil {
			markup = *offer.MarkupOre
		}
		unitOre = e.spot.AverageOre(ctx, profile.Zone).Add(markup)
	}

	energyCost := monthlyKwh.Mul(unitOre).Div(orePerNOK)
	if energyCost.IsNegative() {
		energyCost = decimal.Zero
	}

	return energyCost.Add(offer.MonthlyFee).Round(0).IntPart()
}

// YearlyCost is the monthly estimate scaled to a year.
func (e *Estimator) YearlyCost(ctx context.Context, offer market.Offer, profile market.ConsumptionProfile) int64 {
	return e.MonthlyCost(ctx, offer, profile) * 12
}
