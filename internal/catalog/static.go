package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"strompris/pkg/market"
)

// StaticCatalog serves a fixed offer set from memory. Used for demos,
// tests, and as the default when no database is configured.
type StaticCatalog struct {
	offers []market.Offer
	now    func() time.Time
}

// NewStaticCatalog wraps a fixed offer list.
func NewStaticCatalog(offers []market.Offer) *StaticCatalog {
	return &StaticCatalog{offers: offers, now: time.Now}
}

// ActiveOffers filters the offer set by validity window and zone restriction.
func (c *StaticCatalog) ActiveOffers(_ context.Context, zone market.PriceZone) ([]market.Offer, error) {
	now := c.now()
	var active []market.Offer
	for _, o := range c.offers {
		if o.ActiveAt(now) && o.AvailableIn(zone) {
			active = append(active, o)
		}
	}
	return active, nil
}

func ore(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// SampleOffers returns a representative market snapshot. Figures mirror
// typical Norwegian consumer tariffs.
func SampleOffers() []market.Offer {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	no4 := market.ZoneNO4
	return []market.Offer{
		{
			ID: "tibber-spot", ProviderID: "tibber", ProviderName: "Tibber",
			Name: "Tibber Spotpris", PriceType: market.PriceTypeSpot,
			MonthlyFee: decimal.NewFromInt(39), MarkupOre: ore(1.0),
			BindingMonths: 0, IsPartner: true, ValidFrom: start,
		},
		{
			ID: "fjordkraft-spot", ProviderID: "fjordkraft", ProviderName: "Fjordkraft",
			Name: "Strøm til innkjøpspris", PriceType: market.PriceTypeSpot,
			MonthlyFee: decimal.NewFromInt(49), MarkupOre: ore(5.9),
			BindingMonths: 0, IsPartner: false, ValidFrom: start,
		},
		{
			ID: "norgesenergi-spot", ProviderID: "norgesenergi", ProviderName: "NorgesEnergi",
			Name: "Strøm Spot", PriceType: market.PriceTypeSpot,
			MonthlyFee: decimal.NewFromInt(29), MarkupOre: ore(3.5),
			BindingMonths: 0, IsPartner: true, ValidFrom: start,
		},
		{
			ID: "fortum-fast", ProviderID: "fortum", ProviderName: "Fortum",
			Name: "Fastpris 12", PriceType: market.PriceTypeFixed,
			MonthlyFee: decimal.NewFromInt(35), UnitPriceOre: ore(95),
			BindingMonths: 12, IsPartner: false, ValidFrom: start,
		},
		{
			ID: "lyse-variabel", ProviderID: "lyse", ProviderName: "Lyse",
			Name: "Variabel pris", PriceType: market.PriceTypeVariable,
			MonthlyFee: decimal.NewFromInt(25),
			BindingMonths: 0, IsPartner: false, ValidFrom: start,
		},
		{
			ID: "ishavskraft-nord", ProviderID: "ishavskraft", ProviderName: "Ishavskraft",
			Name: "Nordpris Spot", PriceType: market.PriceTypeSpot,
			MonthlyFee: decimal.NewFromInt(19), MarkupOre: ore(2.5),
			BindingMonths: 0, IsPartner: false, ValidFrom: start, Zone: &no4,
		},
	}
}
