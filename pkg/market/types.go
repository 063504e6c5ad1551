// Package market defines the shared domain types for the Norwegian
// electricity contract market: price zones, price models, consumption
// profiles, and provider offers.
package market

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceZone is one of the five Norwegian electricity market regions.
type PriceZone string

const (
	ZoneNO1 PriceZone = "NO1" // Southeast (Oslo)
	ZoneNO2 PriceZone = "NO2" // Southwest (Kristiansand)
	ZoneNO3 PriceZone = "NO3" // Central (Trondheim)
	ZoneNO4 PriceZone = "NO4" // North (Tromsø)
	ZoneNO5 PriceZone = "NO5" // West (Bergen)
)

// Zones lists all valid price zones in display order.
func Zones() []PriceZone {
	return []PriceZone{ZoneNO1, ZoneNO2, ZoneNO3, ZoneNO4, ZoneNO5}
}

// ParseZone normalizes and validates a price zone string.
func ParseZone(s string) (PriceZone, error) {
	zone := PriceZone(strings.ToUpper(strings.TrimSpace(s)))
	for _, z := range Zones() {
		if z == zone {
			return z, nil
		}
	}
	return "", fmt.Errorf("unknown price zone: %q", s)
}

// PriceType is the pricing model of a contract or offer.
type PriceType string

const (
	PriceTypeSpot     PriceType = "spot"
	PriceTypeFixed    PriceType = "fixed"
	PriceTypeVariable PriceType = "variable"
)

// ParsePriceType validates a price type string.
func ParsePriceType(s string) (PriceType, error) {
	switch pt := PriceType(strings.ToLower(strings.TrimSpace(s))); pt {
	case PriceTypeSpot, PriceTypeFixed, PriceTypeVariable:
		return pt, nil
	default:
		return "", fmt.Errorf("unknown price type: %q", s)
	}
}

// Urgency signals how compelling a recommended switch is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ConsumptionProfile describes a user's current electricity situation.
// Owned by the user record; values are entered explicitly, never inferred.
type ConsumptionProfile struct {
	YearlyConsumptionKwh float64          `json:"yearly_consumption_kwh"`
	Zone                 PriceZone        `json:"zone"`
	MonthlyCost          *decimal.Decimal `json:"monthly_cost,omitempty"` // current monthly cost, NOK; nil = unknown
	PriceType            PriceType        `json:"price_type"`
	BindingUntil         *time.Time       `json:"binding_until,omitempty"`
}

// Offer is an immutable snapshot of a provider tariff from one catalog fetch.
type Offer struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Name         string    `json:"name"`
	PriceType    PriceType `json:"price_type"`

	MonthlyFee decimal.Decimal `json:"monthly_fee"` // NOK/month, >= 0

	// MarkupOre is the per-kWh surcharge over spot (øre/kWh) for spot and
	// variable offers. Nil means the offer does not specify one.
	MarkupOre *decimal.Decimal `json:"markup_ore,omitempty"`

	// UnitPriceOre is the flat per-kWh price (øre/kWh) for fixed offers.
	// Nil means unspecified.
	UnitPriceOre *decimal.Decimal `json:"unit_price_ore,omitempty"`

	BindingMonths int  `json:"binding_months"`
	IsPartner     bool `json:"is_partner"`

	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"` // nil = open-ended

	// Zone restricts the offer to one price zone. Nil = available nationwide.
	Zone *PriceZone `json:"zone,omitempty"`
}

// AvailableIn reports whether the offer can be sold in the given zone.
func (o Offer) AvailableIn(zone PriceZone) bool {
	return o.Zone == nil || *o.Zone == zone
}

// ActiveAt reports whether the offer's validity window covers t.
func (o Offer) ActiveAt(t time.Time) bool {
	if t.Before(o.ValidFrom) {
		return false
	}
	return o.ValidUntil == nil || t.Before(*o.ValidUntil)
}
