// Package catalog supplies the set of active candidate offers for a price
// zone. Offers are immutable snapshots; each fetch returns fresh copies.
package catalog

import (
	"context"

	"strompris/pkg/market"
)

// Catalog provides the active offers available in a zone.
type Catalog interface {
	ActiveOffers(ctx context.Context, zone market.PriceZone) ([]market.Offer, error)
}
