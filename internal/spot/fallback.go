package spot

import (
	"github.com/shopspring/decimal"

	"strompris/pkg/market"
)

// fallbackOrePerKwh holds representative per-zone prices (øre/kWh) used
// when the price API is unavailable. An approximate number beats no number:
// the estimate stays available and self-corrects on the next fetch.
// Southern zones trade high, NO4 in the north trades low.
var fallbackOrePerKwh = map[market.PriceZone]decimal.Decimal{
	market.ZoneNO1: decimal.NewFromInt(85),
	market.ZoneNO2: decimal.NewFromInt(90),
	market.ZoneNO3: decimal.NewFromInt(60),
	market.ZoneNO4: decimal.NewFromInt(35),
	market.ZoneNO5: decimal.NewFromInt(80),
}

// FallbackOre returns the static representative price for a zone in
// øre/kWh. Unknown zones get the NO1 price.
func FallbackOre(zone market.PriceZone) decimal.Decimal {
	if ore, ok := fallbackOrePerKwh[zone]; ok {
		return ore
	}
	return fallbackOrePerKwh[market.ZoneNO1]
}
