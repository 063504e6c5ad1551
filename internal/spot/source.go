package spot

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"strompris/pkg/market"
)

// Fetcher retrieves one day of hourly prices for a zone.
type Fetcher interface {
	FetchDay(ctx context.Context, date time.Time, zone market.PriceZone) (*DayPrices, error)
}

// Source combines the price API client with the TTL cache and the static
// fallback table. It is the single spot-price dependency of the estimator:
// lookups never fail, they degrade.
type Source struct {
	fetcher Fetcher
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewSource wires a fetcher and cache into a source. A nil cache gets the
// default one-hour TTL.
func NewSource(fetcher Fetcher, cache *Cache, logger *slog.Logger) *Source {
	if cache == nil {
		cache = NewCache(time.Hour)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

// Day returns today's prices for a zone, from cache when fresh. Returns nil
// when both the cache and the API come up empty.
func (s *Source) Day(ctx context.Context, zone market.PriceZone) *DayPrices {
	if day, ok := s.cache.Get(zone); ok {
		return day
	}

	day, err := s.fetcher.FetchDay(ctx, s.now(), zone)
	if err != nil {
		s.logger.Warn("spot price fetch failed", "zone", zone, "error", err)
		return nil
	}
	s.cache.Put(zone, day)
	return day
}

// AverageOre returns today's average spot price for a zone in øre/kWh.
// On any lookup failure it returns the static fallback price for the zone,
// never an error.
func (s *Source) AverageOre(ctx context.Context, zone market.PriceZone) decimal.Decimal {
	if day := s.Day(ctx, zone); day != nil {
		return decimal.NewFromFloat(day.Average).Mul(decimal.NewFromInt(100))
	}
	ore := FallbackOre(zone)
	s.logger.Warn("using fallback spot price", "zone", zone, "ore_per_kwh", ore)
	return ore
}
