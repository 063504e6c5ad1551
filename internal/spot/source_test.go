package spot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strompris/pkg/market"
)

// stubFetcher serves canned day prices and counts calls.
type stubFetcher struct {
	day   *DayPrices
	err   error
	calls int
}

func (s *stubFetcher) FetchDay(_ context.Context, _ time.Time, zone market.PriceZone) (*DayPrices, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	d := *s.day
	d.Zone = zone
	return &d, nil
}

func TestSourceCachesFetchedDay(t *testing.T) {
	f := &stubFetcher{day: &DayPrices{Average: 0.80}}
	s := NewSource(f, nil, nil)

	first := s.Day(context.Background(), market.ZoneNO1)
	second := s.Day(context.Background(), market.ZoneNO1)

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, f.calls)
}

func TestSourceFetchesPerZone(t *testing.T) {
	f := &stubFetcher{day: &DayPrices{Average: 0.80}}
	s := NewSource(f, nil, nil)

	s.Day(context.Background(), market.ZoneNO1)
	s.Day(context.Background(), market.ZoneNO4)
	assert.Equal(t, 2, f.calls)
}

func TestSourceReturnsNilOnFetchFailure(t *testing.T) {
	f := &stubFetcher{err: errors.New("api down")}
	s := NewSource(f, nil, nil)

	assert.Nil(t, s.Day(context.Background(), market.ZoneNO1))
}

func TestAverageOreConvertsNOKToOre(t *testing.T) {
	f := &stubFetcher{day: &DayPrices{Average: 0.80}}
	s := NewSource(f, nil, nil)

	got := s.AverageOre(context.Background(), market.ZoneNO1)
	assert.True(t, got.Equal(decimal.NewFromInt(80)), "got %s", got)
}

func TestAverageOreFallsBackWhenAPIDown(t *testing.T) {
	f := &stubFetcher{err: errors.New("api down")}
	s := NewSource(f, nil, nil)

	for zone, want := range map[market.PriceZone]int64{
		market.ZoneNO1: 85,
		market.ZoneNO2: 90,
		market.ZoneNO3: 60,
		market.ZoneNO4: 35,
		market.ZoneNO5: 80,
	} {
		got := s.AverageOre(context.Background(), zone)
		assert.True(t, got.Equal(decimal.NewFromInt(want)), "zone %s: got %s", zone, got)
	}
}

func TestFallbackOreUnknownZoneDefaultsToNO1(t *testing.T) {
	got := FallbackOre(market.PriceZone("NO9"))
	assert.True(t, got.Equal(decimal.NewFromInt(85)), "got %s", got)
}

func TestAverageOreRecoversAfterCacheExpiry(t *testing.T) {
	f := &stubFetcher{err: errors.New("api down")}
	s := NewSource(f, nil, nil)

	// First lookup degrades to the fallback.
	got := s.AverageOre(context.Background(), market.ZoneNO3)
	assert.True(t, got.Equal(decimal.NewFromInt(60)))

	// API comes back; failures are never cached, so the next lookup fetches.
	f.err = nil
	f.day = &DayPrices{Average: 0.55}
	got = s.AverageOre(context.Background(), market.ZoneNO3)
	assert.True(t, got.Equal(decimal.NewFromInt(55)), "got %s", got)
}
