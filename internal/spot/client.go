// Package spot fetches hourly Nord Pool spot prices for the Norwegian
// price zones from the public hvakosterstrommen.no API, with a TTL cache
// and a static fallback table for when the API is unreachable.
package spot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"strompris/pkg/market"
	"strompris/pkg/platform"
)

// DefaultBaseURL is the public price API.
const DefaultBaseURL = "https://www.hvakosterstrommen.no/api/v1"

// HourlyPrice is one hour of spot pricing in NOK/kWh.
type HourlyPrice struct {
	NOKPerKwh float64   `json:"NOK_per_kWh"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
}

// DayPrices holds one day of hourly prices for a zone, with aggregates.
type DayPrices struct {
	Zone    market.PriceZone `json:"zone"`
	Date    time.Time        `json:"date"`
	Prices  []HourlyPrice    `json:"prices"`
	Average float64          `json:"average"` // NOK/kWh
	Min     float64          `json:"min"`
	Max     float64          `json:"max"`
}

// Client fetches day prices from the price API.
type Client struct {
	baseURL string
	http    *platform.HTTPClient
	logger  *slog.Logger
}

// NewClient creates a price API client. An empty baseURL selects the
// public endpoint.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    platform.NewHTTPClient(2, 10*time.Second),
		logger:  logger,
	}
}

// FetchDay retrieves the hourly prices for one date and zone. Returns an
// error on any fetch or parse failure; callers degrade to the fallback
// table rather than propagating it.
func (c *Client) FetchDay(ctx context.Context, date time.Time, zone market.PriceZone) (*DayPrices, error) {
	// API path shape: /prices/2026/08-28_NO1.json
	url := fmt.Sprintf("%s/prices/%04d/%02d-%02d_%s.json",
		c.baseURL, date.Year(), int(date.Month()), date.Day(), zone)

	var raw []HourlyPrice
	if err := c.http.GetJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("fetch spot prices for %s: %w", zone, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch spot prices for %s: empty response", zone)
	}

	day := &DayPrices{
		Zone:   zone,
		Date:   date,
		Prices: raw,
		Min:    raw[0].NOKPerKwh,
		Max:    raw[0].NOKPerKwh,
	}
	var sum float64
	for _, p := range raw {
		sum += p.NOKPerKwh
		if p.NOKPerKwh < day.Min {
			day.Min = p.NOKPerKwh
		}
		if p.NOKPerKwh > day.Max {
			day.Max = p.NOKPerKwh
		}
	}
	day.Average = sum / float64(len(raw))

	c.logger.Info("fetched spot prices",
		"zone", zone, "date", date.Format("2006-01-02"),
		"hours", len(raw), "avg_nok_kwh", day.Average)
	return day, nil
}
