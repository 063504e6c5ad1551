// Package clickhouse stores the history of fetched spot price samples.
// Columnar storage suits the workload: append-only hourly rows, queried as
// per-day aggregates for trend display.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"

	"strompris/internal/spot"
	"strompris/pkg/market"
	"strompris/pkg/platform"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns connection settings from the environment, with
// development defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database: platform.GetEnv("CLICKHOUSE_DATABASE", "strompris"),
		Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		Debug:    platform.GetEnvBool("CLICKHOUSE_DEBUG", false),
	}
}

// DayStats is the per-day aggregate of stored hourly samples for a zone.
type DayStats struct {
	Day     time.Time `json:"day"`
	Zone    string    `json:"zone"`
	Average float64   `json:"average"` // NOK/kWh
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Hours   int       `json:"hours"`
}

// Store persists spot price samples in ClickHouse.
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore opens a connection to ClickHouse.
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// IngestDay batch-inserts one day of hourly samples for a zone. All rows of
// a call share one ingest ID so a re-run of the same day is traceable.
func (s *Store) IngestDay(ctx context.Context, day *spot.DayPrices) (uuid.UUID, error) {
	ingestID := uuid.New()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO spot_prices (
			ingest_id, zone, time_start, time_end, nok_per_kwh, ingested_at
		)
	`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now()
	for _, p := range day.Prices {
		if err := batch.Append(
			ingestID, string(day.Zone), p.TimeStart, p.TimeEnd, p.NOKPerKwh, now,
		); err != nil {
			return uuid.Nil, fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to send batch: %w", err)
	}
	return ingestID, nil
}

// DailyStats returns per-day min/avg/max for a zone over the last `days`
// days, oldest first.
func (s *Store) DailyStats(ctx context.Context, zone market.PriceZone, days int) ([]DayStats, error) {
	if days <= 0 {
		days = 30
	}
	query := `
		SELECT toDate(time_start) AS day,
		       zone,
		       avg(nok_per_kwh) AS avg_price,
		       min(nok_per_kwh) AS min_price,
		       max(nok_per_kwh) AS max_price,
		       count() AS hours
		FROM spot_prices
		WHERE zone = ? AND time_start >= now() - INTERVAL ? DAY
		GROUP BY day, zone
		ORDER BY day ASC
	`
	rows, err := s.conn.Query(ctx, query, string(zone), days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DayStats
	for rows.Next() {
		var st DayStats
		var hours uint64
		if err := rows.Scan(&st.Day, &st.Zone, &st.Average, &st.Min, &st.Max, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		st.Hours = int(hours)
		stats = append(stats, st)
	}
	return stats, nil
}
