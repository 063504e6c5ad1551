package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"strompris/pkg/market"
)

// PostgresCatalog reads offers from the offers table. The table is owned
// by the admin/CRUD layer; this side only reads.
type PostgresCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCatalog opens a connection pool against the given DSN.
func NewPostgresCatalog(dsn string, logger *slog.Logger) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalog{db: db, logger: logger}, nil
}

// Ping checks database connectivity.
func (c *PostgresCatalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close releases the connection pool.
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

// ActiveOffers returns offers valid now that are sold nationwide or in the
// given zone.
func (c *PostgresCatalog) ActiveOffers(ctx context.Context, zone market.PriceZone) ([]market.Offer, error) {
	query := `
		SELECT id, provider_id, provider_name, name, price_type,
		       monthly_fee, markup_ore, unit_price_ore,
		       binding_months, is_partner, valid_from, valid_until, zone
		FROM offers
		WHERE valid_from <= now()
		  AND (valid_until IS NULL OR valid_until > now())
		  AND (zone IS NULL OR zone = $1)
		ORDER BY provider_name, name
	`
	rows, err := c.db.QueryContext(ctx, query, string(zone))
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []market.Offer
	for rows.Next() {
		var (
			o          market.Offer
			fee        float64
			markup     sql.NullFloat64
			unitPrice  sql.NullFloat64
			validUntil sql.NullTime
			zoneCol    sql.NullString
		)
		if err := rows.Scan(
			&o.ID, &o.ProviderID, &o.ProviderName, &o.Name, &o.PriceType,
			&fee, &markup, &unitPrice,
			&o.BindingMonths, &o.IsPartner, &o.ValidFrom, &validUntil, &zoneCol,
		); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}

		o.MonthlyFee = decimal.NewFromFloat(fee)
		if markup.Valid {
			d := decimal.NewFromFloat(markup.Float64)
			o.MarkupOre = &d
		}
		if unitPrice.Valid {
			d := decimal.NewFromFloat(unitPrice.Float64)
			o.UnitPriceOre = &d
		}
		if validUntil.Valid {
			t := validUntil.Time
			o.ValidUntil = &t
		}
		if zoneCol.Valid {
			z, zErr := market.ParseZone(zoneCol.String)
			if zErr != nil {
				c.logger.Warn("offer has invalid zone, skipping", "offer", o.ID, "zone", zoneCol.String)
				continue
			}
			o.Zone = &z
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}
