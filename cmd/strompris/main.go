// Strømpris CLI - electricity contract comparison core
//
// Usage:
//   strompris compare --zone NO1 --consumption 16000
//   strompris recommend --zone NO1 --consumption 16000 --monthly-cost 1200
//   strompris spot fetch --zone NO1
//   strompris spot ingest --zone NO1
//   strompris spot history --zone NO1 --days 30
//   strompris serve --port 8080
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"strompris/api"
	"strompris/db/clickhouse"
	"strompris/internal/catalog"
	"strompris/internal/estimate"
	"strompris/internal/policy"
	"strompris/internal/recommend"
	"strompris/internal/spot"
	"strompris/pkg/market"
	"strompris/pkg/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	godotenv.Load()
	logger := platform.InitLogger()

	app := &cli.App{
		Name:    "strompris",
		Usage:   "Compare electricity contracts and find switch-worthy offers",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "spot-api-base",
				Value:   spot.DefaultBaseURL,
				Usage:   "Base URL of the spot price API",
				EnvVars: []string{"STROMPRIS_SPOT_API_BASE"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "Postgres DSN for the offer catalog (empty = built-in sample offers)",
				EnvVars: []string{"STROMPRIS_POSTGRES_DSN"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host for spot price history",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "strompris",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			compareCommand(),
			recommendCommand(),
			spotCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		platform.LogFatal(logger, "command failed", err)
	}
}

// =============================================================================
// SHARED FLAGS & WIRING
// =============================================================================

func profileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "zone",
			Aliases:  []string{"z"},
			Usage:    "Price zone (NO1-NO5)",
			Required: true,
		},
		&cli.Float64Flag{
			Name:    "consumption",
			Aliases: []string{"c"},
			Usage:   "Yearly consumption in kWh (0 = national average)",
		},
		&cli.Float64Flag{
			Name:  "monthly-cost",
			Usage: "Current monthly cost in NOK",
		},
		&cli.StringFlag{
			Name:  "price-type",
			Value: "spot",
			Usage: "Current contract price type (spot, fixed, variable)",
		},
		&cli.StringFlag{
			Name:  "binding-until",
			Usage: "Current contract binding end date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "table",
			Usage:   "Output format (table, json)",
		},
	}
}

func buildProfile(c *cli.Context) (market.ConsumptionProfile, error) {
	zone, err := market.ParseZone(c.String("zone"))
	if err != nil {
		return market.ConsumptionProfile{}, err
	}
	priceType, err := market.ParsePriceType(c.String("price-type"))
	if err != nil {
		return market.ConsumptionProfile{}, err
	}

	profile := market.ConsumptionProfile{
		YearlyConsumptionKwh: c.Float64("consumption"),
		Zone:                 zone,
		PriceType:            priceType,
	}
	if cost := c.Float64("monthly-cost"); cost > 0 {
		d := decimal.NewFromFloat(cost)
		profile.MonthlyCost = &d
	}
	if until := c.String("binding-until"); until != "" {
		t, err := time.Parse("2006-01-02", until)
		if err != nil {
			return market.ConsumptionProfile{}, fmt.Errorf("invalid binding-until date: %w", err)
		}
		profile.BindingUntil = &t
	}
	return profile, nil
}

func buildCatalog(c *cli.Context) (catalog.Catalog, func(), error) {
	if dsn := c.String("postgres-dsn"); dsn != "" {
		pg, err := catalog.NewPostgresCatalog(dsn, nil)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	}
	return catalog.NewStaticCatalog(catalog.SampleOffers()), func() {}, nil
}

func buildSpotSource(c *cli.Context) *spot.Source {
	client := spot.NewClient(c.String("spot-api-base"), nil)
	return spot.NewSource(client, spot.NewCache(time.Hour), nil)
}

func buildHistoryStore(c *cli.Context) (*clickhouse.Store, error) {
	return clickhouse.NewStore(&clickhouse.Config{
		Host:     c.String("clickhouse-host"),
		Port:     c.Int("clickhouse-port"),
		Database: c.String("clickhouse-database"),
		Username: c.String("clickhouse-user"),
		Password: c.String("clickhouse-password"),
	})
}

// =============================================================================
// COMPARE COMMAND
// =============================================================================

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:   "compare",
		Usage:  "List active offers ordered by estimated monthly cost",
		Flags:  profileFlags(),
		Action: runCompare,
	}
}

func runCompare(c *cli.Context) error {
	ctx := context.Background()

	profile, err := buildProfile(c)
	if err != nil {
		return err
	}

	cat, cleanup, err := buildCatalog(c)
	if err != nil {
		return fmt.Errorf("failed to open offer catalog: %w", err)
	}
	defer cleanup()

	offers, err := cat.ActiveOffers(ctx, profile.Zone)
	if err != nil {
		return fmt.Errorf("failed to fetch offers: %w", err)
	}

	generator := recommend.NewGenerator(estimate.NewEstimator(buildSpotSource(c), nil), nil)
	rows := generator.CompareOffers(ctx, profile, offers)

	if c.String("format") == "json" {
		return outputJSON(rows)
	}

	fmt.Printf("Offers in %s, cheapest first (estimated for %.0f kWh/year):\n\n",
		profile.Zone, yearlyOrDefault(profile))
	fmt.Printf("%-28s %-14s %12s %12s\n", "OFFER", "PRICE TYPE", "NOK/MONTH", "NOK/YEAR")
	for _, row := range rows {
		fmt.Printf("%-28s %-14s %12d %12d\n",
			truncate(row.Offer.ProviderName+" "+row.Offer.Name, 28),
			row.Offer.PriceType,
			row.EstimatedMonthlyCost,
			row.EstimatedYearlyCost,
		)
	}
	return nil
}

// =============================================================================
// RECOMMEND COMMAND
// =============================================================================

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:   "recommend",
		Usage:  "Show switch recommendations with policy decisions",
		Flags:  profileFlags(),
		Action: runRecommend,
	}
}

func runRecommend(c *cli.Context) error {
	ctx := context.Background()

	profile, err := buildProfile(c)
	if err != nil {
		return err
	}
	if profile.MonthlyCost == nil {
		return fmt.Errorf("--monthly-cost is required for recommendations")
	}

	cat, cleanup, err := buildCatalog(c)
	if err != nil {
		return fmt.Errorf("failed to open offer catalog: %w", err)
	}
	defer cleanup()

	offers, err := cat.ActiveOffers(ctx, profile.Zone)
	if err != nil {
		return fmt.Errorf("failed to fetch offers: %w", err)
	}

	generator := recommend.NewGenerator(estimate.NewEstimator(buildSpotSource(c), nil), nil)
	engine := policy.NewDefaultEngine()

	recs := generator.Recommend(ctx, profile, offers)
	out := make([]api.RecommendedSwitch, len(recs))
	for i, rec := range recs {
		out[i] = api.RecommendedSwitch{
			Recommendation: rec,
			Decision: engine.Evaluate(policy.EvaluationRequest{
				Profile:        profile,
				Offer:          rec.Offer,
				MonthlySavings: rec.MonthlySavings,
				YearlySavings:  rec.YearlySavings,
				SavingsPercent: rec.SavingsPercent,
			}),
		}
	}

	if c.String("format") == "json" {
		return outputJSON(out)
	}

	if len(out) == 0 {
		fmt.Println("No offers beat your current contract by the minimum savings threshold.")
		return nil
	}

	fmt.Printf("Found %d switch-worthy offer(s) in %s:\n", len(out), profile.Zone)
	for _, rs := range out {
		verdict := "keep current contract"
		if rs.Decision.ShouldSwitch {
			verdict = "switch recommended"
		}
		fmt.Printf("\n%s %s — save %d NOK/month (%d NOK/year)\n",
			rs.Offer.ProviderName, rs.Offer.Name, rs.MonthlySavings, rs.YearlySavings)
		fmt.Printf("  score %d/100, urgency %s: %s\n", rs.Decision.Score, rs.Decision.Urgency, verdict)
		for _, reason := range rs.Decision.Reasons {
			fmt.Printf("  - %s\n", reason)
		}
	}
	return nil
}

// =============================================================================
// SPOT COMMANDS
// =============================================================================

func spotCommand() *cli.Command {
	zoneFlag := &cli.StringFlag{
		Name:     "zone",
		Aliases:  []string{"z"},
		Usage:    "Price zone (NO1-NO5)",
		Required: true,
	}
	dateFlag := &cli.StringFlag{
		Name:  "date",
		Usage: "Date (YYYY-MM-DD, default today)",
	}

	return &cli.Command{
		Name:  "spot",
		Usage: "Inspect and record spot prices",
		Subcommands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "Fetch and print hourly prices for a zone",
				Flags:  []cli.Flag{zoneFlag, dateFlag},
				Action: runSpotFetch,
			},
			{
				Name:   "ingest",
				Usage:  "Fetch a day of prices and store it in ClickHouse",
				Flags:  []cli.Flag{zoneFlag, dateFlag},
				Action: runSpotIngest,
			},
			{
				Name:  "history",
				Usage: "Show stored per-day price aggregates",
				Flags: []cli.Flag{
					zoneFlag,
					&cli.IntFlag{Name: "days", Value: 30, Usage: "How many days back"},
				},
				Action: runSpotHistory,
			},
		},
	}
}

func parseDateFlag(c *cli.Context) (time.Time, error) {
	if d := c.String("date"); d != "" {
		return time.Parse("2006-01-02", d)
	}
	return time.Now(), nil
}

func runSpotFetch(c *cli.Context) error {
	zone, err := market.ParseZone(c.String("zone"))
	if err != nil {
		return err
	}
	date, err := parseDateFlag(c)
	if err != nil {
		return err
	}

	client := spot.NewClient(c.String("spot-api-base"), nil)
	day, err := client.FetchDay(context.Background(), date, zone)
	if err != nil {
		return err
	}

	fmt.Printf("Spot prices for %s on %s (NOK/kWh): avg %.4f, min %.4f, max %.4f\n\n",
		zone, date.Format("2006-01-02"), day.Average, day.Min, day.Max)
	for _, p := range day.Prices {
		fmt.Printf("  %s - %s  %.4f\n",
			p.TimeStart.Format("15:04"), p.TimeEnd.Format("15:04"), p.NOKPerKwh)
	}
	return nil
}

func runSpotIngest(c *cli.Context) error {
	ctx := context.Background()

	zone, err := market.ParseZone(c.String("zone"))
	if err != nil {
		return err
	}
	date, err := parseDateFlag(c)
	if err != nil {
		return err
	}

	client := spot.NewClient(c.String("spot-api-base"), nil)
	day, err := client.FetchDay(ctx, date, zone)
	if err != nil {
		return err
	}

	store, err := buildHistoryStore(c)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer store.Close()

	ingestID, err := store.IngestDay(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to ingest prices: %w", err)
	}

	fmt.Printf("Ingested %d hourly samples for %s %s (ingest %s)\n",
		len(day.Prices), zone, date.Format("2006-01-02"), ingestID)
	return nil
}

func runSpotHistory(c *cli.Context) error {
	zone, err := market.ParseZone(c.String("zone"))
	if err != nil {
		return err
	}

	store, err := buildHistoryStore(c)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer store.Close()

	stats, err := store.DailyStats(context.Background(), zone, c.Int("days"))
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Printf("No stored prices for %s in the last %d days\n", zone, c.Int("days"))
		return nil
	}

	fmt.Printf("%-12s %10s %10s %10s %7s\n", "DAY", "AVG", "MIN", "MAX", "HOURS")
	for _, st := range stats {
		fmt.Printf("%-12s %10.4f %10.4f %10.4f %7d\n",
			st.Day.Format("2006-01-02"), st.Average, st.Min, st.Max, st.Hours)
	}
	return nil
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the comparison API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"STROMPRIS_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"STROMPRIS_CORS_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:    "with-history",
				Usage:   "Enable the ClickHouse spot price history endpoints",
				EnvVars: []string{"STROMPRIS_WITH_HISTORY"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := platform.InitLogger()

	cat, cleanup, err := buildCatalog(c)
	if err != nil {
		return fmt.Errorf("failed to open offer catalog: %w", err)
	}
	defer cleanup()

	spotSource := buildSpotSource(c)
	generator := recommend.NewGenerator(estimate.NewEstimator(spotSource, logger), logger)
	engine := policy.NewDefaultEngine()

	var history *clickhouse.Store
	if c.Bool("with-history") {
		history, err = buildHistoryStore(c)
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer history.Close()
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	config := api.DefaultConfig()
	config.Port = c.Int("port")
	config.CORSOrigins = corsOrigins

	server := api.NewServer(cat, spotSource, generator, engine, history, config, logger)
	return server.StartWithGracefulShutdown()
}

// =============================================================================
// HELPERS
// =============================================================================

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yearlyOrDefault(p market.ConsumptionProfile) float64 {
	if p.YearlyConsumptionKwh > 0 {
		return p.YearlyConsumptionKwh
	}
	return estimate.DefaultYearlyConsumptionKwh
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
