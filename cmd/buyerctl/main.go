package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/verdantiq/buyerview/backend-go/internal/archive"
	"github.com/verdantiq/buyerview/backend-go/internal/config"
	"github.com/verdantiq/buyerview/backend-go/internal/engine"
	"github.com/verdantiq/buyerview/backend-go/internal/export"
	"github.com/verdantiq/buyerview/backend-go/internal/ingest"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func classifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "inventory",
			Usage:    "Inventory report path (.csv or .xlsx)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "sales",
			Usage: "Sales report path (.csv or .xlsx); omit for zero velocity",
		},
		&cli.IntFlag{
			Name:  "window",
			Usage: "Sales lookback window in days",
			Value: engine.DefaultWindowDays,
		},
		&cli.StringFlag{
			Name:  "room",
			Usage: "Restrict inventory to one room (e.g. Vault)",
		},
		&cli.BoolFlag{
			Name:  "by-attributes",
			Usage: "Group by category/strain/package size instead of item name",
		},
		&cli.StringFlag{
			Name:  "as-of",
			Usage: "Anchor date for days-to-expire (YYYY-MM-DD, default today)",
		},
		&cli.IntFlag{
			Name:  "header-row",
			Usage: "Zero-based header row for XLSX reports with banner rows",
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "buyerctl",
		Usage: "Classify inventory reports and manage buyer view snapshots",
		Commands: []*cli.Command{
			{
				Name:  "classify",
				Usage: "Classify a report pair and write the buyer view CSV",
				Flags: append(classifyFlags(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output CSV path (default: timestamped file in the export dir)",
					},
				),
				Action: runClassify,
			},
			{
				Name:   "seed",
				Usage:  "Classify a report pair and persist the snapshot to the database",
				Flags:  append(classifyFlags(), newDBURLFlag()),
				Action: runSeed,
			},
			{
				Name:  "archive",
				Usage: "Work with archived exports in object storage",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List archived exports",
						Action: runArchiveList,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "prefix",
								Usage: "Key prefix to list under",
								Value: "exports/",
							},
						},
					},
					{
						Name:   "fetch",
						Usage:  "Download an archived export",
						Action: runArchiveFetch,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "key",
								Usage:    "Object key to download",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "dest",
								Usage:    "Local destination path",
								Required: true,
							},
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func classifyReports(c *cli.Context) (*engine.Result, error) {
	headerRow := c.Int("header-row")

	inventory, err := ingest.ReadReportFile(c.String("inventory"), headerRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory report: %w", err)
	}

	var sales engine.Table
	if path := c.String("sales"); path != "" {
		sales, err = ingest.ReadReportFile(path, headerRow)
		if err != nil {
			return nil, fmt.Errorf("failed to read sales report: %w", err)
		}
	}

	opts := engine.Options{
		WindowDays: c.Int("window"),
		Room:       c.String("room"),
	}
	if c.Bool("by-attributes") {
		opts.Grouping = engine.GroupByCategoryStrainSize
	}
	if asOf := c.String("as-of"); asOf != "" {
		t, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			return nil, fmt.Errorf("invalid --as-of date %q: %w", asOf, err)
		}
		opts.AsOf = t
	}

	return engine.Classify(inventory, sales, opts)
}

func runClassify(c *cli.Context) error {
	result, err := classifyReports(c)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		cfg := config.Load()
		path, err := export.WriteBuyerViewFile(cfg.App.ExportDir, result.Items, time.Now())
		if err != nil {
			return err
		}
		log.Printf("Wrote %d items to %s\n", len(result.Items), path)
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	if err := export.WriteBuyerView(f, result.Items); err != nil {
		return err
	}
	log.Printf("Wrote %d items to %s\n", len(result.Items), out)
	return nil
}

const createSnapshotTable = `
	CREATE TABLE IF NOT EXISTS buyer_view_items (
		id BIGSERIAL PRIMARY KEY,
		snapshot_date DATE NOT NULL,
		window_days INT NOT NULL,
		item_name TEXT NOT NULL,
		category TEXT,
		strain TEXT,
		package_size TEXT,
		on_hand_units DOUBLE PRECISION NOT NULL,
		unit_cost DOUBLE PRECISION,
		earliest_expiration DATE,
		days_to_expire DOUBLE PRECISION,
		batches INT NOT NULL,
		total_sold DOUBLE PRECISION NOT NULL,
		daily_run_rate DOUBLE PRECISION NOT NULL,
		avg_weekly_sales DOUBLE PRECISION NOT NULL,
		days_of_supply DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		action TEXT NOT NULL,
		slow_mover_score DOUBLE PRECISION NOT NULL,
		suggested_discount TEXT NOT NULL,
		suggested_po_price DOUBLE PRECISION NOT NULL,
		loaded_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_buyer_view_items_date ON buyer_view_items (snapshot_date);
	CREATE INDEX IF NOT EXISTS idx_buyer_view_items_status ON buyer_view_items (snapshot_date, status);
`

func runSeed(c *cli.Context) error {
	result, err := classifyReports(c)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, createSnapshotTable); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}

	asOf := time.Now()
	if v := c.String("as-of"); v != "" {
		asOf, _ = time.Parse("2006-01-02", v)
	}
	snapshotDate := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM buyer_view_items WHERE snapshot_date = $1::date`, snapshotDate); err != nil {
		return fmt.Errorf("failed to clear existing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO buyer_view_items (
			snapshot_date, window_days, item_name, category, strain, package_size,
			on_hand_units, unit_cost, earliest_expiration, days_to_expire, batches,
			total_sold, daily_run_rate, avg_weekly_sales, days_of_supply,
			status, action, slow_mover_score, suggested_discount, suggested_po_price,
			loaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	loadedAt := time.Now().UTC()
	for i := range result.Items {
		item := &result.Items[i]
		if _, err := stmt.ExecContext(ctx,
			snapshotDate, result.WindowDays,
			item.ItemName, item.Category, item.Strain, item.PackageSize,
			item.OnHandUnits, item.UnitCost, item.EarliestExpiration, item.DaysToExpire, item.Batches,
			item.TotalSold, item.DailyRunRate, item.AvgWeeklySales, item.DaysOfSupply,
			string(item.Status), string(item.Action), item.SlowMoverScore,
			string(item.SuggestedDiscount), item.SuggestedPOPrice,
			loadedAt,
		); err != nil {
			return fmt.Errorf("failed to insert item %q: %w", item.ItemName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Seeded %d items for %s\n", len(result.Items), snapshotDate.Format("2006-01-02"))
	return nil
}

func newArchiveClient() (*archive.MinioClient, error) {
	cfg := config.Load()
	if !cfg.Archive.Enabled {
		return nil, fmt.Errorf("archive storage is not enabled, set ARCHIVE_ENABLED=true")
	}
	return archive.NewMinioClient(cfg.Archive)
}

func runArchiveList(c *cli.Context) error {
	client, err := newArchiveClient()
	if err != nil {
		return err
	}

	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}

	for _, obj := range objects {
		fmt.Printf("%12d  %s\n", obj.Size, obj.Key)
	}
	log.Printf("%d objects\n", len(objects))
	return nil
}

func runArchiveFetch(c *cli.Context) error {
	client, err := newArchiveClient()
	if err != nil {
		return err
	}

	key := c.String("key")
	dest := c.String("dest")
	if err := client.DownloadObject(c.Context, key, dest); err != nil {
		return err
	}

	log.Printf("Downloaded %s to %s\n", key, dest)
	return nil
}
