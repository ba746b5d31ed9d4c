package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/verdantiq/buyerview/backend-go/internal/domain"
	"github.com/verdantiq/buyerview/backend-go/internal/repository/postgres"
)

// SnapshotRepository persists classified snapshots so buyers can compare a
// day's view against earlier uploads.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
	GetItems(ctx context.Context, date time.Time, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, error)
	GetStatusCounts(ctx context.Context, date time.Time) ([]domain.StatusCount, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
}

type snapshotRepository struct {
	db *postgres.DB
}

func NewSnapshotRepository(db *postgres.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM buyer_view_items WHERE snapshot_date = $1::date`,
			snapshot.Date,
		); err != nil {
			return fmt.Errorf("failed to clear snapshot for %s: %w", snapshot.Date.Format("2006-01-02"), err)
		}

		insert := `
			INSERT INTO buyer_view_items (
				snapshot_date, window_days, item_name, category, strain, package_size,
				on_hand_units, unit_cost, earliest_expiration, days_to_expire, batches,
				total_sold, daily_run_rate, avg_weekly_sales, days_of_supply,
				status, action, slow_mover_score, suggested_discount, suggested_po_price,
				loaded_at
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7, $8, $9, $10, $11,
				$12, $13, $14, $15,
				$16, $17, $18, $19, $20,
				$21
			)
		`

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for i := range snapshot.Items {
			item := &snapshot.Items[i]
			if _, err := stmt.ExecContext(ctx,
				snapshot.Date, snapshot.WindowDays,
				item.ItemName, item.Category, item.Strain, item.PackageSize,
				item.OnHandUnits, item.UnitCost, item.EarliestExpiration, item.DaysToExpire, item.Batches,
				item.TotalSold, item.DailyRunRate, item.AvgWeeklySales, item.DaysOfSupply,
				string(item.Status), string(item.Action), item.SlowMoverScore,
				string(item.SuggestedDiscount), item.SuggestedPOPrice,
				snapshot.LoadedAt,
			); err != nil {
				return fmt.Errorf("failed to insert snapshot item %q: %w", item.ItemName, err)
			}
		}

		return nil
	})
}

func (r *snapshotRepository) GetItems(ctx context.Context, date time.Time, filter domain.BuyerViewFilter) ([]domain.ItemSummary, int, error) {
	countQuery := `
        SELECT COUNT(*)
        FROM buyer_view_items
        WHERE snapshot_date = $1::date
    `

	query := `
        SELECT
            item_name, category, strain, package_size,
            on_hand_units, unit_cost, earliest_expiration, days_to_expire, batches,
            total_sold, daily_run_rate, avg_weekly_sales, days_of_supply,
            status, action, slow_mover_score, suggested_discount, suggested_po_price
        FROM buyer_view_items
        WHERE snapshot_date = $1::date
    `

	args := []interface{}{date}
	conditions, condArgs := itemFilterConditions(filter, 2)
	args = append(args, condArgs...)
	argCounter := 2 + len(condArgs)

	if len(conditions) > 0 {
		whereClause := " AND " + strings.Join(conditions, " AND ")
		query += whereClause
		countQuery += whereClause
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting snapshot items: %w", err)
	}

	query += " ORDER BY item_name"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.PageSize, offset)
	}

	var items []domain.ItemSummary
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error getting snapshot items: %w", err)
	}

	return items, total, nil
}

// itemFilterConditions builds the WHERE tail shared by the count and page
// queries. Positional args start at argStart. The status label is
// canonicalized so "reorder" matches the stored "Reorder" badge, the same
// way the in-memory filter treats it; unknown labels add no condition.
func itemFilterConditions(filter domain.BuyerViewFilter, argStart int) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCounter := argStart

	if status, ok := domain.ParseBuyerStatus(filter.Status); ok {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, string(status))
		argCounter++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", argCounter))
		args = append(args, filter.Category)
		argCounter++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("item_name ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Search+"%")
		argCounter++
	}

	if days := filter.Expiration.Days(); days > 0 {
		conditions = append(conditions, fmt.Sprintf("days_to_expire < $%d", argCounter))
		args = append(args, days)
		argCounter++
	}

	if filter.MinDOH > 0 {
		conditions = append(conditions, fmt.Sprintf("days_of_supply >= $%d", argCounter))
		args = append(args, filter.MinDOH)
		argCounter++
	}

	return conditions, args
}

func (r *snapshotRepository) GetStatusCounts(ctx context.Context, date time.Time) ([]domain.StatusCount, error) {
	query := `
        SELECT
            status,
            COUNT(*) as count
        FROM buyer_view_items
        WHERE snapshot_date = $1::date
        GROUP BY status
        ORDER BY count DESC
    `

	var counts []domain.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, date); err != nil {
		return nil, fmt.Errorf("error getting status counts: %w", err)
	}

	return counts, nil
}

func (r *snapshotRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT snapshot_date
		FROM buyer_view_items
		ORDER BY snapshot_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}

	return dates, nil
}
