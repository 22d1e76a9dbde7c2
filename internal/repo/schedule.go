package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crucial707/ipo-schedule/internal/db"
	"github.com/crucial707/ipo-schedule/internal/models"
)

// ScheduleRepo persists the IPO schedule snapshot.
type ScheduleRepo struct {
	DB      *sql.DB
	Dialect db.Dialect

	// now stamps scraped_at; replaced in tests.
	now func() time.Time
}

// NewScheduleRepo returns a ScheduleRepo for a SQLite database.
func NewScheduleRepo(database *sql.DB) *ScheduleRepo {
	return NewScheduleRepoWithDialect(database, db.SQLite)
}

// NewScheduleRepoWithDialect returns a ScheduleRepo that writes SQL for the given dialect.
func NewScheduleRepoWithDialect(database *sql.DB, dialect db.Dialect) *ScheduleRepo {
	return &ScheduleRepo{DB: database, Dialect: dialect, now: time.Now}
}

// Count returns the number of schedules in the current snapshot.
func (r *ScheduleRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM ipo_schedules").Scan(&n)
	return n, err
}

// Replace deletes every stored schedule and inserts records in order, in one transaction.
// On any error the transaction is rolled back and the previous snapshot stays visible.
func (r *ScheduleRepo) Replace(ctx context.Context, records []models.IPOSchedule) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ipo_schedules"); err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	if reset := r.Dialect.ResetIdentity("ipo_schedules"); reset != "" {
		if _, err := tx.ExecContext(ctx, reset); err != nil {
			return fmt.Errorf("reset schedule ids: %w", err)
		}
	}

	if len(records) > 0 {
		stmt, err := tx.PrepareContext(ctx, r.Dialect.Rebind(`
			INSERT INTO ipo_schedules (company_name, start_date, end_date, listing_date, scraped_at)
			VALUES (?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("prepare schedule insert: %w", err)
		}
		defer stmt.Close()

		scrapedAt := r.now().UTC()
		for _, s := range records {
			_, err := stmt.ExecContext(ctx,
				s.CompanyName,
				s.StartDate,
				s.EndDate,
				models.NullDateFrom(s.ListingDate),
				scrapedAt,
			)
			if err != nil {
				return fmt.Errorf("insert schedule %q: %w", s.CompanyName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Query returns schedules ordered by start date. A non-empty company filter keeps only
// rows whose company name contains it (case-sensitive).
func (r *ScheduleRepo) Query(ctx context.Context, company string) ([]models.IPOSchedule, error) {
	query := `
		SELECT id, company_name, start_date, end_date, listing_date, scraped_at
		FROM ipo_schedules
	`
	var args []interface{}
	if company != "" {
		query += " WHERE " + r.Dialect.Contains("company_name")
		args = append(args, company)
	}
	query += " ORDER BY start_date ASC, id ASC"

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.IPOSchedule{}
	for rows.Next() {
		var s models.IPOSchedule
		var listing models.NullDate
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.StartDate, &s.EndDate, &listing, &s.ScrapedAt); err != nil {
			return nil, err
		}
		s.ListingDate = listing.Ptr()
		list = append(list, s)
	}
	return list, rows.Err()
}
