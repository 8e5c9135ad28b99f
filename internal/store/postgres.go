package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trustlens/review-api/internal/apperrors"
	"trustlens/review-api/internal/domain"
	"trustlens/review-api/internal/history"
)

// DBTX is the subset of a pgx pool the repository needs. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Schema creates the history table. Position orders records: the newest
// record carries the highest position. Ids are not unique because imported
// files may repeat them.
const Schema = `
CREATE TABLE IF NOT EXISTS analysis_history (
	position        BIGINT PRIMARY KEY,
	id              TEXT NOT NULL,
	url             TEXT NOT NULL,
	title           TEXT NOT NULL DEFAULT '',
	image           TEXT NOT NULL DEFAULT '',
	trust_score     DOUBLE PRECISION NOT NULL,
	fake_percentage DOUBLE PRECISION NOT NULL,
	total_reviews   INTEGER NOT NULL,
	analyzed_at     TIMESTAMPTZ NOT NULL,
	formatted_date  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS analysis_history_id_idx ON analysis_history (id);`

const historyColumns = `id, url, title, image, trust_score, fake_percentage, total_reviews, analyzed_at, formatted_date`

// PostgresHistory stores history in the analysis_history table.
type PostgresHistory struct {
	pool  DBTX
	limit int
}

// NewPostgresHistory creates a Postgres-backed history capped at limit records.
func NewPostgresHistory(pool DBTX, limit int) *PostgresHistory {
	return &PostgresHistory{pool: pool, limit: normalizeLimit(limit)}
}

// Migrate creates the table if it does not exist.
func (r *PostgresHistory) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate analysis_history: %w", err)
	}
	return nil
}

// Append inserts rec above every existing record and trims past the cap.
func (r *PostgresHistory) Append(ctx context.Context, rec domain.HistoryRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The next position is derived from MAX(position).
	if err := lockHistory(ctx, tx); err != nil {
		return err
	}

	query := `
		INSERT INTO analysis_history (position, ` + historyColumns + `)
		VALUES ((SELECT COALESCE(MAX(position), 0) + 1 FROM analysis_history), $1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.Exec(ctx, query,
		rec.ID,
		rec.URL,
		rec.Title,
		rec.Image,
		rec.TrustScore,
		rec.FakePercentage,
		rec.TotalReviews,
		rec.Date,
		rec.FormattedDate,
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}

	if err := trim(ctx, tx, r.limit); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// List returns every record, newest first.
func (r *PostgresHistory) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	return listRecords(ctx, r.pool)
}

// Get returns the newest record with the given id.
func (r *PostgresHistory) Get(ctx context.Context, id string) (domain.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM analysis_history WHERE id = $1 ORDER BY position DESC LIMIT 1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryRecord{}, apperrors.NotFound("history record", id)
		}
		return domain.HistoryRecord{}, fmt.Errorf("get history record: %w", err)
	}
	return rec, nil
}

// Delete removes the newest record with the given id.
func (r *PostgresHistory) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM analysis_history
		WHERE position = (
			SELECT position FROM analysis_history WHERE id = $1 ORDER BY position DESC LIMIT 1
		)`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("history record", id)
	}
	return nil
}

// Clear removes every record.
func (r *PostgresHistory) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM analysis_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Replace rewrites the table in one transaction.
func (r *PostgresHistory) Replace(ctx context.Context, records []domain.HistoryRecord) error {
	records = capRecords(records, r.limit)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockHistory(ctx, tx); err != nil {
		return err
	}
	if err := rewriteTable(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Import merges imported ahead of the stored records inside one locked
// transaction.
func (r *PostgresHistory) Import(ctx context.Context, imported []domain.HistoryRecord) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := lockHistory(ctx, tx); err != nil {
		return 0, err
	}

	existing, err := listRecords(ctx, tx)
	if err != nil {
		return 0, err
	}

	merged := capRecords(history.Merge(imported, existing), r.limit)
	if err := rewriteTable(ctx, tx, merged); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(merged), nil
}

// Ping checks the connection.
func (r *PostgresHistory) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listRecords(ctx context.Context, q querier) ([]domain.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM analysis_history ORDER BY position DESC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// lockHistory serializes writers for the rest of the transaction. EXCLUSIVE
// mode still admits plain readers.
func lockHistory(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `LOCK TABLE analysis_history IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}
	return nil
}

// rewriteTable replaces the table contents with records, newest first. The
// newest record gets the highest position.
func rewriteTable(ctx context.Context, tx pgx.Tx, records []domain.HistoryRecord) error {
	if _, err := tx.Exec(ctx, `DELETE FROM analysis_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	query := `INSERT INTO analysis_history (position, ` + historyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for i, rec := range records {
		position := int64(len(records) - i)
		_, err := tx.Exec(ctx, query,
			position,
			rec.ID,
			rec.URL,
			rec.Title,
			rec.Image,
			rec.TrustScore,
			rec.FakePercentage,
			rec.TotalReviews,
			rec.Date,
			rec.FormattedDate,
		)
		if err != nil {
			return fmt.Errorf("insert history record: %w", err)
		}
	}
	return nil
}

// trim keeps the newest limit records.
func trim(ctx context.Context, tx pgx.Tx, limit int) error {
	query := `
		DELETE FROM analysis_history
		WHERE position NOT IN (
			SELECT position FROM analysis_history ORDER BY position DESC LIMIT $1
		)`

	if _, err := tx.Exec(ctx, query, limit); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func scanRecord(row pgx.Row) (domain.HistoryRecord, error) {
	var rec domain.HistoryRecord
	err := row.Scan(
		&rec.ID,
		&rec.URL,
		&rec.Title,
		&rec.Image,
		&rec.TrustScore,
		&rec.FakePercentage,
		&rec.TotalReviews,
		&rec.Date,
		&rec.FormattedDate,
	)
	if err == nil {
		rec.Date = rec.Date.UTC()
	}
	return rec, err
}
