package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `CREATE TABLE IF NOT EXISTS sheet_rows (
	sheet TEXT NOT NULL,
	row_no BIGINT NOT NULL,
	cells TEXT NOT NULL,
	PRIMARY KEY (sheet, row_no)
)`

// QueryObserver receives the duration of each store round trip.
type QueryObserver func(label string, duration time.Duration)

// SQLStore persists tables as JSON-encoded rows in a single sheet_rows table.
// It runs on postgres and sqlite3; placeholders are rebound per driver.
type SQLStore struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB, observer QueryObserver) *SQLStore {
	return &SQLStore{db: db, observer: observer}
}

// Migrate creates the backing table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate sheet_rows: %w", err)
	}
	return nil
}

// EnsureHeader implements Store.
func (s *SQLStore) EnsureHeader(ctx context.Context, table string, header []string) error {
	defer s.observe("ensure_header", time.Now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ensure header %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.lock(ctx, tx, table); err != nil {
		return err
	}
	var count int
	if err := tx.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM sheet_rows WHERE sheet = ?"), table); err != nil {
		return fmt.Errorf("count rows %s: %w", table, err)
	}
	if count > 0 {
		return tx.Commit()
	}
	if err := s.insertRows(ctx, tx, table, 1, [][]string{header}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit header %s: %w", table, err)
	}
	return nil
}

// AppendRows implements Store. All rows go out in a single INSERT inside one
// transaction so a failed append leaves no partial batch behind.
func (s *SQLStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	defer s.observe("append_rows", time.Now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.lock(ctx, tx, table); err != nil {
		return err
	}
	var last int64
	if err := tx.GetContext(ctx, &last, s.db.Rebind("SELECT COALESCE(MAX(row_no), 0) FROM sheet_rows WHERE sheet = ?"), table); err != nil {
		return fmt.Errorf("last row %s: %w", table, err)
	}
	if err := s.insertRows(ctx, tx, table, last+1, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append %s: %w", table, err)
	}
	return nil
}

// Values implements Store.
func (s *SQLStore) Values(ctx context.Context, table string) ([][]string, error) {
	defer s.observe("values", time.Now())
	var raw []string
	query := s.db.Rebind("SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY row_no")
	if err := s.db.SelectContext(ctx, &raw, query, table); err != nil {
		return nil, fmt.Errorf("select rows %s: %w", table, err)
	}
	if len(raw) == 0 {
		return nil, ErrTableNotFound
	}
	values := make([][]string, 0, len(raw))
	for i, cells := range raw {
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("decode %s row %d: %w", table, i+1, err)
		}
		values = append(values, row)
	}
	return values, nil
}

// Overwrite implements Store.
func (s *SQLStore) Overwrite(ctx context.Context, table string, body [][]string) error {
	defer s.observe("overwrite", time.Now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin overwrite %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.lock(ctx, tx, table); err != nil {
		return err
	}
	var count int
	if err := tx.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM sheet_rows WHERE sheet = ? AND row_no = 1"), table); err != nil {
		return fmt.Errorf("check header %s: %w", table, err)
	}
	if count == 0 {
		return ErrTableNotFound
	}
	if _, err := tx.ExecContext(ctx, s.db.Rebind("DELETE FROM sheet_rows WHERE sheet = ? AND row_no > 1"), table); err != nil {
		return fmt.Errorf("clear body %s: %w", table, err)
	}
	if len(body) > 0 {
		if err := s.insertRows(ctx, tx, table, 2, body); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit overwrite %s: %w", table, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// lock serialises writers of one table on postgres. sqlite3 already allows a
// single writer at a time.
func (s *SQLStore) lock(ctx context.Context, tx *sqlx.Tx, table string) error {
	if s.db.DriverName() != "postgres" {
		return nil
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", table); err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	return nil
}

func (s *SQLStore) insertRows(ctx context.Context, tx *sqlx.Tx, table string, firstRow int64, rows [][]string) error {
	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*3)
	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode %s row: %w", table, err)
		}
		placeholders = append(placeholders, "(?, ?, ?)")
		args = append(args, table, firstRow+int64(i), string(cells))
	}
	query := s.db.Rebind("INSERT INTO sheet_rows (sheet, row_no, cells) VALUES " + strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert rows %s: %w", table, err)
	}
	return nil
}

func (s *SQLStore) observe(label string, start time.Time) {
	if s.observer != nil {
		s.observer(label, time.Since(start))
	}
}
