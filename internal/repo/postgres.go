package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
)

// PostgresStore keeps sheet-shaped tables in two generic relations:
// sheet_tables (registry) and sheet_rows (one JSON array of cells per row,
// row_index 0 being the header).
type PostgresStore struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewPostgresStore(db *dbpg.DB, log *zerolog.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &PostgresStore{db: db, log: log}, nil
}

func (s *PostgresStore) MigrateUp(migrationsDir string) error {
	return s.migrate(migrationsDir, "*.up.sql", false)
}

func (s *PostgresStore) MigrateDown(migrationsDir string) error {
	return s.migrate(migrationsDir, "*.down.sql", true)
}

func (s *PostgresStore) migrate(migrationsDir, pattern string, reverse bool) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		if _, err := s.db.Master.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	s.log.Info().Msgf("Migrations %s applied from %s", pattern, migrationsDir)
	return nil
}

func (s *PostgresStore) EnsureTable(ctx context.Context, name string, header []string) error {
	cells, err := json.Marshal(header)
	if err != nil {
		return err
	}

	tx, err := s.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var created string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sheet_tables (name, frozen_rows)
		VALUES ($1, 1)
		ON CONFLICT (name) DO NOTHING
		RETURNING name
	`, name).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return nil
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to register table %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (table_name, row_index, cells)
		VALUES ($1, 0, $2::jsonb)
	`, name, string(cells)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info().Str("table", name).Msg("table created")
	return nil
}

// exists reads from the master: a lagging replica would report a freshly
// created table as missing.
func (s *PostgresStore) exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.Master.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheet_tables WHERE name = $1`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", name, err)
	}
	return n > 0, nil
}

// AppendRow locks the registry row of the table so concurrent appends take
// distinct row indexes.
func (s *PostgresStore) AppendRow(ctx context.Context, name string, values []string) error {
	cells, err := json.Marshal(normalizeRow(values, len(values)))
	if err != nil {
		return err
	}

	tx, err := s.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, `
		SELECT name
		FROM sheet_tables
		WHERE name = $1
		FOR UPDATE
	`, name).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return ErrTableNotFound
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to lock table %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (table_name, row_index, cells)
		SELECT $1, COALESCE(MAX(row_index) + 1, 0), $2::jsonb
		FROM sheet_rows
		WHERE table_name = $1
	`, name, string(cells)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to append row to %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadAll reads from the master so a row is visible as soon as AppendRow
// returns.
func (s *PostgresStore) ReadAll(ctx context.Context, name string) ([][]string, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTableNotFound
	}

	rows, err := s.db.Master.QueryContext(ctx, `
		SELECT cells
		FROM sheet_rows
		WHERE table_name = $1
		ORDER BY row_index ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row in %s: %w", name, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (s *PostgresStore) WriteCell(ctx context.Context, name string, row, col int, value string) error {
	if row < 1 || col < 0 {
		return checkCell(name, row+1, row, col)
	}

	tx, err := s.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var raw string
	err = tx.QueryRowContext(ctx, `
		SELECT cells
		FROM sheet_rows
		WHERE table_name = $1 AND row_index = $2
		FOR UPDATE
	`, name, row).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return fmt.Errorf("table %s: row %d out of range", name, row)
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to select row %d of %s: %w", row, name, err)
	}

	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("corrupt row in %s: %w", name, err)
	}
	cells = normalizeRow(cells, col+1)
	cells[col] = value
	updated, err := json.Marshal(cells)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE sheet_rows
		SET cells = $3::jsonb
		WHERE table_name = $1 AND row_index = $2
	`, name, row, string(updated)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update row %d of %s: %w", row, name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
