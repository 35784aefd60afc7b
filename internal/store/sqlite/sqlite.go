// Package sqlite stores forms in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/codec"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite-backed form store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("sqlite store ready", "path", path)
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Create(ctx context.Context, f core.StoredForm) (core.StoredForm, error) {
	data, err := codec.EncodeData(f.Data)
	if err != nil {
		return core.StoredForm{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO forms (id, user_id, form_type, tax_year, data, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.UserID, string(f.FormType), f.TaxYear, string(data),
			f.CreatedAt.UnixNano(), f.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert form: %w", err)
		}
		return insertMappings(ctx, tx, f.ID, f.Mappings)
	})
	if err != nil {
		return core.StoredForm{}, err
	}
	return s.Get(ctx, f.UserID, f.ID)
}

func (s *Store) Get(ctx context.Context, userID, id string) (core.StoredForm, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, form_type, tax_year, data, created_at, updated_at
		 FROM forms WHERE id = ? AND user_id = ?`, id, userID)

	f, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StoredForm{}, core.ErrNotFound
	}
	if err != nil {
		return core.StoredForm{}, err
	}

	byForm, err := s.loadMappings(ctx, []string{f.ID})
	if err != nil {
		return core.StoredForm{}, err
	}
	f.Mappings = byForm[f.ID]
	return f, nil
}

func (s *Store) Update(ctx context.Context, f core.StoredForm) (core.StoredForm, error) {
	data, err := codec.EncodeData(f.Data)
	if err != nil {
		return core.StoredForm{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE forms SET tax_year = ?, data = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			f.TaxYear, string(data), f.UpdatedAt.UnixNano(), f.ID, f.UserID,
		)
		if err != nil {
			return fmt.Errorf("update form: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM form_mappings WHERE form_id = ?`, f.ID); err != nil {
			return fmt.Errorf("clear mappings: %w", err)
		}
		return insertMappings(ctx, tx, f.ID, f.Mappings)
	})
	if err != nil {
		return core.StoredForm{}, err
	}
	return s.Get(ctx, f.UserID, f.ID)
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID string, taxYear *int) ([]core.StoredForm, error) {
	query := `SELECT id, user_id, form_type, tax_year, data, created_at, updated_at
	          FROM forms WHERE user_id = ?`
	args := []any{userID}
	if taxYear != nil {
		query += ` AND tax_year = ?`
		args = append(args, *taxYear)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}

	var forms []core.StoredForm
	var ids []string
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		forms = append(forms, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list forms: %w", err)
	}
	rows.Close()

	byForm, err := s.loadMappings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range forms {
		forms[i].Mappings = byForm[forms[i].ID]
	}
	if forms == nil {
		forms = []core.StoredForm{}
	}
	return forms, nil
}

// loadMappings returns entries keyed by form ID, in position order.
func (s *Store) loadMappings(ctx context.Context, ids []string) (map[string][]core.MappingEntry, error) {
	out := make(map[string][]core.MappingEntry, len(ids))
	for _, id := range ids {
		out[id] = []core.MappingEntry{}
	}
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT form_id, line, description, schedule, source_field, amount
		 FROM form_mappings WHERE form_id IN (`+placeholders+`)
		 ORDER BY form_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var formID, amount string
		var e core.MappingEntry
		if err := rows.Scan(&formID, &e.Line, &e.Description, &e.Schedule, &e.SourceField, &amount); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		if e.Amount, err = codec.ParseAmount(amount); err != nil {
			return nil, err
		}
		out[formID] = append(out[formID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	return out, nil
}

func insertMappings(ctx context.Context, tx *sql.Tx, formID string, entries []core.MappingEntry) error {
	for i, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO form_mappings (form_id, position, line, description, schedule, source_field, amount)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			formID, i, e.Line, e.Description, e.Schedule, e.SourceField, e.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert mapping %s: %w", e.Line, err)
		}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (core.StoredForm, error) {
	var (
		f                core.StoredForm
		formType, data   string
		created, updated int64
	)
	if err := row.Scan(&f.ID, &f.UserID, &formType, &f.TaxYear, &data, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.StoredForm{}, err
		}
		return core.StoredForm{}, fmt.Errorf("scan form: %w", err)
	}

	decoded, err := codec.DecodeData([]byte(data))
	if err != nil {
		return core.StoredForm{}, err
	}
	f.FormType = core.FormType(formType)
	f.Data = decoded
	f.CreatedAt = time.Unix(0, created).UTC()
	f.UpdatedAt = time.Unix(0, updated).UTC()
	return f, nil
}
