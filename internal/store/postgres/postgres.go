// Package postgres stores forms in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/codec"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds pool settings. Zero values keep pgx defaults.
type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a PostgreSQL-backed form store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to url, verifies the connection and migrates the schema.
func Open(ctx context.Context, url string, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateUp(pool); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("postgres store ready", "database", poolConfig.ConnConfig.Database)
	return &Store{pool: pool}, nil
}

func migrateUp(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const selectForm = `SELECT id, user_id, form_type, tax_year, data, created_at, updated_at FROM forms`

func (s *Store) Create(ctx context.Context, f core.StoredForm) (core.StoredForm, error) {
	data, err := codec.EncodeData(f.Data)
	if err != nil {
		return core.StoredForm{}, err
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO forms (id, user_id, form_type, tax_year, data, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.ID, f.UserID, string(f.FormType), f.TaxYear, data, f.CreatedAt, f.UpdatedAt,
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
	row := s.pool.QueryRow(ctx, selectForm+` WHERE id = $1 AND user_id = $2`, id, userID)
	f, err := scanForm(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE forms SET tax_year = $1, data = $2, updated_at = $3
			 WHERE id = $4 AND user_id = $5`,
			f.TaxYear, data, f.UpdatedAt, f.ID, f.UserID,
		)
		if err != nil {
			return fmt.Errorf("update form: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return core.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM form_mappings WHERE form_id = $1`, f.ID); err != nil {
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, userID string, taxYear *int) ([]core.StoredForm, error) {
	rows, err := s.pool.Query(ctx,
		selectForm+` WHERE user_id = $1 AND ($2::int IS NULL OR tax_year = $2)
		ORDER BY created_at DESC, id DESC`, userID, taxYear)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	forms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.StoredForm, error) {
		return scanForm(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}

	ids := make([]string, len(forms))
	for i, f := range forms {
		ids[i] = f.ID
	}
	byForm, err := s.loadMappings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range forms {
		forms[i].Mappings = byForm[forms[i].ID]
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

	rows, err := s.pool.Query(ctx,
		`SELECT form_id, line, description, schedule, source_field, amount::text
		 FROM form_mappings WHERE form_id = ANY($1) ORDER BY form_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			formID, amount string
			e              core.MappingEntry
		)
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

func insertMappings(ctx context.Context, tx pgx.Tx, formID string, entries []core.MappingEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, e := range entries {
		batch.Queue(
			`INSERT INTO form_mappings (form_id, position, line, description, schedule, source_field, amount)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::numeric)`,
			formID, i, e.Line, e.Description, e.Schedule, e.SourceField, e.Amount.String(),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert mappings: %w", err)
	}
	return nil
}

func scanForm(row pgx.Row) (core.StoredForm, error) {
	var (
		f        core.StoredForm
		formType string
		data     []byte
	)
	if err := row.Scan(&f.ID, &f.UserID, &formType, &f.TaxYear, &data, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.StoredForm{}, err
		}
		return core.StoredForm{}, fmt.Errorf("scan form: %w", err)
	}

	decoded, err := codec.DecodeData(data)
	if err != nil {
		return core.StoredForm{}, err
	}
	f.FormType = core.FormType(formType)
	f.Data = decoded
	f.CreatedAt = f.CreatedAt.UTC()
	f.UpdatedAt = f.UpdatedAt.UTC()
	return f, nil
}
