// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/oakhamlabs/waypost/internal/model"
	"github.com/oakhamlabs/waypost/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) SetOverride(ctx context.Context, name string, status model.Status) error {
	return querySetOverride(ctx, s.db, name, status)
}

func (s *PostgresStore) ClearOverride(ctx context.Context, name string) error {
	return queryClearOverride(ctx, s.db, name)
}

func (s *PostgresStore) ListOverrides(ctx context.Context) (map[string]model.Status, error) {
	return queryListOverrides(ctx, s.db)
}

func (s *PostgresStore) SaveVirtualNode(ctx context.Context, v *model.VirtualNode) error {
	return querySaveVirtualNode(ctx, s.db, v)
}

func (s *PostgresStore) DeleteVirtualNode(ctx context.Context, name string) error {
	return queryDeleteVirtualNode(ctx, s.db, name)
}

func (s *PostgresStore) ListVirtualNodes(ctx context.Context) ([]*model.VirtualNode, error) {
	return queryListVirtualNodes(ctx, s.db)
}

func (s *PostgresStore) SetComment(ctx context.Context, name, comment string) error {
	return querySetComment(ctx, s.db, name, comment)
}

func (s *PostgresStore) ClearComment(ctx context.Context, name string) error {
	return queryClearComment(ctx, s.db, name)
}

func (s *PostgresStore) ListComments(ctx context.Context) (map[string]string, error) {
	return queryListComments(ctx, s.db)
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txS := &txStore{tx: tx}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) SetOverride(ctx context.Context, name string, status model.Status) error {
	return querySetOverride(ctx, s.tx, name, status)
}

func (s *txStore) ClearOverride(ctx context.Context, name string) error {
	return queryClearOverride(ctx, s.tx, name)
}

func (s *txStore) ListOverrides(ctx context.Context) (map[string]model.Status, error) {
	return queryListOverrides(ctx, s.tx)
}

func (s *txStore) SaveVirtualNode(ctx context.Context, v *model.VirtualNode) error {
	return querySaveVirtualNode(ctx, s.tx, v)
}

func (s *txStore) DeleteVirtualNode(ctx context.Context, name string) error {
	return queryDeleteVirtualNode(ctx, s.tx, name)
}

func (s *txStore) ListVirtualNodes(ctx context.Context) ([]*model.VirtualNode, error) {
	return queryListVirtualNodes(ctx, s.tx)
}

func (s *txStore) SetComment(ctx context.Context, name, comment string) error {
	return querySetComment(ctx, s.tx, name, comment)
}

func (s *txStore) ClearComment(ctx context.Context, name string) error {
	return queryClearComment(ctx, s.tx, name)
}

func (s *txStore) ListComments(ctx context.Context) (map[string]string, error) {
	return queryListComments(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
