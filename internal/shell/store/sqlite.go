package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/artpar/assetdesk/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sqlx.Open("sqlite3", dsn+sep+"_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Every connection to :memory: is a separate database.
	if strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Custom Field Operations
// =============================================================================

func (s *SQLiteStore) CreateCustomField(ctx context.Context, field *domain.CustomField) error {
	return createCustomField(ctx, s.db, field)
}

func (s *SQLiteStore) GetCustomField(ctx context.Context, tenantID, id string) (*domain.CustomField, error) {
	return getCustomField(ctx, s.db, tenantID, id)
}

func (s *SQLiteStore) UpdateCustomField(ctx context.Context, field *domain.CustomField) error {
	return updateCustomField(ctx, s.db, field)
}

func (s *SQLiteStore) ListCustomFields(ctx context.Context, tenantID string, kind domain.EntityKind, opts ListOptions) ([]domain.CustomField, error) {
	return listCustomFields(ctx, s.db, tenantID, kind, opts)
}

func (s *SQLiteStore) ListActiveCustomFields(ctx context.Context, tenantID string) ([]domain.CustomField, error) {
	return listActiveCustomFields(ctx, s.db, tenantID)
}

// =============================================================================
// Asset Operations
// =============================================================================

func (s *SQLiteStore) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	return createAsset(ctx, s.db, asset)
}

func (s *SQLiteStore) GetAsset(ctx context.Context, tenantID, id string) (*domain.Asset, error) {
	return getAsset(ctx, s.db, tenantID, id)
}

func (s *SQLiteStore) UpdateAsset(ctx context.Context, asset *domain.Asset) error {
	return updateAsset(ctx, s.db, asset)
}

func (s *SQLiteStore) DeleteAsset(ctx context.Context, tenantID, id string) error {
	return deleteAsset(ctx, s.db, tenantID, id)
}

func (s *SQLiteStore) ListAssets(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Asset, error) {
	return listAssets(ctx, s.db, tenantID, opts)
}

// =============================================================================
// Booking Operations
// =============================================================================

// CreateBooking writes the booking and its asset links in one transaction.
func (s *SQLiteStore) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.CreateBooking(ctx, booking)
	})
}

func (s *SQLiteStore) GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	return getBooking(ctx, s.db, tenantID, id)
}

// UpdateBooking rewrites the booking and its asset links in one transaction.
func (s *SQLiteStore) UpdateBooking(ctx context.Context, booking *domain.Booking) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.UpdateBooking(ctx, booking)
	})
}

func (s *SQLiteStore) ListBookings(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Booking, error) {
	return listBookings(ctx, s.db, tenantID, opts)
}

func (s *SQLiteStore) ListBookingsHoldingAssets(ctx context.Context, tenantID string, assetIDs []string) ([]domain.Booking, error) {
	return listBookingsHoldingAssets(ctx, s.db, tenantID, assetIDs)
}

// =============================================================================
// Catalog Operations
// =============================================================================

func (s *SQLiteStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	return createCategory(ctx, s.db, category)
}

func (s *SQLiteStore) GetCategory(ctx context.Context, tenantID, id string) (*domain.Category, error) {
	return getCategory(ctx, s.db, tenantID, id)
}

func (s *SQLiteStore) ListCategories(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Category, error) {
	return listCategories(ctx, s.db, tenantID, opts)
}

func (s *SQLiteStore) CreateLocation(ctx context.Context, location *domain.Location) error {
	return createLocation(ctx, s.db, location)
}

func (s *SQLiteStore) GetLocation(ctx context.Context, tenantID, id string) (*domain.Location, error) {
	return getLocation(ctx, s.db, tenantID, id)
}

func (s *SQLiteStore) ListLocations(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Location, error) {
	return listLocations(ctx, s.db, tenantID, opts)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateCustomField(ctx context.Context, field *domain.CustomField) error {
	return createCustomField(ctx, s.tx, field)
}

func (s *txSQLiteStore) GetCustomField(ctx context.Context, tenantID, id string) (*domain.CustomField, error) {
	return getCustomField(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) UpdateCustomField(ctx context.Context, field *domain.CustomField) error {
	return updateCustomField(ctx, s.tx, field)
}

func (s *txSQLiteStore) ListCustomFields(ctx context.Context, tenantID string, kind domain.EntityKind, opts ListOptions) ([]domain.CustomField, error) {
	return listCustomFields(ctx, s.tx, tenantID, kind, opts)
}

func (s *txSQLiteStore) ListActiveCustomFields(ctx context.Context, tenantID string) ([]domain.CustomField, error) {
	return listActiveCustomFields(ctx, s.tx, tenantID)
}

func (s *txSQLiteStore) CreateAsset(ctx context.Context, asset *domain.Asset) error {
	return createAsset(ctx, s.tx, asset)
}

func (s *txSQLiteStore) GetAsset(ctx context.Context, tenantID, id string) (*domain.Asset, error) {
	return getAsset(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) UpdateAsset(ctx context.Context, asset *domain.Asset) error {
	return updateAsset(ctx, s.tx, asset)
}

func (s *txSQLiteStore) DeleteAsset(ctx context.Context, tenantID, id string) error {
	return deleteAsset(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) ListAssets(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Asset, error) {
	return listAssets(ctx, s.tx, tenantID, opts)
}

func (s *txSQLiteStore) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	return createBooking(ctx, s.tx, booking)
}

func (s *txSQLiteStore) GetBooking(ctx context.Context, tenantID, id string) (*domain.Booking, error) {
	return getBooking(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) UpdateBooking(ctx context.Context, booking *domain.Booking) error {
	return updateBooking(ctx, s.tx, booking)
}

func (s *txSQLiteStore) ListBookings(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Booking, error) {
	return listBookings(ctx, s.tx, tenantID, opts)
}

func (s *txSQLiteStore) ListBookingsHoldingAssets(ctx context.Context, tenantID string, assetIDs []string) ([]domain.Booking, error) {
	return listBookingsHoldingAssets(ctx, s.tx, tenantID, assetIDs)
}

func (s *txSQLiteStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	return createCategory(ctx, s.tx, category)
}

func (s *txSQLiteStore) GetCategory(ctx context.Context, tenantID, id string) (*domain.Category, error) {
	return getCategory(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) ListCategories(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Category, error) {
	return listCategories(ctx, s.tx, tenantID, opts)
}

func (s *txSQLiteStore) CreateLocation(ctx context.Context, location *domain.Location) error {
	return createLocation(ctx, s.tx, location)
}

func (s *txSQLiteStore) GetLocation(ctx context.Context, tenantID, id string) (*domain.Location, error) {
	return getLocation(ctx, s.tx, tenantID, id)
}

func (s *txSQLiteStore) ListLocations(ctx context.Context, tenantID string, opts ListOptions) ([]domain.Location, error) {
	return listLocations(ctx, s.tx, tenantID, opts)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Ping(ctx context.Context) error {
	return nil
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Error Mapping
// =============================================================================

// classifyWriteError maps SQLite constraint failures to store sentinels.
func classifyWriteError(op, entity, id string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey:
			return NewStoreError(op, entity, id, entity+" with this ID already exists", ErrDuplicateID)
		case sqlite3.ErrConstraintUnique:
			return NewStoreError(op, entity, id, entity+" with this name already exists", ErrDuplicateName)
		case sqlite3.ErrConstraintForeignKey:
			return NewStoreError(op, entity, id, "referenced record not found", ErrForeignKey)
		}
	}
	return NewStoreError(op, entity, id, err.Error(), err)
}

// notFoundOr wraps a lookup error, mapping sql.ErrNoRows to ErrNotFound.
func notFoundOr(op, entity, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return NewStoreError(op, entity, id, err.Error(), err)
}

// requireAffected returns ErrNotFound when a write matched no rows.
func requireAffected(op, entity, id string, result sql.Result) error {
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return nil
}

// nullString maps "" to NULL for optional references.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
