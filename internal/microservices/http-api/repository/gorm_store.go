package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postgres error codes that mean "try the whole transaction again"
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormStore is the relational Store. Postgres in production, any GORM
// dialect in tests.
type GormStore struct {
	db        *gorm.DB
	txTimeout time.Duration
}

func NewGormStore(db *gorm.DB, txTimeout time.Duration) *GormStore {
	return &GormStore{db: db, txTimeout: txTimeout}
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	ctx, cancel := withTxTimeout(ctx, s.txTimeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
	return translateError(ctx, err)
}

func (s *GormStore) View(ctx context.Context, fn func(repo Repository) error) error {
	ctx, cancel := withTxTimeout(ctx, s.txTimeout)
	defer cancel()

	return translateError(ctx, fn(&gormRepository{db: s.db.WithContext(ctx)}))
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the handle for migrations and seeding.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

type gormRepository struct {
	db *gorm.DB
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has it. SQLite
// serialises writers on its own.
func (r *gormRepository) forUpdate() *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.db
}

func withTxTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// translateError maps driver and GORM failures onto the store sentinels.
func translateError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	return err
}

// rowsOrNotFound turns a zero-row update into ErrNotFound.
func rowsOrNotFound(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func firstOrNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
