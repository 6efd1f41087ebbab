package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// PostgresTransactor はPostgreSQLのトランザクションでLedgerStoresを提供する。
type PostgresTransactor struct {
	db TxBeginner
}

// NewPostgresTransactor はPostgresTransactorを生成する。
func NewPostgresTransactor(db TxBeginner) *PostgresTransactor {
	return &PostgresTransactor{db: db}
}

// WithinTx はfnをトランザクション内で実行する。
// fnがエラーを返した場合はロールバックし、そうでなければコミットする。
func (t *PostgresTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores LedgerStores) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stores := LedgerStores{
		Courses:       NewPostgresCourseRepo(tx),
		Rounds:        NewPostgresRoundRepo(tx),
		PlayedCourses: NewPostgresPlayedCourseRepo(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Transactor = (*PostgresTransactor)(nil)
