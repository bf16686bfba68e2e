package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (db *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (db *DB) tableExistsQuery() string {
	if db.driver == DriverSQLite {
		return `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = $1)`
	}
	return `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)`
}

func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := db.QueryRowContext(ctx, db.tableExistsQuery(), table).Scan(&exists); err != nil {
		return false, fmt.Errorf("look up table %s: %w", table, err)
	}
	return exists, nil
}

// ServerVersion reports the engine version string, as shown by the
// health endpoint and the migrate command.
func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	q := "SELECT version()"
	if db.driver == DriverSQLite {
		q = "SELECT 'SQLite ' || sqlite_version()"
	}

	var v string
	if err := db.QueryRowContext(ctx, q).Scan(&v); err != nil {
		return "", fmt.Errorf("query server version: %w", err)
	}
	return v, nil
}
