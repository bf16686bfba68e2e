package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

const versionTable = "schema_migrations"

// Migrator applies the embedded schema files for the connected driver.
// Applied files are recorded in schema_migrations and skipped on later runs.
type Migrator struct {
	db  *DB
	dir string
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{db: db, dir: path.Join("migrations", db.driver)}
}

// Run applies every pending migration in name order, each in its own
// transaction, and returns the names it applied.
func (m *Migrator) Run(ctx context.Context) ([]string, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range pending {
		if err := m.apply(ctx, name); err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return pending, nil
}

// Files lists the migration files for the connected driver in apply order.
func (m *Migrator) Files() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, m.dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && path.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Pending returns the migration files not yet recorded as applied.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	files, err := m.Files()
	if err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range files {
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + versionTable + ` (
		name       VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", versionTable, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	done := make(map[string]bool)

	exists, err := m.db.TableExists(ctx, versionTable)
	if err != nil || !exists {
		return done, err
	}

	rows, err := m.db.QueryContext(ctx, `SELECT name FROM `+versionTable)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, name string) error {
	body, err := fs.ReadFile(migrationsFS, path.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil
	}

	logrus.WithFields(logrus.Fields{"driver": m.db.driver, "file": name}).Info("Applying migration")

	return m.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+versionTable+` (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("record: %w", err)
		}
		return nil
	})
}
