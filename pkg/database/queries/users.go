package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

const analystColumns = `id, username, password_hash, created_at`

// UserRepository stores the analysts allowed to call the API.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.Analyst, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+analystColumns+` FROM analysts WHERE username = $1`, username)
	return scanAnalyst(row)
}

// Create inserts an analyst and returns it with its id and creation time.
// A duplicate username yields ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*models.Analyst, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO analysts (username, password_hash) VALUES ($1, $2) RETURNING `+analystColumns,
		username, passwordHash)

	a, err := scanAnalyst(row)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	return a, err
}

func scanAnalyst(row *sql.Row) (*models.Analyst, error) {
	var a models.Analyst
	switch err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
