package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/solademi/account-ledger/internal/domain"
)

const userColumns = `id, name, created_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM account_users WHERE id = $1`, id,
	)

	var u domain.AccountUser
	if err := row.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &u, nil
}

// Create is used by cmd/seed and test fixtures only; the core never writes
// account users.
func (r *UserRepository) Create(ctx context.Context, u *domain.AccountUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_users (id, name, created_at) VALUES ($1, $2, $3)`,
		u.ID, u.Name, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}
