package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/repository"
)

const userColumns = `id, username, name, email, role, password_hash, created_at, updated_at`

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO user (username, name, email, role, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	return r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			user.Username,
			user.Name,
			user.Email,
			user.Role,
			user.PasswordHash,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", classify(err))
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get inserted id: %w", err)
		}
		user.ID = id
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

// findOne looks a user up by one of the fixed key columns above.
func (r *userRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM user WHERE ` + column + ` = ?`

	var user domain.User
	err := r.db.GetContext(ctx, &user, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found by %s=%v: %w", column, value, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE user
		SET username = ?, name = ?, email = ?, role = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`
	return r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			user.Username,
			user.Name,
			user.Email,
			user.Role,
			user.PasswordHash,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", classify(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("user not found: %d: %w", user.ID, repository.ErrNotFound)
		}
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM user WHERE id = ?`
	return r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", classify(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("user not found: %d: %w", id, repository.ErrNotFound)
		}
		return nil
	})
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := r.db.opContext(ctx)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM user ORDER BY created_at, id`

	var users []*domain.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
