package repository

import (
	"context"
	"fmt"

	"github.com/tuanvm/billbot/internal/database"
	"github.com/tuanvm/billbot/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate registers the user on first contact. An existing row keeps its
// timezone; only the display name is refreshed.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID int64, userName, defaultTimezone string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (user_id, user_name, timezone) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = EXCLUDED.user_name
		 RETURNING user_id, user_name, timezone, created_at`,
		userID, userName, defaultTimezone,
	).Scan(&user.UserID, &user.UserName, &user.Timezone, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err, "get or create user")
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, user_name, timezone, created_at FROM users WHERE user_id = $1`,
		userID,
	).Scan(&user.UserID, &user.UserName, &user.Timezone, &user.CreatedAt)
	if err != nil {
		return nil, mapError(err, "get user")
	}
	return user, nil
}

// List returns every registered user, ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT user_id, user_name, timezone, created_at FROM users ORDER BY user_id ASC`,
	)
	if err != nil {
		return nil, mapError(err, "list users")
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.UserID, &user.UserName, &user.Timezone, &user.CreatedAt); err != nil {
			return nil, mapError(err, "scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list users")
	}
	return users, nil
}

func (r *UserRepository) SetTimezone(ctx context.Context, userID int64, timezone string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET timezone = $1 WHERE user_id = $2`,
		timezone, userID,
	)
	if err != nil {
		return mapError(err, "set user timezone")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user timezone: %w", models.ErrNotFound)
	}
	return nil
}
