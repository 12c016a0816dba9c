package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvm/billbot/internal/models"
)

// mapError converts pgx/pgconn errors into the domain taxonomy. Context
// cancellation passes through unmapped.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, models.ErrDuplicateOccurrence)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
	}

	// Anything else is an I/O-level store failure.
	return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
}
