package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/tuanvm/billbot/internal/models"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapError(nil, "noop"))
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	got := mapError(pgx.ErrNoRows, "get reminder")
	assert.ErrorIs(t, got, models.ErrNotFound)
	assert.NotErrorIs(t, got, models.ErrStoreUnavailable)
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	got := mapError(fmt.Errorf("scan row: %w", pgx.ErrNoRows), "get user")
	assert.ErrorIs(t, got, models.ErrNotFound)
}

func TestMapError_UniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	got := mapError(pgErr, "append send log")
	assert.ErrorIs(t, got, models.ErrDuplicateOccurrence)
	assert.NotErrorIs(t, got, models.ErrStoreUnavailable)
}

func TestMapError_ForeignKeyViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23503", Message: "violates foreign key"}
	got := mapError(pgErr, "create reminder")
	assert.ErrorIs(t, got, models.ErrNotFound)
}

func TestMapError_ContextPassesThrough(t *testing.T) {
	t.Parallel()

	got := mapError(context.Canceled, "list reminders")
	assert.ErrorIs(t, got, context.Canceled)
	assert.NotErrorIs(t, got, models.ErrStoreUnavailable)
}

func TestMapError_IOFailureIsStoreUnavailable(t *testing.T) {
	t.Parallel()

	got := mapError(errors.New("connection refused"), "list reminders")
	assert.ErrorIs(t, got, models.ErrStoreUnavailable)
}
