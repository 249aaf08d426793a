package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"contract-engine/internal/pkg/apperrors"
)

//go:embed migrations/schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent, so it is
// safe to run on each start.
func Migrate(ctx context.Context, db DBPool, logger *slog.Logger) error {
	logger.InfoContext(ctx, "Applying database schema")

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		logger.ErrorContext(ctx, "Failed to apply schema", slog.Any("error", err))
		return fmt.Errorf("%w: failed to apply schema: %w", apperrors.ErrDatabase, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	logger.InfoContext(ctx, "Database schema is up to date")
	return nil
}
