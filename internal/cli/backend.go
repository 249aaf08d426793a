package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"contract-engine/internal/config"
	"contract-engine/internal/domain/contract"
	"contract-engine/internal/infrastructure/database/postgres"
	"contract-engine/internal/infrastructure/logging"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresBackend struct {
	pool    *pgxpool.Pool
	service contract.ContractService
	logger  *slog.Logger
}

// OpenPostgresBackend loads configuration from configPath and connects to the
// configured database. Logs go to stderr so stdout stays machine readable.
func OpenPostgresBackend(stderr io.Writer) BackendFactory {
	return func(ctx context.Context, configPath string) (Backend, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading configuration: %w", err)
		}

		logger := logging.NewLoggerTo(cfg.Logger, stderr)
		pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}

		repo := postgres.NewContractRepository(pool, logger)
		return &postgresBackend{
			pool:    pool,
			service: contract.NewContractService(repo, nil, logger, cfg.Summary.EmptyOnZero),
			logger:  logger,
		}, nil
	}
}

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return postgres.Migrate(ctx, b.pool, b.logger)
}

func (b *postgresBackend) Summarize(ctx context.Context, filter contract.Filter) (*contract.Summary, error) {
	return b.service.Summarize(ctx, filter)
}

func (b *postgresBackend) Close() {
	b.pool.Close()
}
