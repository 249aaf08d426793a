package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contract-engine/internal/domain/contract"
	"contract-engine/internal/event"
	"contract-engine/internal/infrastructure/monitoring"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshotJob summarizes the whole portfolio, exports it as gauges and
// announces it on the event bus.
type PortfolioSnapshotJob struct {
	service   contract.ContractService
	publisher event.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewPortfolioSnapshotJob(svc contract.ContractService, publisher event.EventPublisher, logger *slog.Logger) *PortfolioSnapshotJob {
	if svc == nil || logger == nil {
		panic("PortfolioSnapshotJob dependencies cannot be nil")
	}
	return &PortfolioSnapshotJob{
		service:   svc,
		publisher: publisher,
		logger:    logger.With("job", "PortfolioSnapshot"),
		now:       time.Now,
	}
}

func (j *PortfolioSnapshotJob) Run(ctx context.Context) error {
	startTime := j.now()
	j.logger.InfoContext(ctx, "Starting portfolio snapshot job.")

	summary, err := j.service.Summarize(ctx, contract.Filter{})
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to summarize portfolio, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to summarize portfolio: %w", err)
	}

	empty := summary == nil || summary.IsZero()
	if summary == nil {
		summary = &contract.Summary{
			TotalReceivable: decimal.Zero,
			TotalDisbursed:  decimal.Zero,
			AverageRate:     decimal.Zero,
		}
	}

	monitoring.SetPortfolio(summary.TotalReceivable, summary.TotalDisbursed, summary.ContractCount, summary.AverageRate)

	if j.publisher != nil {
		evt := event.PortfolioSummarizedEvent{
			EventID:         event.NewEventID(),
			Timestamp:       j.now().UTC(),
			Empty:           empty,
			TotalReceivable: summary.TotalReceivable.StringFixed(2),
			TotalDisbursed:  summary.TotalDisbursed.StringFixed(2),
			ContractCount:   summary.ContractCount,
			AverageRate:     summary.AverageRate.StringFixed(2),
		}
		if pubErr := j.publisher.PublishPortfolioSummarized(ctx, evt); pubErr != nil {
			j.logger.WarnContext(ctx, "Failed to publish portfolio snapshot event", slog.Any("error", pubErr))
		}
	}

	j.logger.InfoContext(ctx, "Portfolio snapshot job finished successfully.",
		slog.Duration("duration", time.Since(startTime)),
		slog.Bool("empty", empty),
		slog.Int64("contracts", summary.ContractCount),
		slog.String("total_receivable", summary.TotalReceivable.StringFixed(2)),
	)
	return nil
}
