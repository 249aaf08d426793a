package contract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contract-engine/internal/event"
	"contract-engine/internal/infrastructure/monitoring"
	"contract-engine/internal/pkg/apperrors"
	"contract-engine/internal/pkg/caller"
)

type ContractService interface {
	CreateContract(ctx context.Context, c *Contract) (*Contract, error)

	GetContract(ctx context.Context, contractID int64) (*Contract, error)

	ListContracts(ctx context.Context, filter Filter) ([]Contract, error)

	UpdateContract(ctx context.Context, contractID int64, patch ContractPatch, installments []InstallmentPayload) (*Contract, error)

	DeleteContract(ctx context.Context, contractID int64) error

	// Summarize aggregates the contracts matching the filter. The id predicate is ignored.
	// A nil summary with a nil error means the result was degenerate and should be
	// presented as an empty sequence.
	Summarize(ctx context.Context, filter Filter) (*Summary, error)
}

type contractServiceImpl struct {
	repo        Repository
	publisher   event.EventPublisher
	logger      *slog.Logger
	emptyOnZero bool
}

// NewContractService wires the service. publisher may be nil, in which case no events are sent.
func NewContractService(repo Repository, publisher event.EventPublisher, logger *slog.Logger, emptyOnZero bool) ContractService {
	return &contractServiceImpl{
		repo:        repo,
		publisher:   publisher,
		logger:      logger.With("component", "ContractService"),
		emptyOnZero: emptyOnZero,
	}
}

func (s *contractServiceImpl) CreateContract(ctx context.Context, c *Contract) (*Contract, error) {
	logCtx := s.logger.With("caller", caller.FromContext(ctx), "document", c.DocumentNumber)
	logCtx.InfoContext(ctx, "Creating contract", "installments", len(c.Installments))

	if err := c.Validate(); err != nil {
		monitoring.RecordContractOperation("create", "invalid")
		logCtx.WarnContext(ctx, "Contract rejected by validation", slog.Any("error", err))
		return nil, err
	}

	created, err := s.repo.Create(ctx, c, c.Installments)
	if err != nil {
		monitoring.RecordContractOperation("create", "error")
		logCtx.ErrorContext(ctx, "Failed to persist contract", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}
	monitoring.RecordContractOperation("create", "success")
	logCtx.InfoContext(ctx, "Contract created", "contractID", created.ID)

	if s.publisher != nil {
		evt := event.ContractCreatedEvent{
			EventID:   event.NewEventID(),
			Actor:     caller.FromContext(ctx),
			Timestamp: time.Now().UTC(),
			Payload:   eventPayload(created),
		}
		if pubErr := s.publisher.PublishContractCreated(ctx, evt); pubErr != nil {
			logCtx.WarnContext(ctx, "Failed to publish contract created event", "contractID", created.ID, slog.Any("error", pubErr))
		}
	}

	return created, nil
}

func (s *contractServiceImpl) GetContract(ctx context.Context, contractID int64) (*Contract, error) {
	contracts, err := s.repo.Query(ctx, Filter{ID: &contractID})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load contract", "contractID", contractID, slog.Any("error", err))
		return nil, fmt.Errorf("failed to get contract %d: %w", contractID, err)
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: contract with ID %d not found", apperrors.ErrNotFound, contractID)
	}
	return &contracts[0], nil
}

func (s *contractServiceImpl) ListContracts(ctx context.Context, filter Filter) ([]Contract, error) {
	contracts, err := s.repo.Query(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list contracts", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	s.logger.DebugContext(ctx, "Listed contracts", "count", len(contracts))
	return contracts, nil
}

func (s *contractServiceImpl) UpdateContract(ctx context.Context, contractID int64, patch ContractPatch, installments []InstallmentPayload) (*Contract, error) {
	logCtx := s.logger.With("caller", caller.FromContext(ctx), "contractID", contractID)
	logCtx.InfoContext(ctx, "Updating contract", "installments", len(installments))

	if err := patch.Validate(); err != nil {
		monitoring.RecordContractOperation("update", "invalid")
		return nil, err
	}
	for i, p := range installments {
		if err := p.Validate(i); err != nil {
			monitoring.RecordContractOperation("update", "invalid")
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, contractID, patch, installments)
	if err != nil {
		monitoring.RecordContractOperation("update", "error")
		logCtx.WarnContext(ctx, "Failed to update contract", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update contract %d: %w", contractID, err)
	}
	monitoring.RecordContractOperation("update", "success")
	logCtx.InfoContext(ctx, "Contract updated", "installments", len(updated.Installments))

	if s.publisher != nil {
		evt := event.ContractUpdatedEvent{
			EventID:   event.NewEventID(),
			Actor:     caller.FromContext(ctx),
			Timestamp: time.Now().UTC(),
			Payload:   eventPayload(updated),
		}
		if pubErr := s.publisher.PublishContractUpdated(ctx, evt); pubErr != nil {
			logCtx.WarnContext(ctx, "Failed to publish contract updated event", slog.Any("error", pubErr))
		}
	}

	return updated, nil
}

func (s *contractServiceImpl) DeleteContract(ctx context.Context, contractID int64) error {
	logCtx := s.logger.With("caller", caller.FromContext(ctx), "contractID", contractID)

	if err := s.repo.Delete(ctx, contractID); err != nil {
		monitoring.RecordContractOperation("delete", "error")
		logCtx.WarnContext(ctx, "Failed to delete contract", slog.Any("error", err))
		return fmt.Errorf("failed to delete contract %d: %w", contractID, err)
	}
	monitoring.RecordContractOperation("delete", "success")
	logCtx.InfoContext(ctx, "Contract deleted")

	if s.publisher != nil {
		evt := event.ContractDeletedEvent{
			EventID:    event.NewEventID(),
			Actor:      caller.FromContext(ctx),
			Timestamp:  time.Now().UTC(),
			ContractID: contractID,
		}
		if pubErr := s.publisher.PublishContractDeleted(ctx, evt); pubErr != nil {
			logCtx.WarnContext(ctx, "Failed to publish contract deleted event", slog.Any("error", pubErr))
		}
	}
	return nil
}

func (s *contractServiceImpl) Summarize(ctx context.Context, filter Filter) (*Summary, error) {
	contracts, err := s.repo.Query(ctx, filter.WithoutID())
	if err != nil {
		monitoring.RecordSummary("error")
		s.logger.ErrorContext(ctx, "Failed to query contracts for summary", slog.Any("error", err))
		return nil, fmt.Errorf("failed to summarize contracts: %w", err)
	}

	summary := Aggregate(contracts)
	if s.emptyOnZero && summary.IsZero() {
		monitoring.RecordSummary("empty")
		s.logger.DebugContext(ctx, "Summary is degenerate, returning no record")
		return nil, nil
	}

	monitoring.RecordSummary("record")
	s.logger.DebugContext(ctx, "Summary computed", "contracts", summary.ContractCount)
	return &summary, nil
}

func eventPayload(c *Contract) event.ContractEventPayload {
	return event.ContractEventPayload{
		ContractID:       c.ID,
		DocumentNumber:   c.DocumentNumber,
		State:            c.BorrowerAddress.State,
		IssueDate:        c.IssueDate.Format(DateLayout),
		DisbursedAmount:  c.DisbursedAmount.StringFixed(2),
		Rate:             c.Rate.StringFixed(2),
		InstallmentCount: len(c.Installments),
	}
}
