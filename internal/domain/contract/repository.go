package contract

import "context"

type Repository interface {
	// Create persists the contract and its installments in one transaction.
	Create(ctx context.Context, c *Contract, installments []Installment) (*Contract, error)

	Update(ctx context.Context, contractID int64, patch ContractPatch, installments []InstallmentPayload) (*Contract, error)

	Delete(ctx context.Context, contractID int64) error

	// Query returns every contract matching the filter ordered by id, installments attached.
	Query(ctx context.Context, filter Filter) ([]Contract, error)
}
