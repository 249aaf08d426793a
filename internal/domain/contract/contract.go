package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Address is stored as a JSON document; the keys are part of the state filter contract.
type Address struct {
	Country string `json:"pais"`
	State   string `json:"estado"`
	City    string `json:"cidade"`
}

type Contract struct {
	ID                int64
	IssueDate         time.Time
	BorrowerBirthDate time.Time
	DisbursedAmount   decimal.Decimal
	DocumentNumber    string
	BorrowerAddress   Address
	BorrowerPhone     string
	Rate              decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Installments      []Installment
}

type Installment struct {
	ID         int64
	ContractID int64
	Number     int
	Amount     decimal.Decimal
	DueDate    time.Time
}

// ContractPatch carries the top-level fields of an update. Nil fields are left unchanged.
type ContractPatch struct {
	IssueDate         *time.Time
	BorrowerBirthDate *time.Time
	DisbursedAmount   *decimal.Decimal
	DocumentNumber    *string
	BorrowerAddress   *Address
	BorrowerPhone     *string
	Rate              *decimal.Decimal
}

func (p ContractPatch) IsEmpty() bool {
	return p.IssueDate == nil && p.BorrowerBirthDate == nil && p.DisbursedAmount == nil &&
		p.DocumentNumber == nil && p.BorrowerAddress == nil && p.BorrowerPhone == nil && p.Rate == nil
}

// InstallmentPayload is one entry of an update. With an ID it overwrites the set fields of
// that installment; without one it creates a new installment and every field is required.
type InstallmentPayload struct {
	ID      *int64
	Number  *int
	Amount  *decimal.Decimal
	DueDate *time.Time
}

func (p InstallmentPayload) IsNew() bool {
	return p.ID == nil
}

// ToInstallment is only meaningful for a validated new payload.
func (p InstallmentPayload) ToInstallment(contractID int64) Installment {
	inst := Installment{ContractID: contractID}
	if p.Number != nil {
		inst.Number = *p.Number
	}
	if p.Amount != nil {
		inst.Amount = *p.Amount
	}
	if p.DueDate != nil {
		inst.DueDate = *p.DueDate
	}
	return inst
}

// Filter is a conjunction of optional predicates. A nil field places no constraint.
type Filter struct {
	ID             *int64
	DocumentNumber *string
	IssueDate      *time.Time
	State          *string
}

func (f Filter) IsEmpty() bool {
	return f.ID == nil && f.DocumentNumber == nil && f.IssueDate == nil && f.State == nil
}

// WithoutID drops the id predicate, which the summary does not expose.
func (f Filter) WithoutID() Filter {
	f.ID = nil
	return f
}

// Matches evaluates the filter against an in-memory contract with the same semantics as the store.
func (f Filter) Matches(c Contract) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.DocumentNumber != nil && c.DocumentNumber != *f.DocumentNumber {
		return false
	}
	if f.IssueDate != nil && c.IssueDate.Format(DateLayout) != f.IssueDate.Format(DateLayout) {
		return false
	}
	if f.State != nil && c.BorrowerAddress.State != *f.State {
		return false
	}
	return true
}
