package contract

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"contract-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	minDocumentLength = 11
	maxDocumentLength = 14
	maxPhoneLength    = 15

	// NUMERIC(10,2) and NUMERIC(5,2)
	amountIntegerDigits = 8
	rateIntegerDigits   = 3
)

var (
	maxAmount = decimal.New(1, amountIntegerDigits)
	maxRate   = decimal.New(1, rateIntegerDigits)
)

func (c *Contract) Validate() error {
	if c.IssueDate.IsZero() {
		return apperrors.NewValidationError("data_emissao", "this field is required")
	}
	if c.BorrowerBirthDate.IsZero() {
		return apperrors.NewValidationError("data_nascimento_tomador", "this field is required")
	}
	if err := validateDocument(c.DocumentNumber); err != nil {
		return err
	}
	if err := validatePhone(c.BorrowerPhone); err != nil {
		return err
	}
	if err := validateAddress(c.BorrowerAddress); err != nil {
		return err
	}
	if err := validateFixedPoint("valor_desembolsado", c.DisbursedAmount, maxAmount); err != nil {
		return err
	}
	if err := validateFixedPoint("taxa_contrato", c.Rate, maxRate); err != nil {
		return err
	}
	for i, inst := range c.Installments {
		if err := inst.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (i Installment) validate(index int) error {
	prefix := fmt.Sprintf("parcelas[%d].", index)
	if i.DueDate.IsZero() {
		return apperrors.NewValidationError(prefix+"data_vencimento", "this field is required")
	}
	if err := validateInstallmentNumber(prefix, i.Number); err != nil {
		return err
	}
	return validateFixedPoint(prefix+"valor_parcela", i.Amount, maxAmount)
}

func (p ContractPatch) Validate() error {
	if p.IssueDate != nil && p.IssueDate.IsZero() {
		return apperrors.NewValidationError("data_emissao", "must be a valid date")
	}
	if p.BorrowerBirthDate != nil && p.BorrowerBirthDate.IsZero() {
		return apperrors.NewValidationError("data_nascimento_tomador", "must be a valid date")
	}
	if p.DocumentNumber != nil {
		if err := validateDocument(*p.DocumentNumber); err != nil {
			return err
		}
	}
	if p.BorrowerPhone != nil {
		if err := validatePhone(*p.BorrowerPhone); err != nil {
			return err
		}
	}
	if p.BorrowerAddress != nil {
		if err := validateAddress(*p.BorrowerAddress); err != nil {
			return err
		}
	}
	if p.DisbursedAmount != nil {
		if err := validateFixedPoint("valor_desembolsado", *p.DisbursedAmount, maxAmount); err != nil {
			return err
		}
	}
	if p.Rate != nil {
		if err := validateFixedPoint("taxa_contrato", *p.Rate, maxRate); err != nil {
			return err
		}
	}
	return nil
}

func (p InstallmentPayload) Validate(index int) error {
	prefix := fmt.Sprintf("parcelas[%d].", index)
	if p.ID != nil && *p.ID <= 0 {
		return apperrors.NewValidationError(prefix+"id", "must be a positive integer")
	}
	if p.IsNew() {
		switch {
		case p.Number == nil:
			return apperrors.NewValidationError(prefix+"numero_parcela", "this field is required")
		case p.Amount == nil:
			return apperrors.NewValidationError(prefix+"valor_parcela", "this field is required")
		case p.DueDate == nil:
			return apperrors.NewValidationError(prefix+"data_vencimento", "this field is required")
		}
	}
	if p.Number != nil {
		if err := validateInstallmentNumber(prefix, *p.Number); err != nil {
			return err
		}
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return apperrors.NewValidationError(prefix+"data_vencimento", "must be a valid date")
	}
	if p.Amount != nil {
		return validateFixedPoint(prefix+"valor_parcela", *p.Amount, maxAmount)
	}
	return nil
}

func validateDocument(doc string) error {
	for _, r := range doc {
		if r < '0' || r > '9' {
			return apperrors.NewValidationError("numero_documento", "must contain only digits")
		}
	}
	// ASCII digits only, so byte length is character length.
	if len(doc) < minDocumentLength || len(doc) > maxDocumentLength {
		return apperrors.NewValidationError("numero_documento", fmt.Sprintf("must contain %d to %d digits", minDocumentLength, maxDocumentLength))
	}
	return nil
}

// validatePhone checks the value as stored; callers trim it beforehand.
func validatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return apperrors.NewValidationError("telefone_tomador", "this field is required")
	}
	if utf8.RuneCountInString(phone) > maxPhoneLength {
		return apperrors.NewValidationError("telefone_tomador", fmt.Sprintf("must have at most %d characters", maxPhoneLength))
	}
	return nil
}

// numero_parcela is stored as INTEGER.
func validateInstallmentNumber(prefix string, n int) error {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return apperrors.NewValidationError(prefix+"numero_parcela", fmt.Sprintf("must be between %d and %d", math.MinInt32, math.MaxInt32))
	}
	return nil
}

func validateAddress(addr Address) error {
	if strings.TrimSpace(addr.State) == "" {
		return apperrors.NewValidationError("endereco_tomador.estado", "this field is required")
	}
	return nil
}

func validateFixedPoint(field string, value, limit decimal.Decimal) error {
	if value.IsNegative() {
		return apperrors.NewValidationError(field, "must not be negative")
	}
	if !value.Equal(value.Round(2)) {
		return apperrors.NewValidationError(field, "must have at most 2 decimal places")
	}
	if value.GreaterThanOrEqual(limit) {
		return apperrors.NewValidationError(field, fmt.Sprintf("must be less than %s", limit.String()))
	}
	return nil
}
