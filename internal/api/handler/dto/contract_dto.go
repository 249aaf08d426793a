package dto

import (
	"fmt"
	"strings"
	"time"

	"contract-engine/internal/domain/contract"
	"contract-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

type AddressDTO struct {
	Country string `json:"pais"`
	State   string `json:"estado"`
	City    string `json:"cidade"`
}

// InstallmentRequest is one entry of "parcelas". Amounts accept JSON numbers or numeric strings.
type InstallmentRequest struct {
	ID      *int64           `json:"id,omitempty"`
	Number  *int             `json:"numero_parcela"`
	Amount  *decimal.Decimal `json:"valor_parcela" swaggertype:"string" example:"250.00"`
	DueDate *string          `json:"data_vencimento" example:"2025-02-17"`
}

// ContractRequest is shared by create and update. On create every field is required;
// on update only the fields present are applied. A client-supplied "id" is ignored.
type ContractRequest struct {
	ID                *int64               `json:"id,omitempty"`
	IssueDate         *string              `json:"data_emissao" example:"2025-01-17"`
	BorrowerBirthDate *string              `json:"data_nascimento_tomador" example:"1990-05-20"`
	DisbursedAmount   *decimal.Decimal     `json:"valor_desembolsado" swaggertype:"string" example:"1000.00"`
	DocumentNumber    *string              `json:"numero_documento" example:"12345678901"`
	BorrowerAddress   *AddressDTO          `json:"endereco_tomador"`
	BorrowerPhone     *string              `json:"telefone_tomador" example:"+5519999999999"`
	Rate              *decimal.Decimal     `json:"taxa_contrato" swaggertype:"string" example:"5.00"`
	Installments      []InstallmentRequest `json:"parcelas"`
}

// ToContract builds a new contract. Missing fields are reported as validation errors;
// value rules are enforced by the domain.
func (r *ContractRequest) ToContract() (*contract.Contract, error) {
	switch {
	case r.DisbursedAmount == nil:
		return nil, required("valor_desembolsado")
	case r.DocumentNumber == nil:
		return nil, required("numero_documento")
	case r.BorrowerAddress == nil:
		return nil, required("endereco_tomador")
	case r.BorrowerPhone == nil:
		return nil, required("telefone_tomador")
	case r.Rate == nil:
		return nil, required("taxa_contrato")
	case r.Installments == nil:
		return nil, required("parcelas")
	}

	issueDate, err := parseRequiredDate("data_emissao", r.IssueDate)
	if err != nil {
		return nil, err
	}
	birthDate, err := parseRequiredDate("data_nascimento_tomador", r.BorrowerBirthDate)
	if err != nil {
		return nil, err
	}

	c := &contract.Contract{
		IssueDate:         issueDate,
		BorrowerBirthDate: birthDate,
		DisbursedAmount:   *r.DisbursedAmount,
		DocumentNumber:    strings.TrimSpace(*r.DocumentNumber),
		BorrowerAddress:   r.BorrowerAddress.toDomain(),
		BorrowerPhone:     strings.TrimSpace(*r.BorrowerPhone),
		Rate:              *r.Rate,
		Installments:      make([]contract.Installment, 0, len(r.Installments)),
	}

	for i, inst := range r.Installments {
		prefix := fmt.Sprintf("parcelas[%d].", i)
		if inst.ID != nil {
			return nil, apperrors.NewValidationError(prefix+"id", "must not be set when creating a contract")
		}
		if inst.Number == nil {
			return nil, required(prefix + "numero_parcela")
		}
		if inst.Amount == nil {
			return nil, required(prefix + "valor_parcela")
		}
		dueDate, err := parseRequiredDate(prefix+"data_vencimento", inst.DueDate)
		if err != nil {
			return nil, err
		}
		c.Installments = append(c.Installments, contract.Installment{
			Number:  *inst.Number,
			Amount:  *inst.Amount,
			DueDate: dueDate,
		})
	}

	return c, nil
}

// ToUpdate builds the patch and installment payloads of an update request.
func (r *ContractRequest) ToUpdate() (contract.ContractPatch, []contract.InstallmentPayload, error) {
	var patch contract.ContractPatch
	var err error

	if patch.IssueDate, err = parseOptionalDate("data_emissao", r.IssueDate); err != nil {
		return patch, nil, err
	}
	if patch.BorrowerBirthDate, err = parseOptionalDate("data_nascimento_tomador", r.BorrowerBirthDate); err != nil {
		return patch, nil, err
	}
	patch.DisbursedAmount = r.DisbursedAmount
	patch.Rate = r.Rate
	if r.BorrowerPhone != nil {
		phone := strings.TrimSpace(*r.BorrowerPhone)
		patch.BorrowerPhone = &phone
	}
	if r.DocumentNumber != nil {
		doc := strings.TrimSpace(*r.DocumentNumber)
		patch.DocumentNumber = &doc
	}
	if r.BorrowerAddress != nil {
		addr := r.BorrowerAddress.toDomain()
		patch.BorrowerAddress = &addr
	}

	payloads := make([]contract.InstallmentPayload, 0, len(r.Installments))
	for i, inst := range r.Installments {
		dueDate, err := parseOptionalDate(fmt.Sprintf("parcelas[%d].data_vencimento", i), inst.DueDate)
		if err != nil {
			return patch, nil, err
		}
		payloads = append(payloads, contract.InstallmentPayload{
			ID:      inst.ID,
			Number:  inst.Number,
			Amount:  inst.Amount,
			DueDate: dueDate,
		})
	}

	return patch, payloads, nil
}

func (a *AddressDTO) toDomain() contract.Address {
	return contract.Address{
		Country: strings.TrimSpace(a.Country),
		State:   strings.TrimSpace(a.State),
		City:    strings.TrimSpace(a.City),
	}
}

type InstallmentResponse struct {
	ID      int64  `json:"id"`
	Number  int    `json:"numero_parcela"`
	Amount  string `json:"valor_parcela" example:"250.00"`
	DueDate string `json:"data_vencimento" example:"2025-02-17"`
}

type ContractResponse struct {
	ID                int64                 `json:"id"`
	IssueDate         string                `json:"data_emissao"`
	BorrowerBirthDate string                `json:"data_nascimento_tomador"`
	DisbursedAmount   string                `json:"valor_desembolsado" example:"1000.00"`
	DocumentNumber    string                `json:"numero_documento"`
	BorrowerAddress   AddressDTO            `json:"endereco_tomador"`
	BorrowerPhone     string                `json:"telefone_tomador"`
	Rate              string                `json:"taxa_contrato" example:"5.00"`
	Installments      []InstallmentResponse `json:"parcelas"`
}

func NewContractResponse(c *contract.Contract) ContractResponse {
	if c == nil {
		return ContractResponse{}
	}

	installments := make([]InstallmentResponse, len(c.Installments))
	for i, inst := range c.Installments {
		installments[i] = InstallmentResponse{
			ID:      inst.ID,
			Number:  inst.Number,
			Amount:  inst.Amount.StringFixed(moneyPlaces),
			DueDate: inst.DueDate.Format(contract.DateLayout),
		}
	}

	return ContractResponse{
		ID:                c.ID,
		IssueDate:         c.IssueDate.Format(contract.DateLayout),
		BorrowerBirthDate: c.BorrowerBirthDate.Format(contract.DateLayout),
		DisbursedAmount:   c.DisbursedAmount.StringFixed(moneyPlaces),
		DocumentNumber:    c.DocumentNumber,
		BorrowerAddress: AddressDTO{
			Country: c.BorrowerAddress.Country,
			State:   c.BorrowerAddress.State,
			City:    c.BorrowerAddress.City,
		},
		BorrowerPhone: c.BorrowerPhone,
		Rate:          c.Rate.StringFixed(moneyPlaces),
		Installments:  installments,
	}
}

func NewContractListResponse(contracts []contract.Contract) []ContractResponse {
	resp := make([]ContractResponse, len(contracts))
	for i := range contracts {
		resp[i] = NewContractResponse(&contracts[i])
	}
	return resp
}

type SummaryResponse struct {
	TotalReceivable string `json:"valor_total_a_receber" example:"250.00"`
	TotalDisbursed  string `json:"valor_total_desembolsado" example:"1000.00"`
	ContractCount   int64  `json:"numero_total_de_contratos" example:"1"`
	AverageRate     string `json:"taxa_media_dos_contratos" example:"5.00"`
}

func NewSummaryResponse(s *contract.Summary) SummaryResponse {
	return SummaryResponse{
		TotalReceivable: s.TotalReceivable.StringFixed(moneyPlaces),
		TotalDisbursed:  s.TotalDisbursed.StringFixed(moneyPlaces),
		ContractCount:   s.ContractCount,
		AverageRate:     s.AverageRate.StringFixed(moneyPlaces),
	}
}

func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(contract.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func parseRequiredDate(field string, value *string) (time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return time.Time{}, required(field)
	}
	return ParseDate(field, *value)
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := ParseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func required(field string) error {
	return apperrors.NewValidationError(field, "this field is required")
}
