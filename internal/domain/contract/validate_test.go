package contract

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"contract-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validContract() *Contract {
	return &Contract{
		IssueDate:         time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
		BorrowerBirthDate: time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		DisbursedAmount:   dec("1000.00"),
		DocumentNumber:    "12345678901",
		BorrowerAddress:   Address{Country: "Brasil", State: "SP", City: "Campinas"},
		BorrowerPhone:     "+5519999999999",
		Rate:              dec("5.00"),
		Installments: []Installment{
			{Number: 1, Amount: dec("250.00"), DueDate: time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	var vErr *apperrors.ValidationError
	require.True(t, errors.As(err, &vErr))
	return vErr.Field
}

func TestContractValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(c *Contract)
		wantField string
	}{
		{"valid", func(c *Contract) {}, ""},
		{"missing issue date", func(c *Contract) { c.IssueDate = time.Time{} }, "data_emissao"},
		{"missing birth date", func(c *Contract) { c.BorrowerBirthDate = time.Time{} }, "data_nascimento_tomador"},
		{"short document", func(c *Contract) { c.DocumentNumber = "1234" }, "numero_documento"},
		{"long document", func(c *Contract) { c.DocumentNumber = "123456789012345" }, "numero_documento"},
		{"non numeric document", func(c *Contract) { c.DocumentNumber = "123.456.789-01" }, "numero_documento"},
		{"non ascii digits document", func(c *Contract) { c.DocumentNumber = "١٢٣٤٥٦" }, "numero_documento"},
		{"fullwidth digits document", func(c *Contract) { c.DocumentNumber = "１２３４５６７８９０１" }, "numero_documento"},
		{"cnpj length document", func(c *Contract) { c.DocumentNumber = "12345678000199" }, ""},
		{"missing phone", func(c *Contract) { c.BorrowerPhone = " " }, "telefone_tomador"},
		{"long phone", func(c *Contract) { c.BorrowerPhone = strings.Repeat("9", 16) }, "telefone_tomador"},
		{"padded phone over column width", func(c *Contract) { c.BorrowerPhone = " 123456789012345" }, "telefone_tomador"},
		{"multibyte phone within width", func(c *Contract) { c.BorrowerPhone = "+55 (19) 9999·9" }, ""},
		{"missing state", func(c *Contract) { c.BorrowerAddress.State = "" }, "endereco_tomador.estado"},
		{"negative amount", func(c *Contract) { c.DisbursedAmount = dec("-1.00") }, "valor_desembolsado"},
		{"three decimal amount", func(c *Contract) { c.DisbursedAmount = dec("10.001") }, "valor_desembolsado"},
		{"amount beyond column", func(c *Contract) { c.DisbursedAmount = dec("100000000.00") }, "valor_desembolsado"},
		{"largest amount", func(c *Contract) { c.DisbursedAmount = dec("99999999.99") }, ""},
		{"rate beyond column", func(c *Contract) { c.Rate = dec("1000.00") }, "taxa_contrato"},
		{"zero rate", func(c *Contract) { c.Rate = decimal.Zero }, ""},
		{"installment without due date", func(c *Contract) { c.Installments[0].DueDate = time.Time{} }, "parcelas[0].data_vencimento"},
		{"negative installment", func(c *Contract) { c.Installments[0].Amount = dec("-0.01") }, "parcelas[0].valor_parcela"},
		{"installment number beyond integer column", func(c *Contract) { c.Installments[0].Number = 3000000000 }, "parcelas[0].numero_parcela"},
		{"installment number below integer column", func(c *Contract) { c.Installments[0].Number = -3000000000 }, "parcelas[0].numero_parcela"},
		{"largest installment number", func(c *Contract) { c.Installments[0].Number = math.MaxInt32 }, ""},
		{"no installments", func(c *Contract) { c.Installments = nil }, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validContract()
			tc.mutate(c)

			err := c.Validate()

			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.wantField, fieldOf(t, err))
		})
	}
}

func TestContractPatchValidate(t *testing.T) {
	doc := "123"
	assert.Equal(t, "numero_documento", fieldOf(t, ContractPatch{DocumentNumber: &doc}.Validate()))

	rate := dec("1.234")
	assert.Equal(t, "taxa_contrato", fieldOf(t, ContractPatch{Rate: &rate}.Validate()))

	assert.NoError(t, ContractPatch{}.Validate())

	phone := "11999999999"
	assert.NoError(t, ContractPatch{BorrowerPhone: &phone}.Validate())

	padded := "  1199999999999999"
	assert.Equal(t, "telefone_tomador", fieldOf(t, ContractPatch{BorrowerPhone: &padded}.Validate()))
}

func TestInstallmentPayloadValidate(t *testing.T) {
	id := int64(3)
	badID := int64(0)
	number := 2
	amount := dec("99.90")
	due := time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

	t.Run("existing installment accepts a partial payload", func(t *testing.T) {
		assert.NoError(t, InstallmentPayload{ID: &id, Amount: &amount}.Validate(0))
	})

	t.Run("new installment requires every field", func(t *testing.T) {
		assert.Equal(t, "parcelas[1].numero_parcela", fieldOf(t, InstallmentPayload{Amount: &amount, DueDate: &due}.Validate(1)))
		assert.Equal(t, "parcelas[1].valor_parcela", fieldOf(t, InstallmentPayload{Number: &number, DueDate: &due}.Validate(1)))
		assert.Equal(t, "parcelas[1].data_vencimento", fieldOf(t, InstallmentPayload{Number: &number, Amount: &amount}.Validate(1)))
		assert.NoError(t, InstallmentPayload{Number: &number, Amount: &amount, DueDate: &due}.Validate(1))
	})

	t.Run("number beyond integer column", func(t *testing.T) {
		huge := 3000000000
		assert.Equal(t, "parcelas[2].numero_parcela", fieldOf(t, InstallmentPayload{ID: &id, Number: &huge}.Validate(2)))
		assert.Equal(t, "parcelas[0].numero_parcela", fieldOf(t, InstallmentPayload{Number: &huge, Amount: &amount, DueDate: &due}.Validate(0)))
	})

	t.Run("non positive id", func(t *testing.T) {
		assert.Equal(t, "parcelas[0].id", fieldOf(t, InstallmentPayload{ID: &badID}.Validate(0)))
	})
}

func TestFilterMatches(t *testing.T) {
	c := *validContract()
	c.ID = 9

	sp := "SP"
	lower := "sp"
	doc := "12345678901"
	issue := time.Date(2025, 1, 17, 15, 30, 0, 0, time.UTC)
	other := int64(10)

	assert.True(t, Filter{}.Matches(c))
	assert.True(t, Filter{State: &sp, DocumentNumber: &doc, IssueDate: &issue}.Matches(c))
	assert.False(t, Filter{State: &lower}.Matches(c), "state is case-sensitive")
	assert.False(t, Filter{ID: &other}.Matches(c))
	assert.True(t, Filter{ID: &other}.WithoutID().Matches(c))
}
