package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"contract-engine/internal/domain/contract"
	"contract-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgxmockExpectationsNotMetMsg = "there were unfulfilled expectations"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	issueDate = time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	birthDate = time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC)
	dueDate   = time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC)
	stamp     = time.Date(2025, 1, 17, 12, 0, 0, 0, time.UTC)
	address   = contract.Address{Country: "Brasil", State: "SP", City: "Campinas"}
)

var contractColumnNames = []string{
	"id", "issue_date", "borrower_birth_date", "disbursed_amount", "document_number",
	"borrower_address", "borrower_phone", "rate", "created_at", "updated_at",
}

var installmentColumnNames = []string{"id", "contract_id", "number", "amount", "due_date"}

func setupContractRepo(t *testing.T) (context.Context, *ContractRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewContractRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func contractRow(rows *pgxmock.Rows, id int64, disbursed, rate string) *pgxmock.Rows {
	return rows.AddRow(id, issueDate, birthDate, disbursed, "12345678901", address, "+5519999999999", rate, stamp, stamp)
}

func newContract() *contract.Contract {
	return &contract.Contract{
		IssueDate:         issueDate,
		BorrowerBirthDate: birthDate,
		DisbursedAmount:   decimal.RequireFromString("1000.00"),
		DocumentNumber:    "12345678901",
		BorrowerAddress:   address,
		BorrowerPhone:     "+5519999999999",
		Rate:              decimal.RequireFromString("5.00"),
	}
}

func TestCreateContractWithoutInstallments(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	c := newContract()

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO contracts")).
		WithArgs(c.IssueDate, c.BorrowerBirthDate, c.DisbursedAmount, c.DocumentNumber, c.BorrowerAddress, c.BorrowerPhone, c.Rate).
		WillReturnRows(contractRow(pgxmock.NewRows(contractColumnNames), 7, "1000.00", "5.00"))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	created, err := repo.Create(ctx, c, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, "1000.00", created.DisbursedAmount.StringFixed(2))
	assert.Equal(t, "SP", created.BorrowerAddress.State)
	assert.NotNil(t, created.Installments)
	assert.Empty(t, created.Installments)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateContractWithInstallments(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	c := newContract()
	installments := []contract.Installment{
		{Number: 1, Amount: decimal.RequireFromString("250.00"), DueDate: dueDate},
	}

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO contracts")).
		WithArgs(c.IssueDate, c.BorrowerBirthDate, c.DisbursedAmount, c.DocumentNumber, c.BorrowerAddress, c.BorrowerPhone, c.Rate).
		WillReturnRows(contractRow(pgxmock.NewRows(contractColumnNames), 7, "1000.00", "5.00"))
	batch := mockPool.ExpectBatch()
	batch.ExpectQuery(regexp.QuoteMeta("INSERT INTO installments")).
		WithArgs(int64(7), 1, installments[0].Amount, dueDate).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	created, err := repo.Create(ctx, c, installments)

	require.NoError(t, err)
	require.Len(t, created.Installments, 1)
	assert.Equal(t, int64(11), created.Installments[0].ID)
	assert.Equal(t, int64(7), created.Installments[0].ContractID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateContractRollsBackOnInsertFailure(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO contracts")).
		WillReturnError(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	mockPool.ExpectRollback()

	_, err := repo.Create(ctx, newContract(), nil)

	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestQueryContractsAttachesInstallments(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	state := "SP"
	rows := pgxmock.NewRows(contractColumnNames)
	contractRow(rows, 1, "1000.00", "5.00")
	contractRow(rows, 2, "500.00", "2.00")

	mockPool.ExpectBeginTx(snapshotTxOptions)
	mockPool.ExpectQuery(regexp.QuoteMeta("c.borrower_address->>'estado' = $1")).
		WithArgs(state).
		WillReturnRows(rows)
	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE contract_id = ANY($1)")).
		WithArgs([]int64{1, 2}).
		WillReturnRows(pgxmock.NewRows(installmentColumnNames).
			AddRow(int64(10), int64(1), 1, "250.00", dueDate).
			AddRow(int64(11), int64(1), 2, "250.00", dueDate.AddDate(0, 1, 0)))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	contracts, err := repo.Query(ctx, contract.Filter{State: &state})

	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, int64(1), contracts[0].ID)
	assert.Len(t, contracts[0].Installments, 2)
	assert.Equal(t, int64(2), contracts[1].ID)
	assert.Empty(t, contracts[1].Installments)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestQueryContractsEmptyResult(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBeginTx(snapshotTxOptions)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM contracts c")).
		WillReturnRows(pgxmock.NewRows(contractColumnNames))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	contracts, err := repo.Query(ctx, contract.Filter{})

	require.NoError(t, err)
	assert.NotNil(t, contracts)
	assert.Empty(t, contracts)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateContractNotFound(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	rate := decimal.RequireFromString("6.00")

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET")).
		WithArgs(int64(99), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectRollback()

	_, err := repo.Update(ctx, 99, contract.ContractPatch{Rate: &rate}, nil)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateContractAppliesInstallmentPayloads(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	existingID := int64(10)
	amount := decimal.RequireFromString("260.00")
	number := 2
	newAmount := decimal.RequireFromString("300.00")
	newDue := dueDate.AddDate(0, 1, 0)
	payloads := []contract.InstallmentPayload{
		{ID: &existingID, Amount: &amount},
		{Number: &number, Amount: &newAmount, DueDate: &newDue},
	}

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET")).
		WithArgs(int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(contractRow(pgxmock.NewRows(contractColumnNames), 1, "1000.00", "5.00"))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE installments SET")).
		WithArgs(existingID, int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("INSERT INTO installments")).
		WithArgs(int64(1), number, newAmount, newDue).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectQuery(regexp.QuoteMeta("WHERE contract_id = ANY($1)")).
		WithArgs([]int64{1}).
		WillReturnRows(pgxmock.NewRows(installmentColumnNames).
			AddRow(int64(10), int64(1), 1, "260.00", dueDate).
			AddRow(int64(12), int64(1), 2, "300.00", newDue))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	updated, err := repo.Update(ctx, 1, contract.ContractPatch{}, payloads)

	require.NoError(t, err)
	require.Len(t, updated.Installments, 2)
	assert.Equal(t, "260.00", updated.Installments[0].Amount.StringFixed(2))
	assert.Equal(t, int64(12), updated.Installments[1].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateContractRejectsForeignInstallment(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	foreignID := int64(55)
	amount := decimal.RequireFromString("1.00")

	mockPool.ExpectBeginTx(pgx.TxOptions{})
	mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET")).
		WithArgs(int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(contractRow(pgxmock.NewRows(contractColumnNames), 1, "1000.00", "5.00"))
	mockPool.ExpectExec(regexp.QuoteMeta("UPDATE installments SET")).
		WithArgs(foreignID, int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	_, err := repo.Update(ctx, 1, contract.ContractPatch{}, []contract.InstallmentPayload{{ID: &foreignID, Amount: &amount}})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestDeleteContract(t *testing.T) {
	ctx, repo, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM contracts WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM contracts WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Delete(ctx, 3))
	assert.ErrorIs(t, repo.Delete(ctx, 3), apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestBuildFilterClause(t *testing.T) {
	id := int64(4)
	doc := "12345678901"
	state := "SP"
	issue := time.Date(2025, 1, 17, 18, 45, 0, 0, time.UTC)

	t.Run("empty filter has no clause", func(t *testing.T) {
		where, args := buildFilterClause(contract.Filter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("all predicates", func(t *testing.T) {
		where, args := buildFilterClause(contract.Filter{ID: &id, DocumentNumber: &doc, IssueDate: &issue, State: &state})
		assert.Contains(t, where, "c.id = $1 AND c.document_number = $2 AND c.issue_date = $3 AND c.borrower_address->>'estado' = $4")
		assert.Equal(t, []any{id, doc, issueDate, state}, args)
	})

	t.Run("predicate order does not change the query", func(t *testing.T) {
		a := contract.Filter{State: &state}
		a.DocumentNumber = &doc
		b := contract.Filter{DocumentNumber: &doc}
		b.State = &state

		whereA, argsA := buildFilterClause(a)
		whereB, argsB := buildFilterClause(b)
		assert.Equal(t, whereA, whereB)
		assert.Equal(t, argsA, argsB)
	})
}

func TestTranslateDBError(t *testing.T) {
	assert.Nil(t, translateDBError(nil, logger))
	assert.ErrorIs(t, translateDBError(pgx.ErrNoRows, logger), apperrors.ErrNotFound)
	assert.ErrorIs(t, translateDBError(&pgconn.PgError{Code: "23503"}, logger), apperrors.ErrNotFound)
	assert.ErrorIs(t, translateDBError(&pgconn.PgError{Code: "23505"}, logger), apperrors.ErrAlreadyExists)
	assert.ErrorIs(t, translateDBError(&pgconn.PgError{Code: "23514"}, logger), apperrors.ErrValidation)
	assert.ErrorIs(t, translateDBError(&pgconn.PgError{Code: "42P01"}, logger), apperrors.ErrDatabase)
	assert.ErrorIs(t, translateDBError(errors.New("boom"), logger), apperrors.ErrDatabase)

	var appErr *apperrors.AppError
	require.ErrorAs(t, translateDBError(&pgconn.PgError{Code: "22001"}, logger), &appErr)
	assert.Equal(t, "DB_ERROR", appErr.Code)
	assert.Equal(t, "database error code 22001", appErr.Message)

	encodeErr := errors.New("3000000000 is greater than maximum value for int4")
	err := translateDBError(encodeErr, logger)
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, encodeErr)
}

func TestMigrate(t *testing.T) {
	ctx, _, mockPool := setupContractRepo(t)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS contracts")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback()

	err := Migrate(ctx, mockPool, logger)

	assert.NoError(t, err)
	assert.Contains(t, schemaSQL, "ON DELETE CASCADE")
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
