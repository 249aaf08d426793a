package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contract-engine/internal/domain/contract"
	"contract-engine/internal/infrastructure/monitoring"
	"contract-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ contract.Repository = (*ContractRepository)(nil)

var errMsgFormat = "%w: %w"

var dbTracer = otel.Tracer("contract-engine/postgres")

const contractColumns = `c.id, c.issue_date, c.borrower_birth_date, c.disbursed_amount, c.document_number,
        c.borrower_address, c.borrower_phone, c.rate, c.created_at, c.updated_at`

// The read path sees contracts and their installments as one snapshot.
var snapshotTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type ContractRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewContractRepository(db DBPool, logger *slog.Logger) *ContractRepository {
	return &ContractRepository{db: db, logger: logger.With("component", "ContractRepository")}
}

func (r *ContractRepository) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *ContractRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ContractRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *ContractRepository) Create(ctx context.Context, c *contract.Contract, installments []contract.Installment) (_ *contract.Contract, err error) {
	ctx, done := r.observe(ctx, "CreateContract")
	defer func() { done(err) }()

	tx, err := r.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	contractSQL := `
        INSERT INTO contracts (issue_date, borrower_birth_date, disbursed_amount, document_number, borrower_address, borrower_phone, rate, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING id, issue_date, borrower_birth_date, disbursed_amount, document_number, borrower_address, borrower_phone, rate, created_at, updated_at`

	created, err := scanContract(tx.QueryRow(ctx, contractSQL,
		c.IssueDate, c.BorrowerBirthDate, c.DisbursedAmount, c.DocumentNumber,
		c.BorrowerAddress, c.BorrowerPhone, c.Rate,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert contract", "error", err)
		return nil, translateDBError(err, r.logger)
	}

	created.Installments = make([]contract.Installment, 0, len(installments))
	if len(installments) > 0 {
		installmentSQL := `
            INSERT INTO installments (contract_id, number, amount, due_date, created_at, updated_at)
            VALUES ($1, $2, $3, $4, NOW(), NOW())
            RETURNING id`

		batch := &pgx.Batch{}
		for _, inst := range installments {
			batch.Queue(installmentSQL, created.ID, inst.Number, inst.Amount, inst.DueDate)
		}

		results := tx.SendBatch(ctx, batch)
		for i, inst := range installments {
			inst.ContractID = created.ID
			if err = results.QueryRow().Scan(&inst.ID); err != nil {
				results.Close()
				r.logger.ErrorContext(ctx, "Failed executing installment batch insert", "error", err, "entry_index", i, "contract_id", created.ID)
				return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
			}
			created.Installments = append(created.Installments, inst)
		}
		if err = results.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed closing installment batch results", "error", err, "contract_id", created.ID)
			return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
		}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Contract created in DB", "contract_id", created.ID, "num_installments", len(created.Installments))
	return created, nil
}

func (r *ContractRepository) Update(ctx context.Context, contractID int64, patch contract.ContractPatch, installments []contract.InstallmentPayload) (_ *contract.Contract, err error) {
	ctx, done := r.observe(ctx, "UpdateContract")
	defer func() { done(err) }()

	tx, err := r.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	contractSQL := `
        UPDATE contracts SET
            issue_date = COALESCE($2, issue_date),
            borrower_birth_date = COALESCE($3, borrower_birth_date),
            disbursed_amount = COALESCE($4, disbursed_amount),
            document_number = COALESCE($5, document_number),
            borrower_address = COALESCE($6, borrower_address),
            borrower_phone = COALESCE($7, borrower_phone),
            rate = COALESCE($8, rate),
            updated_at = NOW()
        WHERE id = $1
        RETURNING id, issue_date, borrower_birth_date, disbursed_amount, document_number, borrower_address, borrower_phone, rate, created_at, updated_at`

	updated, err := scanContract(tx.QueryRow(ctx, contractSQL, contractID,
		patch.IssueDate, patch.BorrowerBirthDate, patch.DisbursedAmount, patch.DocumentNumber,
		patch.BorrowerAddress, patch.BorrowerPhone, patch.Rate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: contract with ID %d not found", apperrors.ErrNotFound, contractID)
		}
		r.logger.ErrorContext(ctx, "Failed to update contract", "error", err, "contract_id", contractID)
		return nil, translateDBError(err, r.logger)
	}

	for i, payload := range installments {
		if payload.IsNew() {
			err = r.insertInstallment(ctx, tx, payload.ToInstallment(contractID))
		} else {
			err = r.updateInstallment(ctx, tx, contractID, payload)
		}
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to apply installment payload", "error", err, "contract_id", contractID, "entry_index", i)
			return nil, err
		}
	}

	byContract, err := r.loadInstallments(ctx, tx, []int64{contractID})
	if err != nil {
		return nil, err
	}
	updated.Installments = byContract[contractID]
	if updated.Installments == nil {
		updated.Installments = []contract.Installment{}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Contract updated in DB", "contract_id", contractID, "num_installments", len(updated.Installments))
	return updated, nil
}

func (r *ContractRepository) insertInstallment(ctx context.Context, tx pgx.Tx, inst contract.Installment) error {
	sql := `
        INSERT INTO installments (contract_id, number, amount, due_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())`

	if _, err := tx.Exec(ctx, sql, inst.ContractID, inst.Number, inst.Amount, inst.DueDate); err != nil {
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *ContractRepository) updateInstallment(ctx context.Context, tx pgx.Tx, contractID int64, payload contract.InstallmentPayload) error {
	sql := `
        UPDATE installments SET
            number = COALESCE($3, number),
            amount = COALESCE($4, amount),
            due_date = COALESCE($5, due_date),
            updated_at = NOW()
        WHERE id = $1 AND contract_id = $2`

	cmdTag, err := tx.Exec(ctx, sql, *payload.ID, contractID, payload.Number, payload.Amount, payload.DueDate)
	if err != nil {
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: installment with ID %d not found for contract %d", apperrors.ErrNotFound, *payload.ID, contractID)
	}
	return nil
}

func (r *ContractRepository) Delete(ctx context.Context, contractID int64) (err error) {
	ctx, done := r.observe(ctx, "DeleteContract")
	defer func() { done(err) }()

	cmdTag, err := r.db.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, contractID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete contract", "error", err, "contract_id", contractID)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: contract with ID %d not found", apperrors.ErrNotFound, contractID)
	}

	r.logger.InfoContext(ctx, "Contract deleted from DB", "contract_id", contractID)
	return nil
}

func (r *ContractRepository) Query(ctx context.Context, filter contract.Filter) (_ []contract.Contract, err error) {
	ctx, done := r.observe(ctx, "QueryContracts")
	defer func() { done(err) }()

	tx, err := r.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	where, args := buildFilterClause(filter)
	sql := `SELECT ` + contractColumns + `
        FROM contracts c` + where + `
        ORDER BY c.id`

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query contracts", "error", err)
		return nil, translateDBError(err, r.logger)
	}

	contracts := []contract.Contract{}
	ids := []int64{}
	for rows.Next() {
		c, scanErr := scanContract(rows)
		if scanErr != nil {
			rows.Close()
			r.logger.ErrorContext(ctx, "Failed to scan contract row", "error", scanErr)
			return nil, translateDBError(scanErr, r.logger)
		}
		contracts = append(contracts, *c)
		ids = append(ids, c.ID)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger)
	}

	if len(ids) > 0 {
		byContract, loadErr := r.loadInstallments(ctx, tx, ids)
		if loadErr != nil {
			return nil, loadErr
		}
		for i := range contracts {
			if insts, ok := byContract[contracts[i].ID]; ok {
				contracts[i].Installments = insts
			}
		}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "Contracts queried", "count", len(contracts))
	return contracts, nil
}

func (r *ContractRepository) loadInstallments(ctx context.Context, tx pgx.Tx, contractIDs []int64) (map[int64][]contract.Installment, error) {
	sql := `
        SELECT id, contract_id, number, amount, due_date
        FROM installments
        WHERE contract_id = ANY($1)
        ORDER BY contract_id, id`

	rows, err := tx.Query(ctx, sql, contractIDs)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	byContract := make(map[int64][]contract.Installment, len(contractIDs))
	for rows.Next() {
		var inst contract.Installment
		if err := rows.Scan(&inst.ID, &inst.ContractID, &inst.Number, &inst.Amount, &inst.DueDate); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment row", "error", err)
			return nil, translateDBError(err, r.logger)
		}
		byContract[inst.ContractID] = append(byContract[inst.ContractID], inst)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return byContract, nil
}

// observe opens a span for a store operation and returns the function that
// closes it and records the query duration.
func (r *ContractRepository) observe(ctx context.Context, queryName string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := dbTracer.Start(ctx, "ContractRepository."+queryName, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", queryName),
	))
	return ctx, func(err error) {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		monitoring.RecordDBQuery(queryName, status, time.Since(start))
		span.End()
	}
}

// buildFilterClause renders the filter as a WHERE clause. Predicates are emitted in a
// fixed order so logically equal filters produce identical SQL.
func buildFilterClause(f contract.Filter) (string, []any) {
	var conditions []string
	var args []any
	add := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if f.ID != nil {
		add("c.id = $%d", *f.ID)
	}
	if f.DocumentNumber != nil {
		add("c.document_number = $%d", *f.DocumentNumber)
	}
	if f.IssueDate != nil {
		y, m, d := f.IssueDate.Date()
		add("c.issue_date = $%d", time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	}
	if f.State != nil {
		add("c.borrower_address->>'estado' = $%d", *f.State)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "\n        WHERE " + strings.Join(conditions, " AND "), args
}

func scanContract(row pgx.Row) (*contract.Contract, error) {
	var c contract.Contract
	err := row.Scan(
		&c.ID, &c.IssueDate, &c.BorrowerBirthDate, &c.DisbursedAmount, &c.DocumentNumber,
		&c.BorrowerAddress, &c.BorrowerPhone, &c.Rate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		case "23503":
			contextLogger.Warn("Database foreign key violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrNotFound, pgErr.ConstraintName)
		case "23514":
			contextLogger.Warn("Database check constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrValidation, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return apperrors.WrapDatabaseError(err, fmt.Sprintf("database error code %s", pgErr.Code))
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, "database operation failed")
}
