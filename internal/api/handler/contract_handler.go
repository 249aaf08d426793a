package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"contract-engine/internal/api/handler/dto"
	"contract-engine/internal/domain/contract"
	"contract-engine/internal/pkg/apperrors"
	"contract-engine/internal/pkg/caller"

	"github.com/go-chi/chi/v5"
)

type ContractHandler struct {
	service contract.ContractService
	logger  *slog.Logger
}

func NewContractHandler(s contract.ContractService, l *slog.Logger) *ContractHandler {
	if s == nil {
		panic("contract service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ContractHandler{
		service: s,
		logger:  l.With("component", "ContractHandler"),
	}
}

func getContractIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "contratoID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: contratoID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid contratoID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// parseFilter reads the query string criteria. Blank values place no constraint.
func parseFilter(q url.Values, includeID bool) (contract.Filter, error) {
	var f contract.Filter

	if includeID {
		if v := strings.TrimSpace(q.Get("id")); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, apperrors.NewValidationError("id", "must be an integer")
			}
			f.ID = &id
		}
	}
	if v := q.Get("cpf"); v != "" {
		f.DocumentNumber = &v
	}
	if v := strings.TrimSpace(q.Get("data_emissao")); v != "" {
		issueDate, err := dto.ParseDate("data_emissao", v)
		if err != nil {
			return f, err
		}
		f.IssueDate = &issueDate
	}
	if v := q.Get("estado"); v != "" {
		f.State = &v
	}
	return f, nil
}

func (h *ContractHandler) logFailure(r *http.Request, msg string, err error) {
	level := slog.LevelWarn
	if !apperrors.IsClientError(err) {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg, "caller", caller.FromContext(r.Context()), slog.Any("error", err))
}

// ListContracts handles GET /api/contratos
// @Summary List contracts
// @Description Lists contracts with their installments, ordered by id. Every criterion is optional and they combine with AND.
// @Tags Contracts
// @Produce json
// @Param id query int false "Contract ID"
// @Param cpf query string false "Borrower document number" Example(12345678901)
// @Param data_emissao query string false "Issue date (YYYY-MM-DD)" Example(2025-01-17)
// @Param estado query string false "Borrower address state, exact and case-sensitive" Example(SP)
// @Success 200 {array} dto.ContractResponse "Matching contracts"
// @Failure 400 {object} dto.ErrorResponse "Malformed filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos [get]
// @Security BearerAuth
func (h *ContractHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query(), true)
	if err != nil {
		h.logFailure(r, "Invalid contract filter", err)
		respondError(w, err)
		return
	}

	contracts, err := h.service.ListContracts(r.Context(), filter)
	if err != nil {
		h.logFailure(r, "Service failed to list contracts", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contracts listed successfully", slog.Int("count", len(contracts)))
	respondJSON(w, http.StatusOK, dto.NewContractListResponse(contracts))
}

// CreateContract handles POST /api/contratos
// @Summary Create a contract
// @Description Creates a contract and its installments in a single transaction.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param request body dto.ContractRequest true "Contract with parcelas"
// @Success 201 {object} dto.ContractResponse "Contract successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos [post]
// @Security BearerAuth
func (h *ContractHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req dto.ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	c, err := req.ToContract()
	if err != nil {
		h.logFailure(r, "Create contract request rejected", err)
		respondError(w, err)
		return
	}

	created, err := h.service.CreateContract(r.Context(), c)
	if err != nil {
		h.logFailure(r, "Service failed to create contract", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contract created successfully", "contractID", created.ID, "caller", caller.FromContext(r.Context()))
	respondJSON(w, http.StatusCreated, dto.NewContractResponse(created))
}

// GetContract handles GET /api/contratos/{contratoID}
// @Summary Retrieve a contract
// @Tags Contracts
// @Produce json
// @Param contratoID path int true "Contract ID" Minimum(1)
// @Success 200 {object} dto.ContractResponse "Contract with its installments"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID format"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos/{contratoID} [get]
// @Security BearerAuth
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := getContractIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get contract ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	c, err := h.service.GetContract(r.Context(), contractID)
	if err != nil {
		h.logFailure(r, "Service failed to get contract", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContractResponse(c))
}

// UpdateContract handles PUT and PATCH /api/contratos/{contratoID}
// @Summary Update a contract
// @Description Applies the fields present in the body. Installments with an id are updated in place, installments without one are added. Installments not mentioned are left untouched.
// @Tags Contracts
// @Accept json
// @Produce json
// @Param contratoID path int true "Contract ID" Minimum(1)
// @Param request body dto.ContractRequest true "Fields to update"
// @Success 200 {object} dto.ContractResponse "Updated contract with its full installment list"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Contract or installment not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos/{contratoID} [put]
// @Router /api/contratos/{contratoID} [patch]
// @Security BearerAuth
func (h *ContractHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := getContractIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get contract ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.ContractRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	patch, installments, err := req.ToUpdate()
	if err != nil {
		h.logFailure(r, "Update contract request rejected", err)
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateContract(r.Context(), contractID, patch, installments)
	if err != nil {
		h.logFailure(r, "Service failed to update contract", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contract updated successfully", "contractID", contractID, "caller", caller.FromContext(r.Context()))
	respondJSON(w, http.StatusOK, dto.NewContractResponse(updated))
}

// DeleteContract handles DELETE /api/contratos/{contratoID}
// @Summary Delete a contract
// @Description Deletes the contract and all of its installments.
// @Tags Contracts
// @Param contratoID path int true "Contract ID" Minimum(1)
// @Success 204 "Contract deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid contract ID format"
// @Failure 404 {object} dto.ErrorResponse "Contract not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos/{contratoID} [delete]
// @Security BearerAuth
func (h *ContractHandler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := getContractIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get contract ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	if err := h.service.DeleteContract(r.Context(), contractID); err != nil {
		h.logFailure(r, "Service failed to delete contract", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Contract deleted successfully", "contractID", contractID, "caller", caller.FromContext(r.Context()))
	respondJSON(w, http.StatusNoContent, nil)
}

// Summarize handles GET /api/contratos/resumo
// @Summary Contract portfolio summary
// @Description Aggregates the contracts matching the filters: flat sum of installment amounts, sum of disbursed amounts, contract count and mean rate. Answers [] when every aggregate is zero.
// @Tags Contracts
// @Produce json
// @Param cpf query string false "Borrower document number" Example(12345678901)
// @Param data_emissao query string false "Issue date (YYYY-MM-DD)" Example(2025-01-17)
// @Param estado query string false "Borrower address state, exact and case-sensitive" Example(SP)
// @Success 200 {object} dto.SummaryResponse "Summary record, or an empty array when degenerate"
// @Failure 400 {object} dto.ErrorResponse "Malformed filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/contratos/resumo [get]
// @Security BearerAuth
func (h *ContractHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query(), false)
	if err != nil {
		h.logFailure(r, "Invalid summary filter", err)
		respondError(w, err)
		return
	}

	summary, err := h.service.Summarize(r.Context(), filter)
	if err != nil {
		h.logFailure(r, "Service failed to summarize contracts", err)
		respondError(w, err)
		return
	}

	if summary == nil {
		respondJSON(w, http.StatusOK, []dto.SummaryResponse{})
		return
	}
	respondJSON(w, http.StatusOK, dto.NewSummaryResponse(summary))
}
