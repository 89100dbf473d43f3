package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avel/splitledger/internal/adapter/http/dto"
	"github.com/avel/splitledger/internal/usecase"
)

// SettlementHandler handles settlement-related HTTP requests.
type SettlementHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(ledgerUC *usecase.LedgerUseCase) *SettlementHandler {
	return &SettlementHandler{ledgerUC: ledgerUC}
}

// Create records a settlement payment.
func (h *SettlementHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.RecordSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	settlement, err := h.ledgerUC.RecordSettlement(r.Context(), groupID, input, idempotencyKey(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.SettlementFromDomain(settlement))
}

// List lists a group's settlements with their current status.
func (h *SettlementHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	settlements, err := h.ledgerUC.ListSettlements(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list settlements", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementsFromDomain(settlements))
}

// Get retrieves one settlement.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	settlementID := chi.URLParam(r, "settlementID")

	settlement, err := h.ledgerUC.GetSettlement(r.Context(), groupID, settlementID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Confirm transitions a pending settlement to confirmed. Used by the
// external wallet callback; confirming twice is a no-op.
func (h *SettlementHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	settlementID := chi.URLParam(r, "settlementID")

	settlement, err := h.ledgerUC.ConfirmSettlement(r.Context(), groupID, settlementID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to confirm settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}

// Fail transitions a pending settlement to failed.
func (h *SettlementHandler) Fail(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	settlementID := chi.URLParam(r, "settlementID")

	var req dto.FailSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	settlement, err := h.ledgerUC.FailSettlement(r.Context(), groupID, settlementID, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to fail settlement", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SettlementFromDomain(settlement))
}
