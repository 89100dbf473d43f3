package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avel/splitledger/internal/adapter/http/dto"
	"github.com/avel/splitledger/internal/usecase"
)

// BalanceHandler serves derived balances, settlement plans and the
// consistency check.
type BalanceHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(ledgerUC *usecase.LedgerUseCase) *BalanceHandler {
	return &BalanceHandler{ledgerUC: ledgerUC}
}

// Get returns a group's net and pairwise balances.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	sheet, err := h.ledgerUC.GetBalances(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute balances", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalancesFromDomain(groupID, sheet))
}

// GetPlan returns the suggested payments that settle the group.
func (h *BalanceHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	plan, err := h.ledgerUC.GetSettlementPlan(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute settlement plan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PlanResponse{GroupID: groupID, Transfers: plan})
}

// CheckConsistency verifies the zero-sum invariant over the group's ledger.
func (h *BalanceHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	result, err := h.ledgerUC.CheckConsistency(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
