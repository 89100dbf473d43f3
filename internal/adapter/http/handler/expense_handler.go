package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avel/splitledger/internal/adapter/http/dto"
	"github.com/avel/splitledger/internal/usecase"
)

// ExpenseHandler handles expense-related HTTP requests.
type ExpenseHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(ledgerUC *usecase.LedgerUseCase) *ExpenseHandler {
	return &ExpenseHandler{ledgerUC: ledgerUC}
}

// Create records a shared expense. Retried requests carrying the same
// Idempotency-Key return the originally recorded expense.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.RecordExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	expense, err := h.ledgerUC.RecordExpense(r.Context(), groupID, input, idempotencyKey(r))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record expense", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.ExpenseFromDomain(expense))
}

// List lists a group's expenses, oldest first.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	expenses, err := h.ledgerUC.ListExpenses(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list expenses", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExpensesFromDomain(expenses))
}
