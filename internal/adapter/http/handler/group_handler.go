package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avel/splitledger/internal/adapter/http/dto"
	"github.com/avel/splitledger/internal/usecase"
)

// GroupHandler handles group-related HTTP requests.
type GroupHandler struct {
	groupUC *usecase.GroupUseCase
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupUC *usecase.GroupUseCase) *GroupHandler {
	return &GroupHandler{groupUC: groupUC}
}

// Create creates a new group.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.groupUC.CreateGroup(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create group", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.GroupFromDomain(group))
}

// Get retrieves a group by ID.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	group, err := h.groupUC.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get group", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// AddMember adds a member to a group.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	var req dto.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	group, err := h.groupUC.AddMember(r.Context(), groupID, req.MemberID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to add member", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupFromDomain(group))
}

// ListMembers lists a group's members in join order.
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group ID", "")
		return
	}

	members, err := h.groupUC.ListMembers(r.Context(), groupID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list members", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.MembersFromDomain(members))
}
