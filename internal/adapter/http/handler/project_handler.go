package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/usecase"
)

// ProjectHandler serves the project directory sync endpoints and the
// reconciliation views built on it.
type ProjectHandler struct {
	projects       *usecase.ProjectUseCase
	reconciliation *usecase.ReconciliationUseCase
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *usecase.ProjectUseCase, reconciliation *usecase.ReconciliationUseCase) *ProjectHandler {
	return &ProjectHandler{projects: projects, reconciliation: reconciliation}
}

// Upsert creates or replaces a project.
func (h *ProjectHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	project, err := h.projects.UpsertProject(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, "failed to upsert project", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectFromDomain(project))
}

// Get returns a live project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get project", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectFromDomain(project))
}

// Delete soft-deletes a project. Its payments move to the unassigned bucket.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, "failed to delete project", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpsertMilestone creates or replaces a milestone of a live project.
func (h *ProjectHandler) UpsertMilestone(w http.ResponseWriter, r *http.Request) {
	var req dto.UpsertMilestoneRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput(chi.URLParam(r, "id"), chi.URLParam(r, "milestoneId"))
	milestone, err := h.projects.UpsertMilestone(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to upsert milestone", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MilestoneFromDomain(milestone))
}

// DeleteMilestone soft-deletes a milestone.
func (h *ProjectHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeleteMilestone(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "milestoneId")); err != nil {
		writeDomainError(w, r, "failed to delete milestone", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Financials returns the financial view of one project.
func (h *ProjectHandler) Financials(w http.ResponseWriter, r *http.Request) {
	f, err := h.reconciliation.ProjectFinancials(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to compute project financials", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProjectFinancialsFromDomain(f))
}

// ClientReconciliation returns the reconciliation record of a client.
func (h *ProjectHandler) ClientReconciliation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.reconciliation.ClientReconciliation(r.Context(), chi.URLParam(r, "clientId"))
	if err != nil {
		writeDomainError(w, r, "failed to reconcile client", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClientReconciliationFromDomain(rec))
}
