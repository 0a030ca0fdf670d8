package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"planhub.org/internal/audit"
	"planhub.org/internal/pm"
)

func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		CompanyID   string `json:"companyId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	project, err := a.service.CreateProject(r.Context(), actor, pm.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.create", map[string]any{
		"project_id": project.ID,
	})
	writeData(w, http.StatusCreated, project)
}

func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	projects, total, err := a.service.ListProjects(r.Context(), actor, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeList(w, len(projects), pm.Paginate(page, total), projects)
}

func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	project, err := a.service.GetProject(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, project)
}

func (a *API) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	project, err := a.service.UpdateProject(r.Context(), actor, id, pm.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.update", map[string]any{
		"project_id": id,
	})
	writeData(w, http.StatusOK, project)
}

func (a *API) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.service.DeleteProject(r.Context(), actor, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.delete", map[string]any{
		"project_id": id,
	})
	writeMessage(w, http.StatusOK, "project deleted")
}
