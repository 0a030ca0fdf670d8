package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"planhub.org/internal/audit"
	"planhub.org/internal/pm"
)

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name      string  `json:"name"`
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		Role      pm.Role `json:"role"`
		CompanyID string  `json:"companyId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.service.CreateUser(r.Context(), actor, pm.CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.create", map[string]any{
		"new_user_id": user.ID,
		"role":        user.Role,
	})
	writeData(w, http.StatusCreated, user)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	users, total, err := a.service.ListUsers(r.Context(), actor, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeList(w, len(users), pm.Paginate(page, total), users)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	user, err := a.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name  *string  `json:"name"`
		Email *string  `json:"email"`
		Role  *pm.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	user, err := a.service.UpdateUser(r.Context(), actor, id, pm.UserUpdate{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.update", map[string]any{
		"target_user_id": id,
	})
	writeData(w, http.StatusOK, user)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.service.DeleteUser(r.Context(), actor, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{
		"target_user_id": id,
	})
	writeMessage(w, http.StatusOK, "user deleted")
}
