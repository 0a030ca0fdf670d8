package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"planhub.org/internal/audit"
	"planhub.org/internal/pm"
)

// parsePage reads page/limit from the query string. Unparseable values
// fall back to the defaults rather than failing the request.
func parsePage(r *http.Request) pm.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return pm.NewPageRequest(page, limit)
}

func (a *API) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	company, err := a.service.CreateCompany(r.Context(), req.Name, req.Domain)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.create", map[string]any{
		"company_id": company.ID,
	})
	writeData(w, http.StatusCreated, company)
}

func (a *API) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	companies, total, err := a.service.ListCompanies(r.Context(), page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeList(w, len(companies), pm.Paginate(page, total), companies)
}

func (a *API) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := a.service.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, company)
}

func (a *API) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   *string `json:"name"`
		Domain *string `json:"domain"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	company, err := a.service.UpdateCompany(r.Context(), id, pm.CompanyUpdate{
		Name:   req.Name,
		Domain: req.Domain,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.update", map[string]any{
		"target_company_id": id,
	})
	writeData(w, http.StatusOK, company)
}

func (a *API) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.service.DeleteCompany(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.delete", map[string]any{
		"target_company_id": id,
	})
	writeMessage(w, http.StatusOK, "company deleted")
}
