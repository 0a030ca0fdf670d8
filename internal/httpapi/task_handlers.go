package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"planhub.org/internal/audit"
	"planhub.org/internal/pm"
)

// parseStatus reads an optional status filter from the query string.
func parseStatus(r *http.Request) *pm.TaskStatus {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil
	}
	status := pm.TaskStatus(raw)
	return &status
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Status      pm.TaskStatus `json:"status"`
		AssignedTo  string        `json:"assignedTo"`
		ProjectID   string        `json:"projectId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	task, err := a.service.CreateTask(r.Context(), actor, pm.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "task.create", map[string]any{
		"task_id":    task.ID,
		"project_id": task.ProjectID,
	})
	writeData(w, http.StatusCreated, task)
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	q := r.URL.Query()
	tasks, total, err := a.service.ListTasks(r.Context(), actor, pm.TaskListOptions{
		Status:     parseStatus(r),
		AssignedTo: q.Get("assignedTo"),
		ProjectID:  q.Get("projectId"),
	}, page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeList(w, len(tasks), pm.Paginate(page, total), tasks)
}

func (a *API) handleListMyTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	tasks, total, err := a.service.ListMyTasks(r.Context(), actor, parseStatus(r), page)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeList(w, len(tasks), pm.Paginate(page, total), tasks)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	task, err := a.service.GetTask(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, task)
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		Status      *pm.TaskStatus `json:"status"`
		AssignedTo  *string        `json:"assignedTo"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	task, err := a.service.UpdateTask(r.Context(), actor, id, pm.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "task.update", map[string]any{
		"task_id": id,
	})
	writeData(w, http.StatusOK, task)
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.service.DeleteTask(r.Context(), actor, id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "task.delete", map[string]any{
		"task_id": id,
	})
	writeMessage(w, http.StatusOK, "task deleted")
}
