package pm

import (
	"context"
	"time"

	"planhub.org/internal/ids"
)

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      TaskStatus
	AssignedTo  string
	ProjectID   string
}

// CreateTask creates a task after resolving both the target project and
// the assignee. Either missing aborts with NotFound, either belonging to
// another company aborts with Forbidden; nothing is written on failure.
func (s *Service) CreateTask(ctx context.Context, actor Actor, in CreateTaskInput) (Task, error) {
	title, err := requireTrimmed(in.Title, "task title")
	if err != nil {
		return Task{}, err
	}
	description, err := requireTrimmed(in.Description, "task description")
	if err != nil {
		return Task{}, err
	}
	assignedTo, err := requireTrimmed(in.AssignedTo, "assignedTo")
	if err != nil {
		return Task{}, err
	}
	projectID, err := requireTrimmed(in.ProjectID, "projectId")
	if err != nil {
		return Task{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusToDo
	}
	if !ValidStatus(status) {
		return Task{}, invalidf("unsupported status %q", status)
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return Task{}, err
	}
	if err := guardCompany(project.CompanyID, actor, "create tasks for this project"); err != nil {
		return Task{}, err
	}
	assignee, err := s.store.GetUser(ctx, assignedTo)
	if err != nil {
		return Task{}, err
	}
	if err := guardCompany(assignee.CompanyID, actor, "assign tasks to users from another company"); err != nil {
		return Task{}, err
	}

	task := Task{
		ID:          ids.New(),
		Title:       title,
		Description: description,
		Status:      status,
		AssignedTo:  assignee.ID,
		ProjectID:   project.ID,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateTask(ctx, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

// TaskListOptions are the caller-supplied filters for ListTasks.
type TaskListOptions struct {
	Status     *TaskStatus
	AssignedTo string
	ProjectID  string
}

// ListTasks returns a page of tasks scoped to the actor's company. A
// projectId filter is tenancy-checked before it is applied.
func (s *Service) ListTasks(ctx context.Context, actor Actor, opts TaskListOptions, page PageRequest) ([]Task, int, error) {
	if opts.Status != nil && !ValidStatus(*opts.Status) {
		return nil, 0, invalidf("unsupported status %q", *opts.Status)
	}
	filter := TaskFilter{
		CompanyID:  actor.CompanyID,
		AssignedTo: opts.AssignedTo,
		Status:     opts.Status,
	}
	if opts.ProjectID != "" {
		project, err := s.store.GetProject(ctx, opts.ProjectID)
		if err != nil {
			return nil, 0, err
		}
		if err := guardCompany(project.CompanyID, actor, "access tasks for this project"); err != nil {
			return nil, 0, err
		}
		filter.ProjectID = project.ID
	}
	return s.store.ListTasks(ctx, filter, page)
}

// ListMyTasks returns a page of tasks assigned to the actor, any role.
func (s *Service) ListMyTasks(ctx context.Context, actor Actor, status *TaskStatus, page PageRequest) ([]Task, int, error) {
	if status != nil && !ValidStatus(*status) {
		return nil, 0, invalidf("unsupported status %q", *status)
	}
	return s.store.ListTasks(ctx, TaskFilter{AssignedTo: actor.ID, Status: status}, page)
}

// GetTask loads a task. The parent project must share the actor's company,
// and Members may only read tasks assigned to them.
func (s *Service) GetTask(ctx context.Context, actor Actor, id string) (Task, error) {
	id, err := requireTrimmed(id, "task id")
	if err != nil {
		return Task{}, err
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	company, err := s.taskCompany(ctx, task)
	if err != nil {
		return Task{}, err
	}
	if err := guardCompany(company, actor, "access this task"); err != nil {
		return Task{}, err
	}
	if actor.IsMember() && task.AssignedTo != actor.ID {
		return Task{}, guardCompany("", actor, "access this task")
	}
	return task, nil
}

// UpdateTask applies a partial mutation. Members may only touch tasks
// assigned to them, and only the status and description fields; title and
// assignee changes are dropped for them rather than rejected. Admin and
// Manager may reassign, but the new assignee must exist and share the
// company.
func (s *Service) UpdateTask(ctx context.Context, actor Actor, id string, upd TaskUpdate) (Task, error) {
	id, err := requireTrimmed(id, "task id")
	if err != nil {
		return Task{}, err
	}
	if upd.IsEmpty() {
		return Task{}, invalidf("at least one field is required")
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	company, err := s.taskCompany(ctx, task)
	if err != nil {
		return Task{}, err
	}
	if err := guardCompany(company, actor, "update this task"); err != nil {
		return Task{}, err
	}

	if upd.Status != nil && !ValidStatus(*upd.Status) {
		return Task{}, invalidf("unsupported status %q", *upd.Status)
	}
	if upd.Title != nil {
		trimmed, err := requireTrimmed(*upd.Title, "task title")
		if err != nil {
			return Task{}, err
		}
		upd.Title = &trimmed
	}
	if upd.Description != nil {
		trimmed, err := requireTrimmed(*upd.Description, "task description")
		if err != nil {
			return Task{}, err
		}
		upd.Description = &trimmed
	}

	if actor.IsMember() {
		if task.AssignedTo != actor.ID {
			return Task{}, guardCompany("", actor, "update this task")
		}
		upd.Title = nil
		upd.AssignedTo = nil
		if upd.IsEmpty() {
			return task, nil
		}
		return s.store.UpdateTask(ctx, id, upd)
	}

	if upd.AssignedTo != nil && *upd.AssignedTo != task.AssignedTo {
		assignee, err := s.store.GetUser(ctx, *upd.AssignedTo)
		if err != nil {
			return Task{}, err
		}
		if err := guardCompany(assignee.CompanyID, actor, "assign tasks to users from another company"); err != nil {
			return Task{}, err
		}
	}
	return s.store.UpdateTask(ctx, id, upd)
}

// DeleteTask hard-deletes a task whose parent project shares the actor's
// company.
func (s *Service) DeleteTask(ctx context.Context, actor Actor, id string) error {
	id, err := requireTrimmed(id, "task id")
	if err != nil {
		return err
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	company, err := s.taskCompany(ctx, task)
	if err != nil {
		return err
	}
	if err := guardCompany(company, actor, "delete this task"); err != nil {
		return err
	}
	return s.store.DeleteTask(ctx, id)
}
