package pm

import "context"

// TaskFilter narrows task listings. CompanyID scopes tasks to projects
// owned by that company; an empty CompanyID skips the tenant join and is
// only used together with AssignedTo for a user's own tasks.
type TaskFilter struct {
	CompanyID  string
	ProjectID  string
	AssignedTo string
	Status     *TaskStatus
}

// Store describes the persistence operations required by the resource
// services. List operations return the page of records plus the total
// number of matching records for pagination.
type Store interface {
	CreateCompany(ctx context.Context, c *Company) error
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context, page PageRequest) ([]Company, int, error)
	UpdateCompany(ctx context.Context, id string, upd CompanyUpdate) (Company, error)
	DeleteCompany(ctx context.Context, id string) error

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, companyID string, page PageRequest) ([]User, int, error)
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	DeleteUser(ctx context.Context, id string) error

	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context, companyID string, page PageRequest) ([]Project, int, error)
	UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateTask(ctx context.Context, t *Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter, page PageRequest) ([]Task, int, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) (Task, error)
	DeleteTask(ctx context.Context, id string) error
}
