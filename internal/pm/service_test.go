package pm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"planhub.org/internal/auth"
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	service  *Service
	sessions *Sessions
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	service, err := NewService(NewInMemory())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	tokens, err := auth.NewTokens("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	sessions, err := NewSessions(service, tokens)
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		service:  service,
		sessions: sessions,
	}
}

func (f *fixture) company(name string) Company {
	f.t.Helper()
	c, err := f.service.CreateCompany(f.ctx, name, name+".test")
	if err != nil {
		f.t.Fatalf("create company %s: %v", name, err)
	}
	return c
}

// user seeds a user of the given role into the company and returns it with
// a matching actor.
func (f *fixture) user(company Company, role Role) (User, Actor) {
	f.t.Helper()
	f.seq++
	email := fmt.Sprintf("user%d@%s", f.seq, company.Domain)
	var user User
	var err error
	if role == RoleAdmin {
		user, err = f.service.RegisterAdmin(f.ctx, "Seed User", email, "password", company.ID)
	} else {
		seeder := Actor{ID: "seeder", Role: RoleAdmin, CompanyID: company.ID}
		user, err = f.service.CreateUser(f.ctx, seeder, CreateUserInput{
			Name:      "Seed User",
			Email:     email,
			Password:  "password",
			Role:      role,
			CompanyID: company.ID,
		})
	}
	if err != nil {
		f.t.Fatalf("seed %s user: %v", role, err)
	}
	return user, Actor{ID: user.ID, Email: user.Email, Role: user.Role, CompanyID: user.CompanyID}
}

func (f *fixture) project(actor Actor, name string) Project {
	f.t.Helper()
	p, err := f.service.CreateProject(f.ctx, actor, CreateProjectInput{
		Name:        name,
		Description: "seeded project",
		CompanyID:   actor.CompanyID,
	})
	if err != nil {
		f.t.Fatalf("create project %s: %v", name, err)
	}
	return p
}

func (f *fixture) task(actor Actor, project Project, assignee User) Task {
	f.t.Helper()
	task, err := f.service.CreateTask(f.ctx, actor, CreateTaskInput{
		Title:       "Seeded task",
		Description: "seeded task",
		AssignedTo:  assignee.ID,
		ProjectID:   project.ID,
	})
	if err != nil {
		f.t.Fatalf("create task: %v", err)
	}
	return task
}

func strPtr(s string) *string            { return &s }
func rolePtr(r Role) *Role               { return &r }
func statusPtr(s TaskStatus) *TaskStatus { return &s }

func TestProjectTenancyIsolation(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	_, adminA := f.user(companyA, RoleAdmin)
	_, adminB := f.user(companyB, RoleAdmin)

	project := f.project(adminA, "Website")

	if _, err := f.service.GetProject(f.ctx, adminB, project.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company get: want ErrForbidden, got %v", err)
	}
	if _, err := f.service.UpdateProject(f.ctx, adminB, project.ID, ProjectUpdate{Name: strPtr("Stolen")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company update: want ErrForbidden, got %v", err)
	}
	if err := f.service.DeleteProject(f.ctx, adminB, project.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company delete: want ErrForbidden, got %v", err)
	}

	// A missing id is NotFound for everyone: existence is established
	// before ownership.
	if _, err := f.service.GetProject(f.ctx, adminB, "no-such-project"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing project: want ErrNotFound, got %v", err)
	}

	// The owner still sees it.
	got, err := f.service.GetProject(f.ctx, adminA, project.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.CompanyID != companyA.ID {
		t.Fatalf("project company = %s, want %s", got.CompanyID, companyA.ID)
	}
}

func TestCreateProjectScoping(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	_, adminA := f.user(companyA, RoleAdmin)

	if _, err := f.service.CreateProject(f.ctx, adminA, CreateProjectInput{
		Name:        "Wrong Tenant",
		Description: "x",
		CompanyID:   companyB.ID,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign companyId: want ErrForbidden, got %v", err)
	}

	first := f.project(adminA, "Website")
	if first.CreatedBy != adminA.ID {
		t.Fatalf("createdBy = %s, want actor %s", first.CreatedBy, adminA.ID)
	}

	// (name, company) is unique; the same name is fine elsewhere.
	if _, err := f.service.CreateProject(f.ctx, adminA, CreateProjectInput{
		Name:        "Website",
		Description: "dup",
		CompanyID:   companyA.ID,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate name in company: want ErrConflict, got %v", err)
	}
	_, adminB := f.user(companyB, RoleAdmin)
	if _, err := f.service.CreateProject(f.ctx, adminB, CreateProjectInput{
		Name:        "Website",
		Description: "other tenant",
		CompanyID:   companyB.ID,
	}); err != nil {
		t.Fatalf("same name in another company: %v", err)
	}
}

func TestCreateUserScoping(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	adminUser, adminA := f.user(companyA, RoleAdmin)

	if _, err := f.service.CreateUser(f.ctx, adminA, CreateUserInput{
		Name:      "Intruder",
		Email:     "intruder@globex.test",
		Password:  "password",
		Role:      RoleMember,
		CompanyID: companyB.ID,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign companyId: want ErrForbidden, got %v", err)
	}

	// Email uniqueness is global, not per company.
	_, adminB := f.user(companyB, RoleAdmin)
	if _, err := f.service.CreateUser(f.ctx, adminB, CreateUserInput{
		Name:      "Copycat",
		Email:     adminUser.Email,
		Password:  "password",
		Role:      RoleMember,
		CompanyID: companyB.ID,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate email: want ErrConflict, got %v", err)
	}

	if _, err := f.service.CreateUser(f.ctx, adminA, CreateUserInput{
		Name:      "Bad Role",
		Email:     "badrole@acme.test",
		Password:  "password",
		Role:      Role("Owner"),
		CompanyID: companyA.ID,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: want ErrInvalidInput, got %v", err)
	}
}

func TestUpdateUserValidation(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	_, adminA := f.user(companyA, RoleAdmin)
	member, _ := f.user(companyA, RoleMember)

	updated, err := f.service.UpdateUser(f.ctx, adminA, member.ID, UserUpdate{
		Name: strPtr("Renamed"),
		Role: rolePtr(RoleManager),
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Name != "Renamed" || updated.Role != RoleManager {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.CompanyID != companyA.ID {
		t.Fatalf("company changed on update: %s", updated.CompanyID)
	}

	if _, err := f.service.UpdateUser(f.ctx, adminA, member.ID, UserUpdate{
		Role: rolePtr(Role("Root")),
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("invalid role: want ErrInvalidInput, got %v", err)
	}

	companyB := f.company("globex")
	_, adminB := f.user(companyB, RoleAdmin)
	if _, err := f.service.UpdateUser(f.ctx, adminB, member.ID, UserUpdate{Name: strPtr("X")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company update: want ErrForbidden, got %v", err)
	}
}

func TestCreateTaskResolution(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	_, adminA := f.user(companyA, RoleAdmin)
	memberA, _ := f.user(companyA, RoleMember)
	memberB, _ := f.user(companyB, RoleMember)
	_, adminB := f.user(companyB, RoleAdmin)
	project := f.project(adminA, "Website")
	foreignProject := f.project(adminB, "Foreign")

	// Default status applies when none is supplied.
	task := f.task(adminA, project, memberA)
	if task.Status != StatusToDo {
		t.Fatalf("default status = %q, want %q", task.Status, StatusToDo)
	}

	if _, err := f.service.CreateTask(f.ctx, adminA, CreateTaskInput{
		Title:       "Orphan",
		Description: "x",
		AssignedTo:  memberA.ID,
		ProjectID:   "no-such-project",
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing project: want ErrNotFound, got %v", err)
	}

	if _, err := f.service.CreateTask(f.ctx, adminA, CreateTaskInput{
		Title:       "Wrong project",
		Description: "x",
		AssignedTo:  memberA.ID,
		ProjectID:   foreignProject.ID,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign project: want ErrForbidden, got %v", err)
	}

	if _, err := f.service.CreateTask(f.ctx, adminA, CreateTaskInput{
		Title:       "Wrong assignee",
		Description: "x",
		AssignedTo:  memberB.ID,
		ProjectID:   project.ID,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign assignee: want ErrForbidden, got %v", err)
	}

	if _, err := f.service.CreateTask(f.ctx, adminA, CreateTaskInput{
		Title:       "Bad status",
		Description: "x",
		Status:      TaskStatus("Archived"),
		AssignedTo:  memberA.ID,
		ProjectID:   project.ID,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status: want ErrInvalidInput, got %v", err)
	}
}

func TestMemberTaskVisibility(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	_, adminA := f.user(companyA, RoleAdmin)
	member1, actor1 := f.user(companyA, RoleMember)
	_, actor2 := f.user(companyA, RoleMember)
	project := f.project(adminA, "Website")
	task := f.task(adminA, project, member1)

	if _, err := f.service.GetTask(f.ctx, actor1, task.ID); err != nil {
		t.Fatalf("assignee get: %v", err)
	}
	if _, err := f.service.GetTask(f.ctx, actor2, task.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-assignee member get: want ErrForbidden, got %v", err)
	}
	// Admin sees everything in the company.
	if _, err := f.service.GetTask(f.ctx, adminA, task.ID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	mine, total, err := f.service.ListMyTasks(f.ctx, actor1, nil, NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("list my tasks: %v", err)
	}
	if total != 1 || len(mine) != 1 || mine[0].ID != task.ID {
		t.Fatalf("assignee tasks = %d/%d", len(mine), total)
	}
	other, total, err := f.service.ListMyTasks(f.ctx, actor2, nil, NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("list my tasks: %v", err)
	}
	if total != 0 || len(other) != 0 {
		t.Fatalf("non-assignee tasks = %d/%d, want none", len(other), total)
	}
}

func TestMemberUpdateFieldRules(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	_, adminA := f.user(companyA, RoleAdmin)
	member1, actor1 := f.user(companyA, RoleMember)
	member2, actor2 := f.user(companyA, RoleMember)
	project := f.project(adminA, "Website")
	task := f.task(adminA, project, member1)

	// Status and description apply; title and assignee are dropped, not
	// rejected.
	updated, err := f.service.UpdateTask(f.ctx, actor1, task.ID, TaskUpdate{
		Title:       strPtr("Hijacked"),
		Description: strPtr("progress notes"),
		Status:      statusPtr(StatusInProgress),
		AssignedTo:  &member2.ID,
	})
	if err != nil {
		t.Fatalf("member update: %v", err)
	}
	if updated.Status != StatusInProgress || updated.Description != "progress notes" {
		t.Fatalf("permitted fields not applied: %+v", updated)
	}
	if updated.Title != task.Title || updated.AssignedTo != member1.ID {
		t.Fatalf("restricted fields leaked through: %+v", updated)
	}

	// An update carrying only restricted fields is a no-op, not an error.
	unchanged, err := f.service.UpdateTask(f.ctx, actor1, task.ID, TaskUpdate{
		Title: strPtr("Still hijacked"),
	})
	if err != nil {
		t.Fatalf("restricted-only update: %v", err)
	}
	if unchanged.Title != task.Title {
		t.Fatalf("title mutated by member: %q", unchanged.Title)
	}

	if _, err := f.service.UpdateTask(f.ctx, actor2, task.ID, TaskUpdate{
		Status: statusPtr(StatusDone),
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member updating foreign task: want ErrForbidden, got %v", err)
	}

	if _, err := f.service.UpdateTask(f.ctx, actor1, task.ID, TaskUpdate{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty update: want ErrInvalidInput, got %v", err)
	}
}

func TestManagerReassignment(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	_, adminA := f.user(companyA, RoleAdmin)
	_, managerA := f.user(companyA, RoleManager)
	member1, _ := f.user(companyA, RoleMember)
	member2, _ := f.user(companyA, RoleMember)
	memberB, _ := f.user(companyB, RoleMember)
	project := f.project(adminA, "Website")
	task := f.task(adminA, project, member1)

	updated, err := f.service.UpdateTask(f.ctx, managerA, task.ID, TaskUpdate{
		AssignedTo: &member2.ID,
	})
	if err != nil {
		t.Fatalf("manager reassign: %v", err)
	}
	if updated.AssignedTo != member2.ID {
		t.Fatalf("assignee = %s, want %s", updated.AssignedTo, member2.ID)
	}

	if _, err := f.service.UpdateTask(f.ctx, managerA, task.ID, TaskUpdate{
		AssignedTo: &memberB.ID,
	}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-company reassign: want ErrForbidden, got %v", err)
	}
}

func TestListTasksProjectFilter(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	companyB := f.company("globex")
	_, adminA := f.user(companyA, RoleAdmin)
	_, adminB := f.user(companyB, RoleAdmin)
	memberA, _ := f.user(companyA, RoleMember)
	memberB, _ := f.user(companyB, RoleMember)
	projectA := f.project(adminA, "Website")
	projectB := f.project(adminB, "Foreign")
	f.task(adminA, projectA, memberA)
	f.task(adminB, projectB, memberB)

	tasks, total, err := f.service.ListTasks(f.ctx, adminA, TaskListOptions{}, NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if total != 1 || len(tasks) != 1 || tasks[0].ProjectID != projectA.ID {
		t.Fatalf("company scope leaked: %d/%d", len(tasks), total)
	}

	// Filtering by a foreign project is Forbidden, a missing one NotFound.
	if _, _, err := f.service.ListTasks(f.ctx, adminA, TaskListOptions{ProjectID: projectB.ID}, NewPageRequest(1, 10)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign project filter: want ErrForbidden, got %v", err)
	}
	if _, _, err := f.service.ListTasks(f.ctx, adminA, TaskListOptions{ProjectID: "no-such"}, NewPageRequest(1, 10)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing project filter: want ErrNotFound, got %v", err)
	}

	status := StatusDone
	tasks, total, err = f.service.ListTasks(f.ctx, adminA, TaskListOptions{Status: &status}, NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("status filter: %v", err)
	}
	if total != 0 || len(tasks) != 0 {
		t.Fatalf("status filter leaked: %d/%d", len(tasks), total)
	}
}

func TestProjectPagination(t *testing.T) {
	f := newFixture(t)
	companyA := f.company("acme")
	_, adminA := f.user(companyA, RoleAdmin)
	for i := 0; i < 15; i++ {
		f.project(adminA, fmt.Sprintf("Project %02d", i))
	}

	page1 := NewPageRequest(1, 10)
	projects, total, err := f.service.ListProjects(f.ctx, adminA, page1)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(projects) != 10 || total != 15 {
		t.Fatalf("page 1 = %d items, total %d", len(projects), total)
	}
	info := Paginate(page1, total)
	if info.Next == nil || info.Next.Page != 2 || info.Next.Limit != 10 {
		t.Fatalf("page 1 next = %+v", info.Next)
	}
	if info.Prev != nil {
		t.Fatalf("page 1 prev = %+v, want nil", info.Prev)
	}

	page2 := NewPageRequest(2, 10)
	projects, total, err = f.service.ListProjects(f.ctx, adminA, page2)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(projects) != 5 || total != 15 {
		t.Fatalf("page 2 = %d items, total %d", len(projects), total)
	}
	info = Paginate(page2, total)
	if info.Next != nil {
		t.Fatalf("page 2 next = %+v, want nil", info.Next)
	}
	if info.Prev == nil || info.Prev.Page != 1 || info.Prev.Limit != 10 {
		t.Fatalf("page 2 prev = %+v", info.Prev)
	}
}
