package pm

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. It backs
// the test suite and local development without a database.
type InMemory struct {
	mu        sync.RWMutex
	companies map[string]*Company
	users     map[string]*User
	projects  map[string]*Project
	tasks     map[string]*Task
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		companies: make(map[string]*Company),
		users:     make(map[string]*User),
		projects:  make(map[string]*Project),
		tasks:     make(map[string]*Task),
	}
}

// --- companies ---

func (s *InMemory) CreateCompany(ctx context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.companies[c.ID] = &cp
	return nil
}

func (s *InMemory) GetCompany(ctx context.Context, id string) (Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) ListCompanies(ctx context.Context, page PageRequest) ([]Company, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]Company, 0, len(s.companies))
	for _, c := range s.companies {
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return slicePage(all, page), len(all), nil
}

func (s *InMemory) UpdateCompany(ctx context.Context, id string, upd CompanyUpdate) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Domain != nil {
		c.Domain = *upd.Domain
	}
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (s *InMemory) DeleteCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

// --- users ---

func (s *InMemory) CreateUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemory) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (s *InMemory) GetUserByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *InMemory) ListUsers(ctx context.Context, companyID string, page PageRequest) ([]User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []User
	for _, u := range s.users {
		if u.CompanyID == companyID {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return slicePage(all, page), len(all), nil
}

func (s *InMemory) UpdateUser(ctx context.Context, id string, upd UserUpdate) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for _, existing := range s.users {
			if existing.Email == *upd.Email {
				return User{}, ErrConflict
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = time.Now().UTC()
	return *u, nil
}

func (s *InMemory) SetRefreshToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RefreshToken = token
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// --- projects ---

func (s *InMemory) CreateProject(ctx context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects {
		if existing.CompanyID == p.CompanyID && existing.Name == p.Name {
			return ErrConflict
		}
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *InMemory) GetProject(ctx context.Context, id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemory) ListProjects(ctx context.Context, companyID string, page PageRequest) ([]Project, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Project
	for _, p := range s.projects {
		if p.CompanyID == companyID {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return slicePage(all, page), len(all), nil
}

func (s *InMemory) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	if upd.Name != nil && *upd.Name != p.Name {
		for _, existing := range s.projects {
			if existing.CompanyID == p.CompanyID && existing.Name == *upd.Name {
				return Project{}, ErrConflict
			}
		}
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *InMemory) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// --- tasks ---

func (s *InMemory) CreateTask(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *InMemory) GetTask(ctx context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

func (s *InMemory) ListTasks(ctx context.Context, filter TaskFilter, page PageRequest) ([]Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Task
	for _, t := range s.tasks {
		if !s.taskMatches(t, filter) {
			continue
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return slicePage(all, page), len(all), nil
}

func (s *InMemory) taskMatches(t *Task, filter TaskFilter) bool {
	if filter.CompanyID != "" {
		p, ok := s.projects[t.ProjectID]
		if !ok || p.CompanyID != filter.CompanyID {
			return false
		}
	}
	if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
		return false
	}
	if filter.AssignedTo != "" && t.AssignedTo != filter.AssignedTo {
		return false
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	return true
}

func (s *InMemory) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.AssignedTo != nil {
		t.AssignedTo = *upd.AssignedTo
	}
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}

func (s *InMemory) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func slicePage[T any](all []T, page PageRequest) []T {
	start := page.Offset()
	if start >= len(all) {
		return nil
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]T, end-start)
	copy(out, all[start:end])
	return out
}
