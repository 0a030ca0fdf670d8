package pm

import "time"

// Role determines what a user may do inside their company.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleMember  Role = "Member"
)

// ValidRole reports whether r is one of the supported roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// ValidStatus reports whether s is one of the supported task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Company is the root tenant boundary. Every other entity traces its
// ownership to exactly one company.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User belongs to exactly one company. PasswordHash and RefreshToken are
// session state and never serialized into responses.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CompanyID    string    `json:"companyId"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Project is owned by a company; (name, company_id) is unique.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CompanyID   string    `json:"companyId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Task belongs to a project and is assigned to a user from the project's
// company. Its company is derived through the parent project.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	AssignedTo  string     `json:"assignedTo"`
	ProjectID   string     `json:"projectId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CompanyUpdate carries a partial company mutation; nil fields are untouched.
type CompanyUpdate struct {
	Name   *string
	Domain *string
}

// UserUpdate carries a partial user mutation. Company membership is not
// mutable through the generic update path.
type UserUpdate struct {
	Name  *string
	Email *string
	Role  *Role
}

// ProjectUpdate carries a partial project mutation.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

// TaskUpdate carries a partial task mutation. Which fields apply depends on
// the actor's role; see Service.UpdateTask.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	AssignedTo  *string
}

// IsEmpty reports whether the update carries no fields at all.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.AssignedTo == nil
}
