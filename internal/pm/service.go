package pm

import (
	"errors"
	"strings"
)

// Service implements the resource operations with tenancy and role checks
// layered over the Store. Checks run in a fixed order: existence, then
// company ownership, then role-specific field rules.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, errors.New("pm: store is required")
	}
	return &Service{store: store}, nil
}

func requireTrimmed(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalidf("%s is required", field)
	}
	return value, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", invalidf("valid email is required")
	}
	return email, nil
}
