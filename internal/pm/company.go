package pm

import (
	"context"
	"strings"
	"time"

	"planhub.org/internal/ids"
)

// CreateCompany registers a new tenant. It is the only create operation
// without an actor: company registration is the entry point of the system.
func (s *Service) CreateCompany(ctx context.Context, name, domain string) (Company, error) {
	name, err := requireTrimmed(name, "company name")
	if err != nil {
		return Company{}, err
	}
	domain, err = requireTrimmed(domain, "company domain")
	if err != nil {
		return Company{}, err
	}
	company := Company{
		ID:        ids.New(),
		Name:      name,
		Domain:    strings.ToLower(domain),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCompany(ctx, &company); err != nil {
		return Company{}, err
	}
	return company, nil
}

// ListCompanies returns a page of companies. The route is Admin-gated;
// companies are the tenant roots and carry no scoping of their own.
func (s *Service) ListCompanies(ctx context.Context, page PageRequest) ([]Company, int, error) {
	return s.store.ListCompanies(ctx, page)
}

// GetCompany loads a single company.
func (s *Service) GetCompany(ctx context.Context, id string) (Company, error) {
	id, err := requireTrimmed(id, "company id")
	if err != nil {
		return Company{}, err
	}
	return s.store.GetCompany(ctx, id)
}

// UpdateCompany applies a partial mutation; nil fields stay untouched.
func (s *Service) UpdateCompany(ctx context.Context, id string, upd CompanyUpdate) (Company, error) {
	id, err := requireTrimmed(id, "company id")
	if err != nil {
		return Company{}, err
	}
	if upd.Name != nil {
		trimmed, err := requireTrimmed(*upd.Name, "company name")
		if err != nil {
			return Company{}, err
		}
		upd.Name = &trimmed
	}
	if upd.Domain != nil {
		trimmed, err := requireTrimmed(*upd.Domain, "company domain")
		if err != nil {
			return Company{}, err
		}
		lowered := strings.ToLower(trimmed)
		upd.Domain = &lowered
	}
	return s.store.UpdateCompany(ctx, id, upd)
}

// DeleteCompany hard-deletes a company. Deleting an already-deleted id
// yields NotFound.
func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	id, err := requireTrimmed(id, "company id")
	if err != nil {
		return err
	}
	return s.store.DeleteCompany(ctx, id)
}
