package pm

import (
	"context"
	"time"

	"planhub.org/internal/auth"
	"planhub.org/internal/ids"
)

// CreateUserInput carries the fields accepted when creating a user.
type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Role      Role
	CompanyID string
}

// CreateUser creates a user inside the actor's own company. The companyId
// supplied in the request must equal the actor's: self-service scoping,
// not an admin override.
func (s *Service) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (User, error) {
	user, err := s.buildUser(ctx, in)
	if err != nil {
		return User{}, err
	}
	if !belongsToCompany(in.CompanyID, actor) {
		return User{}, guardCompany(in.CompanyID, actor, "create users for other companies")
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// RegisterAdmin creates the initial Admin user for a company during
// registration. There is no actor yet; the target company must exist.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password, companyID string) (User, error) {
	user, err := s.buildUser(ctx, CreateUserInput{
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      RoleAdmin,
		CompanyID: companyID,
	})
	if err != nil {
		return User{}, err
	}
	if _, err := s.store.GetCompany(ctx, user.CompanyID); err != nil {
		return User{}, err
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *Service) buildUser(ctx context.Context, in CreateUserInput) (User, error) {
	name, err := requireTrimmed(in.Name, "user name")
	if err != nil {
		return User{}, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return User{}, err
	}
	if !ValidRole(in.Role) {
		return User{}, invalidf("unsupported role %q", in.Role)
	}
	companyID, err := requireTrimmed(in.CompanyID, "companyId")
	if err != nil {
		return User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, invalidf("%s", err.Error())
	}
	return User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CompanyID:    companyID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// ListUsers returns a page of the actor's company's users.
func (s *Service) ListUsers(ctx context.Context, actor Actor, page PageRequest) ([]User, int, error) {
	return s.store.ListUsers(ctx, actor.CompanyID, page)
}

// GetUser loads a user; the target must share the actor's company.
func (s *Service) GetUser(ctx context.Context, actor Actor, id string) (User, error) {
	id, err := requireTrimmed(id, "user id")
	if err != nil {
		return User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := guardCompany(user.CompanyID, actor, "access this user"); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial mutation to a user in the actor's company.
// Company membership is never mutable here.
func (s *Service) UpdateUser(ctx context.Context, actor Actor, id string, upd UserUpdate) (User, error) {
	id, err := requireTrimmed(id, "user id")
	if err != nil {
		return User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := guardCompany(user.CompanyID, actor, "update this user"); err != nil {
		return User{}, err
	}
	if upd.Name != nil {
		trimmed, err := requireTrimmed(*upd.Name, "user name")
		if err != nil {
			return User{}, err
		}
		upd.Name = &trimmed
	}
	if upd.Email != nil {
		normalized, err := normalizeEmail(*upd.Email)
		if err != nil {
			return User{}, err
		}
		upd.Email = &normalized
	}
	if upd.Role != nil && !ValidRole(*upd.Role) {
		return User{}, invalidf("unsupported role %q", *upd.Role)
	}
	return s.store.UpdateUser(ctx, id, upd)
}

// DeleteUser hard-deletes a user in the actor's company.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, id string) error {
	id, err := requireTrimmed(id, "user id")
	if err != nil {
		return err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := guardCompany(user.CompanyID, actor, "delete this user"); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, id)
}
