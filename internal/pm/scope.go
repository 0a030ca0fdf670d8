package pm

import (
	"context"
	"fmt"
)

// belongsToCompany is the single tenancy predicate every resource check
// composes with: an entity owned by entityCompany is visible to the actor
// only when both companies match.
func belongsToCompany(entityCompany string, actor Actor) bool {
	return entityCompany != "" && entityCompany == actor.CompanyID
}

// guardCompany converts a failed tenancy check into ErrForbidden. Callers
// must establish existence first so that a missing id stays NotFound.
func guardCompany(entityCompany string, actor Actor, action string) error {
	if belongsToCompany(entityCompany, actor) {
		return nil
	}
	return fmt.Errorf("%w: not authorized to %s", ErrForbidden, action)
}

// taskCompany resolves the company owning a task through its parent
// project. The project is loaded by id; a dangling project reference
// surfaces as NotFound.
func (s *Service) taskCompany(ctx context.Context, task Task) (string, error) {
	project, err := s.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return "", err
	}
	return project.CompanyID, nil
}
