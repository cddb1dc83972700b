package services

import (
	"context"
	"fmt"

	"bcbevents/internal/domain"
)

// requireManager resolves the actor's roles from storage and returns
// domain.ErrForbidden unless they hold manager or admin. Resolution happens
// here, immediately before each mutation; role claims carried in a token are
// treated as a UI convenience only.
func requireManager(ctx context.Context, roleRepo domain.RoleRepository, actorID string) error {
	if actorID == "" {
		return domain.ErrForbidden
	}
	roles, err := roleRepo.ListByUserID(ctx, actorID)
	if err != nil {
		return fmt.Errorf("resolve roles: %w", err)
	}
	for _, role := range roles {
		if role.Code == domain.RoleManager || role.Code == domain.RoleAdmin {
			return nil
		}
	}
	return domain.ErrForbidden
}
