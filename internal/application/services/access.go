package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/ports"
)

// membershipFor resolves the actor's membership in an organization. Missing
// membership surfaces as forbidden so the existence of the organization is
// not leaked to outsiders.
func membershipFor(ctx context.Context, orgRepo ports.OrganizationRepository, orgID, userID uuid.UUID) (*entities.Membership, error) {
	member, err := orgRepo.GetMembership(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("not a member of this organization: %w", entities.ErrForbidden)
	}
	return member, nil
}

// requireWriter resolves membership and rejects viewers, who hold read-only
// access to everything in the organization.
func requireWriter(ctx context.Context, orgRepo ports.OrganizationRepository, orgID, userID uuid.UUID) (*entities.Membership, error) {
	member, err := membershipFor(ctx, orgRepo, orgID, userID)
	if err != nil {
		return nil, err
	}
	if member.Role == entities.RoleViewer {
		return nil, fmt.Errorf("viewers have read-only access: %w", entities.ErrForbidden)
	}
	return member, nil
}
