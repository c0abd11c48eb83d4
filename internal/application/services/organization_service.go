package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// OrganizationService handles organization and member management
type OrganizationService struct {
	orgRepo      ports.OrganizationRepository
	userRepo     ports.UserRepository
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(orgRepo ports.OrganizationRepository, userRepo ports.UserRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:      orgRepo,
		userRepo:     userRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateOrganization creates an organization with the actor as its admin owner
func (s *OrganizationService) CreateOrganization(ctx context.Context, actorID uuid.UUID, req ports.CreateOrganizationRequest) (*entities.Organization, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, entities.ErrEmptyName
	}

	org := &entities.Organization{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     actorID,
	}

	// Organization and owner membership are created in one transaction so a
	// crash cannot leave an organization nobody can administer.
	member, err := s.orgRepo.CreateWithOwner(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Info("Organization created", "org_id", org.ID, "owner_id", actorID, "role", member.Role)
	s.recordActivity(ctx, org.ID, actorID, "organization", org.ID, "created", nil)

	return org, nil
}

// GetOrganization returns an organization the actor is a member of
func (s *OrganizationService) GetOrganization(ctx context.Context, actorID, id uuid.UUID) (*entities.Organization, error) {
	if _, err := s.requireMembership(ctx, id, actorID); err != nil {
		return nil, err
	}
	return s.orgRepo.GetByID(ctx, id)
}

// UpdateOrganization renames or re-describes an organization
func (s *OrganizationService) UpdateOrganization(ctx context.Context, actorID, id uuid.UUID, req ports.UpdateOrganizationRequest) (*entities.Organization, error) {
	member, err := s.requireMembership(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if member.Role != entities.RoleAdmin {
		return nil, fmt.Errorf("only admins may update the organization: %w", entities.ErrForbidden)
	}

	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, entities.ErrEmptyName
		}
		org.Name = *req.Name
	}
	if req.Description != nil {
		org.Description = req.Description
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	s.recordActivity(ctx, org.ID, actorID, "organization", org.ID, "updated", nil)
	return org, nil
}

// DeleteOrganization removes an organization and everything under it
func (s *OrganizationService) DeleteOrganization(ctx context.Context, actorID, id uuid.UUID) error {
	member, err := s.requireMembership(ctx, id, actorID)
	if err != nil {
		return err
	}
	if member.Role != entities.RoleAdmin {
		return fmt.Errorf("only admins may delete the organization: %w", entities.ErrForbidden)
	}

	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	s.logger.Info("Organization deleted", "org_id", id, "actor_id", actorID)
	return nil
}

// ListOrganizations returns the organizations the actor belongs to
func (s *OrganizationService) ListOrganizations(ctx context.Context, actorID uuid.UUID) ([]*entities.Organization, error) {
	return s.orgRepo.ListForUser(ctx, actorID)
}

// ListMembers returns the members of an organization
func (s *OrganizationService) ListMembers(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.Membership, error) {
	if _, err := s.requireMembership(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	return s.orgRepo.ListMembers(ctx, orgID)
}

// AddMember adds a user to an organization with a role
func (s *OrganizationService) AddMember(ctx context.Context, actorID, orgID uuid.UUID, req ports.AddMemberRequest) (*entities.Membership, error) {
	actor, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageMembers() {
		return nil, fmt.Errorf("viewers may not add members: %w", entities.ErrForbidden)
	}
	if !req.Role.IsValid() {
		return nil, entities.ErrInvalidRole
	}

	// Editors may grant editor or viewer, never admin.
	if req.Role == entities.RoleAdmin && !actor.CanChangeRoles() {
		return nil, fmt.Errorf("only admins may grant the admin role: %w", entities.ErrForbidden)
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, entities.ErrUserNotFound
	}

	member := &entities.Membership{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         req.UserID,
		Role:           req.Role,
	}

	if err := s.orgRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, orgID, actorID, "membership", member.ID, "member_added", map[string]any{
		"user_id": req.UserID,
		"role":    req.Role,
	})

	return member, nil
}

// ChangeMemberRole changes the role of an existing member
func (s *OrganizationService) ChangeMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role entities.Role) error {
	actor, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !actor.CanChangeRoles() {
		return fmt.Errorf("only admins may change roles: %w", entities.ErrForbidden)
	}
	if !role.IsValid() {
		return entities.ErrInvalidRole
	}

	if err := s.orgRepo.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
		return err
	}

	s.recordActivity(ctx, orgID, actorID, "membership", userID, "role_changed", map[string]any{
		"user_id": userID,
		"role":    role,
	})
	return nil
}

// RemoveMember removes a user from an organization
func (s *OrganizationService) RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID) error {
	actor, err := s.requireMembership(ctx, orgID, actorID)
	if err != nil {
		return err
	}
	if !actor.CanManageMembers() {
		return fmt.Errorf("viewers may not remove members: %w", entities.ErrForbidden)
	}

	target, err := s.orgRepo.GetMembership(ctx, orgID, userID)
	if err != nil {
		return err
	}

	// Rejected here, before any repository write, so the caller never sees a
	// transient removal.
	if !actor.CanRemoveMember(target.Role) {
		return fmt.Errorf("editors may not remove admins: %w", entities.ErrForbidden)
	}

	if err := s.orgRepo.RemoveMember(ctx, orgID, userID); err != nil {
		return err
	}

	s.recordActivity(ctx, orgID, actorID, "membership", userID, "member_removed", map[string]any{
		"user_id": userID,
	})
	return nil
}

func (s *OrganizationService) requireMembership(ctx context.Context, orgID, userID uuid.UUID) (*entities.Membership, error) {
	return membershipFor(ctx, s.orgRepo, orgID, userID)
}

func (s *OrganizationService) recordActivity(ctx context.Context, orgID, actorID uuid.UUID, entityType string, entityID uuid.UUID, action string, detail map[string]any) {
	appendActivity(ctx, s.activityRepo, s.logger, orgID, actorID, entityType, entityID, action, detail)
}
