package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/database"
	"github.com/teamflow/core/internal/ports"
)

// OrganizationRepositoryImpl implements the OrganizationRepository interface
type OrganizationRepositoryImpl struct {
	db *database.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *database.DB) ports.OrganizationRepository {
	return &OrganizationRepositoryImpl{db: db}
}

// CreateWithOwner inserts the organization and its creator's admin
// membership in one transaction. A partially created organization without
// an admin would be unreachable, so the two rows stand or fall together.
func (r *OrganizationRepositoryImpl) CreateWithOwner(ctx context.Context, org *entities.Organization) (*entities.Membership, error) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}

	member := &entities.Membership{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		UserID:         org.OwnerID,
		Role:           entities.RoleAdmin,
	}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		orgQuery := `
			INSERT INTO organizations (id, name, description, owner_id)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at`

		err := tx.QueryRowContext(ctx, orgQuery,
			org.ID, org.Name, org.Description, org.OwnerID,
		).Scan(&org.CreatedAt, &org.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}

		memberQuery := `
			INSERT INTO memberships (id, organization_id, user_id, role)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`

		err = tx.QueryRowContext(ctx, memberQuery,
			member.ID, member.OrganizationID, member.UserID, member.Role,
		).Scan(&member.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create organization with owner: %w", err)
	}

	return member, nil
}

func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Organization, error) {
	query := `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM organizations
		WHERE id = $1`

	var org entities.Organization
	err := r.db.GetContext(ctx, &org, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization by id: %w", err)
	}

	return &org, nil
}

func (r *OrganizationRepositoryImpl) Update(ctx context.Context, org *entities.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, description = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, org.ID, org.Name, org.Description).Scan(&org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrOrganizationNotFound
		}
		return fmt.Errorf("update organization: %w", err)
	}

	return nil
}

// Delete removes the organization. Projects, tasks and memberships cascade
// at the schema level.
func (r *OrganizationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrOrganizationNotFound
	}

	return nil
}

func (r *OrganizationRepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Organization, error) {
	query := `
		SELECT o.id, o.name, o.description, o.owner_id, o.created_at, o.updated_at
		FROM organizations o
		JOIN memberships m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at DESC`

	orgs := []*entities.Organization{}
	err := r.db.SelectContext(ctx, &orgs, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations for user: %w", err)
	}

	return orgs, nil
}

func (r *OrganizationRepositoryImpl) GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*entities.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, role, created_at
		FROM memberships
		WHERE organization_id = $1 AND user_id = $2`

	var member entities.Membership
	err := r.db.GetContext(ctx, &member, query, orgID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}

	return &member, nil
}

func (r *OrganizationRepositoryImpl) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*entities.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, role, created_at
		FROM memberships
		WHERE organization_id = $1
		ORDER BY created_at`

	members := []*entities.Membership{}
	err := r.db.SelectContext(ctx, &members, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

func (r *OrganizationRepositoryImpl) AddMember(ctx context.Context, member *entities.Membership) error {
	query := `
		INSERT INTO memberships (id, organization_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		member.ID, member.OrganizationID, member.UserID, member.Role,
	).Scan(&member.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return entities.ErrDuplicateMembership
		}
		if isForeignKeyViolation(err) {
			return entities.ErrUserNotFound
		}
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

func (r *OrganizationRepositoryImpl) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role entities.Role) error {
	query := `
		UPDATE memberships
		SET role = $3
		WHERE organization_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrMembershipNotFound
	}

	return nil
}

func (r *OrganizationRepositoryImpl) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrMembershipNotFound
	}

	return nil
}
