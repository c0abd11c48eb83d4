package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/teamflow/core/internal/domain/entities"
)

// UserRepository defines the interface for account data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
}

// OrganizationRepository defines the interface for organization data operations
type OrganizationRepository interface {
	// CreateWithOwner persists the organization together with an admin
	// membership for its owner in a single transaction.
	CreateWithOwner(ctx context.Context, org *entities.Organization) (*entities.Membership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Organization, error)
	Update(ctx context.Context, org *entities.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Organization, error)

	GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*entities.Membership, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*entities.Membership, error)
	AddMember(ctx context.Context, member *entities.Membership) error
	UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role entities.Role) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.Project, error)
	// ListWithProgress returns a capped, server-aggregated view with
	// completed/total task counts per project.
	ListWithProgress(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ProjectProgress, error)

	ListSections(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectSection, error)
	GetSection(ctx context.Context, id uuid.UUID) (*entities.ProjectSection, error)
	CreateSection(ctx context.Context, section *entities.ProjectSection) error
	UpdateSection(ctx context.Context, section *entities.ProjectSection) error
	DeleteSection(ctx context.Context, id uuid.UUID) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	// Create persists the task and, when projectID is non-nil, its board
	// placement in the same transaction.
	Create(ctx context.Context, task *entities.Task, projectID, sectionID *uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	// Delete removes the board join rows first and then the task itself.
	// It reports success even when the task row is already gone.
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*entities.Task, error)
	// Move relocates the task to a new section and position within a
	// project, renumbering siblings in a single transaction.
	Move(ctx context.Context, taskID, projectID uuid.UUID, sectionID *uuid.UUID, position int) error

	GetFieldValues(ctx context.Context, taskID uuid.UUID) ([]entities.CustomFieldValue, error)
	SetFieldValue(ctx context.Context, value *entities.CustomFieldValue) error
}

// TimeLogRepository defines the interface for time log data operations
type TimeLogRepository interface {
	Create(ctx context.Context, log *entities.TimeLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.TimeLog, error)
	Update(ctx context.Context, log *entities.TimeLog) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.TimeLog, error)
	GetOpenForUser(ctx context.Context, userID uuid.UUID) (*entities.TimeLog, error)
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *entities.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Comment, error)
	Update(ctx context.Context, comment *entities.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Comment, error)
}

// CustomFieldRepository defines the interface for field definition operations
type CustomFieldRepository interface {
	Create(ctx context.Context, field *entities.CustomField) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.CustomField, error)
}

// ActivityRepository defines the interface for the append-only activity log
type ActivityRepository interface {
	Append(ctx context.Context, entry *entities.ActivityLog) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ActivityLog, error)
}

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// AuthRepository defines the interface for refresh token storage
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// TaskFilter narrows organization-scoped task listings
type TaskFilter struct {
	Status    *string
	Priority  *entities.Priority
	Tag       *string
	DueBefore *time.Time
	Search    *string
	Limit     int
	Offset    int
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int        `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
