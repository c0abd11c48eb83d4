package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/teamflow/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	SignOut(ctx context.Context, userID uuid.UUID) error
	ValidateToken(tokenString string) (*Claims, error)
}

// OrganizationService interface for organization and member management
type OrganizationService interface {
	CreateOrganization(ctx context.Context, actorID uuid.UUID, req CreateOrganizationRequest) (*entities.Organization, error)
	GetOrganization(ctx context.Context, actorID, id uuid.UUID) (*entities.Organization, error)
	UpdateOrganization(ctx context.Context, actorID, id uuid.UUID, req UpdateOrganizationRequest) (*entities.Organization, error)
	DeleteOrganization(ctx context.Context, actorID, id uuid.UUID) error
	ListOrganizations(ctx context.Context, actorID uuid.UUID) ([]*entities.Organization, error)

	ListMembers(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.Membership, error)
	AddMember(ctx context.Context, actorID, orgID uuid.UUID, req AddMemberRequest) (*entities.Membership, error)
	ChangeMemberRole(ctx context.Context, actorID, orgID, userID uuid.UUID, role entities.Role) error
	RemoveMember(ctx context.Context, actorID, orgID, userID uuid.UUID) error
}

// ProjectService interface for project management operations
type ProjectService interface {
	CreateProject(ctx context.Context, actorID uuid.UUID, req CreateProjectRequest) (*entities.Project, error)
	GetProject(ctx context.Context, actorID, id uuid.UUID) (*entities.Project, error)
	UpdateProject(ctx context.Context, actorID, id uuid.UUID, req UpdateProjectRequest) (*entities.Project, error)
	DeleteProject(ctx context.Context, actorID, id uuid.UUID) error
	ListProjects(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.Project, error)
	ListProjectsWithProgress(ctx context.Context, actorID, orgID uuid.UUID, limit int) ([]*entities.ProjectProgress, error)

	ListSections(ctx context.Context, actorID, projectID uuid.UUID) ([]*entities.ProjectSection, error)
	CreateSection(ctx context.Context, actorID, projectID uuid.UUID, req CreateSectionRequest) (*entities.ProjectSection, error)
	DeleteSection(ctx context.Context, actorID, sectionID uuid.UUID) error
}

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, actorID uuid.UUID, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, actorID, id uuid.UUID) (*entities.Task, error)
	UpdateTask(ctx context.Context, actorID, id uuid.UUID, req UpdateTaskRequest) (*entities.Task, error)
	UpdateTaskStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*entities.Task, error)
	DeleteTask(ctx context.Context, actorID, id uuid.UUID) error
	ListTasks(ctx context.Context, actorID, orgID uuid.UUID, filter TaskFilter) ([]*entities.Task, error)
	ListProjectTasks(ctx context.Context, actorID, projectID uuid.UUID) ([]*entities.Task, error)
	MoveTask(ctx context.Context, actorID uuid.UUID, req MoveTaskRequest) error

	ListFields(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.CustomField, error)
	CreateField(ctx context.Context, actorID, orgID uuid.UUID, req CreateFieldRequest) (*entities.CustomField, error)
	SetFieldValue(ctx context.Context, actorID uuid.UUID, req SetFieldValueRequest) error
}

// TimeLogService interface for time tracking operations
type TimeLogService interface {
	CreateTimeLog(ctx context.Context, actorID uuid.UUID, req CreateTimeLogRequest) (*entities.TimeLog, error)
	UpdateTimeLog(ctx context.Context, actorID, id uuid.UUID, req UpdateTimeLogRequest) (*entities.TimeLog, error)
	DeleteTimeLog(ctx context.Context, actorID, id uuid.UUID) error
	ListTaskTimeLogs(ctx context.Context, actorID, taskID uuid.UUID) ([]*entities.TimeLog, error)
	StopOpenTimeLog(ctx context.Context, actorID uuid.UUID) (*entities.TimeLog, error)
}

// CommentService interface for task comments
type CommentService interface {
	CreateComment(ctx context.Context, actorID uuid.UUID, req CreateCommentRequest) (*entities.Comment, error)
	UpdateComment(ctx context.Context, actorID, id uuid.UUID, content string) (*entities.Comment, error)
	DeleteComment(ctx context.Context, actorID, id uuid.UUID) error
	ListTaskComments(ctx context.Context, actorID, taskID uuid.UUID) ([]*entities.Comment, error)
}

// FeedService interface for activity and notification reads
type FeedService interface {
	ListActivity(ctx context.Context, actorID, orgID uuid.UUID, limit int) ([]*entities.ActivityLog, error)
	ListNotifications(ctx context.Context, actorID uuid.UUID, limit int) ([]*entities.Notification, error)
	MarkNotificationRead(ctx context.Context, actorID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, actorID uuid.UUID) error
}

// Request/Response Types

// Auth related types
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Organization related types
type CreateOrganizationRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type UpdateOrganizationRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type AddMemberRequest struct {
	UserID uuid.UUID     `json:"user_id" validate:"required"`
	Role   entities.Role `json:"role" validate:"required"`
}

// Project related types
type CreateProjectRequest struct {
	OrganizationID uuid.UUID              `json:"organization_id" validate:"required"`
	Name           string                 `json:"name" validate:"required,max=200"`
	Description    *string                `json:"description" validate:"omitempty,max=1000"`
	Status         entities.ProjectStatus `json:"status" validate:"omitempty"`
	StartDate      *time.Time             `json:"start_date"`
	DueDate        *time.Time             `json:"due_date"`
}

type UpdateProjectRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Status      *entities.ProjectStatus `json:"status" validate:"omitempty"`
	StartDate   *time.Time              `json:"start_date"`
	DueDate     *time.Time              `json:"due_date"`
}

type CreateSectionRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Position int    `json:"position"`
}

// Task related types
type CreateTaskRequest struct {
	OrganizationID uuid.UUID         `json:"organization_id" validate:"required"`
	ProjectID      *uuid.UUID        `json:"project_id"`
	SectionID      *uuid.UUID        `json:"section_id"`
	Title          string            `json:"title" validate:"required,max=500"`
	Description    types.JSONText    `json:"description"`
	Status         string            `json:"status"`
	Priority       entities.Priority `json:"priority" validate:"omitempty"`
	DueDate        *time.Time        `json:"due_date"`
	Tags           []string          `json:"tags"`
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=500"`
	Description *types.JSONText    `json:"description"`
	Status      *string            `json:"status"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty"`
	DueDate     *time.Time         `json:"due_date"`
	Tags        *[]string          `json:"tags"`
}

// IsEmpty reports whether the patch carries no fields. An empty patch is a
// no-op success, not an error.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.Priority == nil && r.DueDate == nil && r.Tags == nil
}

type MoveTaskRequest struct {
	TaskID    uuid.UUID  `json:"task_id" validate:"required"`
	ProjectID uuid.UUID  `json:"project_id" validate:"required"`
	SectionID *uuid.UUID `json:"section_id"`
	Position  int        `json:"position" validate:"min=0"`
}

type CreateFieldRequest struct {
	Name    string             `json:"name" validate:"required,max=200"`
	Kind    entities.FieldKind `json:"kind" validate:"required"`
	Options []string           `json:"options"`
}

type SetFieldValueRequest struct {
	TaskID  uuid.UUID `json:"task_id" validate:"required"`
	FieldID uuid.UUID `json:"field_id" validate:"required"`
	Value   string    `json:"value"`
}

// Time tracking related types
type CreateTimeLogRequest struct {
	TaskID          uuid.UUID  `json:"task_id" validate:"required"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,min=0"`
	Note            *string    `json:"note" validate:"omitempty,max=1000"`
}

type UpdateTimeLogRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Note      *string    `json:"note" validate:"omitempty,max=1000"`
}

// Comment related types
type CreateCommentRequest struct {
	TaskID  uuid.UUID `json:"task_id" validate:"required"`
	Content string    `json:"content" validate:"required,max=5000"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Limit int `json:"limit"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
