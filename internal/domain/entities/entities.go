package entities

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Base error taxonomy. Entity-specific errors wrap one of these so callers
// can classify a failure with errors.Is regardless of which entity produced it.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// Common errors
var (
	ErrOrganizationNotFound = fmt.Errorf("organization %w", ErrNotFound)
	ErrProjectNotFound      = fmt.Errorf("project %w", ErrNotFound)
	ErrSectionNotFound      = fmt.Errorf("section %w", ErrNotFound)
	ErrTaskNotFound         = fmt.Errorf("task %w", ErrNotFound)
	ErrTimeLogNotFound      = fmt.Errorf("time log %w", ErrNotFound)
	ErrCommentNotFound      = fmt.Errorf("comment %w", ErrNotFound)
	ErrMembershipNotFound   = fmt.Errorf("membership %w", ErrNotFound)
	ErrUserNotFound         = fmt.Errorf("user %w", ErrNotFound)
	ErrFieldNotFound        = fmt.Errorf("custom field %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrDuplicateMembership = fmt.Errorf("user is already a member: %w", ErrConflict)
	ErrEmailTaken          = fmt.Errorf("email already registered: %w", ErrConflict)

	ErrInvalidRole       = fmt.Errorf("invalid role: %w", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("invalid status: %w", ErrValidation)
	ErrInvalidPriority   = fmt.Errorf("invalid priority: %w", ErrValidation)
	ErrInvalidFieldKind  = fmt.Errorf("invalid custom field kind: %w", ErrValidation)
	ErrInvalidTimeLog    = fmt.Errorf("invalid time log: %w", ErrValidation)
	ErrEmptyName         = fmt.Errorf("name must not be empty: %w", ErrValidation)
	ErrEmptyTitle        = fmt.Errorf("title must not be empty: %w", ErrValidation)
	ErrEmptyContent      = fmt.Errorf("content must not be empty: %w", ErrValidation)
	ErrOrganizationFixed = fmt.Errorf("organization reference is immutable: %w", ErrValidation)
)

// Enums and types
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// Task status is free-form text; these are the conventional values the UI
// uses. TaskStatusDone is the terminal value that drives completed_at.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type FieldKind string

const (
	FieldKindText       FieldKind = "text"
	FieldKindNumber     FieldKind = "number"
	FieldKindCurrency   FieldKind = "currency"
	FieldKindPercentage FieldKind = "percentage"
	FieldKindEnum       FieldKind = "enum"
	FieldKindDate       FieldKind = "date"
	FieldKindBoolean    FieldKind = "boolean"
	FieldKindPerson     FieldKind = "person"
)

// User represents an account in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Organization is the top-level tenant grouping projects and members
type Organization struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Membership links a user to an organization with a role
type Membership struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Role           Role      `json:"role" db:"role"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Project is a named unit of work within an organization
type Project struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OrganizationID uuid.UUID     `json:"organization_id" db:"organization_id"`
	Name           string        `json:"name" db:"name"`
	Description    *string       `json:"description" db:"description"`
	Status         ProjectStatus `json:"status" db:"status"`
	StartDate      *time.Time    `json:"start_date" db:"start_date"`
	DueDate        *time.Time    `json:"due_date" db:"due_date"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// ProjectProgress is the server-aggregated progress view of a project
type ProjectProgress struct {
	Project
	TotalTasks     int     `json:"total_tasks" db:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks" db:"completed_tasks"`
	Progress       float64 `json:"progress" db:"progress"`
}

// ProjectSection groups tasks within a project board or list
type ProjectSection struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id"`
	Name      string    `json:"name" db:"name"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Task is a unit of trackable work scoped to an organization. Tasks attach
// to projects through ProjectTask rows so the same task could in principle
// appear on more than one board.
type Task struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	Title          string         `json:"title" db:"title"`
	Description    types.JSONText `json:"description" db:"description"`
	Status         string         `json:"status" db:"status"`
	Priority       Priority       `json:"priority" db:"priority"`
	DueDate        *time.Time     `json:"due_date" db:"due_date"`
	Tags           pq.StringArray `json:"tags" db:"tags"`
	CompletedAt    *time.Time     `json:"completed_at" db:"completed_at"`
	CreatedBy      uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// ProjectTask is the join between a task and a project board position
type ProjectTask struct {
	ProjectID uuid.UUID  `json:"project_id" db:"project_id"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	SectionID *uuid.UUID `json:"section_id" db:"section_id"`
	Position  int        `json:"position" db:"position"`
}

// TimeLog records a duration of work against a task
type TimeLog struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TaskID          uuid.UUID  `json:"task_id" db:"task_id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	StartTime       time.Time  `json:"start_time" db:"start_time"`
	EndTime         *time.Time `json:"end_time" db:"end_time"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Note            *string    `json:"note" db:"note"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// Comment is a free-form note on a task
type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CustomField is an organization-scoped field definition
type CustomField struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	Name           string         `json:"name" db:"name"`
	Kind           FieldKind      `json:"kind" db:"kind"`
	Options        pq.StringArray `json:"options" db:"options"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// CustomFieldValue is the value of a custom field on a task
type CustomFieldValue struct {
	FieldID uuid.UUID `json:"field_id" db:"field_id"`
	TaskID  uuid.UUID `json:"task_id" db:"task_id"`
	Value   string    `json:"value" db:"value"`
}

// ActivityLog is an append-only record of an action taken on an entity
type ActivityLog struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	ActorID        uuid.UUID      `json:"actor_id" db:"actor_id"`
	EntityType     string         `json:"entity_type" db:"entity_type"`
	EntityID       uuid.UUID      `json:"entity_id" db:"entity_id"`
	Action         string         `json:"action" db:"action"`
	Detail         types.JSONText `json:"detail" db:"detail"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// Notification is a per-user undelivered-event record
type Notification struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	UserID         uuid.UUID      `json:"user_id" db:"user_id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	Kind           string         `json:"kind" db:"kind"`
	Payload        types.JSONText `json:"payload" db:"payload"`
	ReadAt         *time.Time     `json:"read_at" db:"read_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// Business logic methods for Membership

// CanManageMembers reports whether the holder may invite or remove members.
func (m *Membership) CanManageMembers() bool {
	return m.Role == RoleAdmin || m.Role == RoleEditor
}

// CanChangeRoles reports whether the holder may change another member's role.
func (m *Membership) CanChangeRoles() bool {
	return m.Role == RoleAdmin
}

// CanRemoveMember reports whether the holder may remove a member holding the
// target role. Editors manage members but may not remove admins.
func (m *Membership) CanRemoveMember(target Role) bool {
	if !m.CanManageMembers() {
		return false
	}
	if target == RoleAdmin {
		return m.Role == RoleAdmin
	}
	return true
}

// Business logic methods for Task

// CompletionForStatus derives the completed_at value that must accompany a
// transition to the given status. The timestamp is set exactly when the
// status becomes the terminal value and cleared otherwise.
func CompletionForStatus(status string, now time.Time) *time.Time {
	if status == TaskStatusDone {
		return &now
	}
	return nil
}

// ApplyStatus sets the status and its coupled completion timestamp in one
// step so the two are never observable apart.
func (t *Task) ApplyStatus(status string, now time.Time) {
	t.Status = status
	t.CompletedAt = CompletionForStatus(status, now)
}

func (t *Task) IsDone() bool {
	return t.Status == TaskStatusDone
}

func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsDone() {
		return false
	}
	return now.After(*t.DueDate)
}

// Business logic methods for TimeLog

// ComputeDurationMinutes returns the whole-minute difference between end and
// start, rounded. A log with no end time has zero duration until closed.
func ComputeDurationMinutes(start time.Time, end *time.Time) int {
	if end == nil {
		return 0
	}
	return int(math.Round(end.Sub(start).Minutes()))
}

// Close stamps the end time and derives the duration.
func (tl *TimeLog) Close(end time.Time) error {
	if tl.EndTime != nil || end.Before(tl.StartTime) {
		return ErrInvalidTimeLog
	}
	tl.EndTime = &end
	tl.DurationMinutes = ComputeDurationMinutes(tl.StartTime, tl.EndTime)
	return nil
}

func (tl *TimeLog) IsOpen() bool {
	return tl.EndTime == nil
}

// Business logic methods for Project

func (p *Project) IsArchived() bool {
	return p.Status == ProjectStatusArchived
}

func (p *Project) IsOverdue(now time.Time) bool {
	if p.DueDate == nil || p.Status == ProjectStatusCompleted {
		return false
	}
	return now.After(*p.DueDate)
}

// Ratio returns completed/total as a fraction in [0,1].
func (pp *ProjectProgress) Ratio() float64 {
	if pp.TotalTasks == 0 {
		return 0
	}
	return float64(pp.CompletedTasks) / float64(pp.TotalTasks)
}

// Utility methods
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

func (ps ProjectStatus) IsValid() bool {
	switch ps {
	case ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (fk FieldKind) IsValid() bool {
	switch fk {
	case FieldKindText, FieldKindNumber, FieldKindCurrency, FieldKindPercentage,
		FieldKindEnum, FieldKindDate, FieldKindBoolean, FieldKindPerson:
		return true
	default:
		return false
	}
}
