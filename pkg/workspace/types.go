package workspace

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within an organization.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanManageMembers reports whether the role may invite or remove members.
func (r Role) CanManageMembers() bool {
	return r == RoleAdmin || r == RoleEditor
}

// CanChangeRoles reports whether the role may change other members' roles.
func (r Role) CanChangeRoles() bool {
	return r == RoleAdmin
}

// StatusDone is the terminal task status. A task carries a completion
// timestamp exactly while its status is this value.
const StatusDone = "done"

// Organization is the top-level tenant grouping projects and members.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is a user's membership in an organization.
type Member struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Project is a named unit of work within an organization.
type Project struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	Status         string     `json:"status"`
	StartDate      *time.Time `json:"start_date"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ProjectProgress is the server-aggregated progress view of a project.
// Progress is computed by the backend; clients never page whole task sets
// to derive it.
type ProjectProgress struct {
	Project
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	Progress       float64 `json:"progress"`
}

// Task is a unit of trackable work.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	Tags           []string   `json:"tags"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TimeLog records a duration of work against a task.
type TimeLog struct {
	ID              uuid.UUID  `json:"id"`
	TaskID          uuid.UUID  `json:"task_id"`
	UserID          uuid.UUID  `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Note            *string    `json:"note"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Comment is a free-form note on a task.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notification is a per-user event record.
type Notification struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Kind           string     `json:"kind"`
	ReadAt         *time.Time `json:"read_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Patches. Each patch carries only the fields it sets; Apply merges a patch
// into an entity without mutating its input. The same structs serialize as
// partial-update request bodies.

// OrganizationPatch is a partial update to an organization.
type OrganizationPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p OrganizationPatch) Apply(o Organization) Organization {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Description != nil {
		o.Description = p.Description
	}
	return o
}

// ProjectPatch is a partial update to a project.
type ProjectPatch struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (p ProjectPatch) Apply(pr Project) Project {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = p.Description
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
	if p.StartDate != nil {
		pr.StartDate = p.StartDate
	}
	if p.DueDate != nil {
		pr.DueDate = p.DueDate
	}
	return pr
}

// TaskPatch is a partial update to a task. Status and CompletedAt always
// travel together; use StatusPatch to derive them consistently.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	CompletedAt *time.Time `json:"-"`

	clearCompleted bool
}

func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Tags != nil {
		tags := make([]string, len(*p.Tags))
		copy(tags, *p.Tags)
		t.Tags = tags
	}
	if p.CompletedAt != nil {
		t.CompletedAt = p.CompletedAt
	}
	if p.clearCompleted {
		t.CompletedAt = nil
	}
	return t
}

// IsEmpty reports whether the patch carries no fields.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && p.Tags == nil && p.CompletedAt == nil && !p.clearCompleted
}

// StatusPatch builds a task patch that transitions status and derives the
// completion timestamp in the same mutation. Entering the terminal status
// stamps now; leaving it clears the timestamp. The two changes are never
// observable separately.
func StatusPatch(status string, now time.Time) TaskPatch {
	p := TaskPatch{Status: &status}
	if status == StatusDone {
		p.CompletedAt = &now
	} else {
		p.clearCompleted = true
	}
	return p
}

// TimeLogPatch is a partial update to a time log.
type TimeLogPatch struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

func (p TimeLogPatch) Apply(tl TimeLog) TimeLog {
	if p.StartTime != nil {
		tl.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		tl.EndTime = p.EndTime
	}
	if p.Note != nil {
		tl.Note = p.Note
	}
	if tl.EndTime != nil {
		tl.DurationMinutes = DurationMinutes(tl.StartTime, tl.EndTime)
	}
	return tl
}

// MemberPatch changes a member's role.
type MemberPatch struct {
	Role *Role `json:"role,omitempty"`
}

func (p MemberPatch) Apply(m Member) Member {
	if p.Role != nil {
		m.Role = *p.Role
	}
	return m
}

// CommentPatch edits a comment's content.
type CommentPatch struct {
	Content *string `json:"content,omitempty"`
}

func (p CommentPatch) Apply(c Comment) Comment {
	if p.Content != nil {
		c.Content = *p.Content
	}
	return c
}

// NotificationPatch marks a notification read.
type NotificationPatch struct {
	ReadAt *time.Time `json:"read_at,omitempty"`
}

func (p NotificationPatch) Apply(n Notification) Notification {
	if p.ReadAt != nil {
		n.ReadAt = p.ReadAt
	}
	return n
}

// DurationMinutes computes a time log's stored duration: the interval in
// minutes rounded to nearest, or 0 while the log is still open.
func DurationMinutes(start time.Time, end *time.Time) int {
	if end == nil {
		return 0
	}
	minutes := end.Sub(start).Minutes()
	if minutes < 0 {
		return 0
	}
	return int(minutes + 0.5)
}
