// Package workspace is the client SDK for the Teamflow API. It layers the
// generic optimistic store over per-entity HTTP repositories, so a caller
// gets collections that mutate instantly, roll back on failure, and refresh
// themselves from the server's change stream.
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamflow/core/pkg/store"
)

// DefaultDebounce is the coalescing window applied to change-stream events
// before a store refetches.
const DefaultDebounce = 250 * time.Millisecond

// OrganizationStore holds the organizations the signed-in user belongs to.
type OrganizationStore struct {
	*store.Store[Organization, uuid.UUID, OrganizationPatch]
	gateway *Gateway
}

func NewOrganizationStore(g *Gateway) *OrganizationStore {
	repo := organizationRepository{gateway: g}
	s := store.New[Organization, uuid.UUID, OrganizationPatch](repo, func(o Organization) uuid.UUID { return o.ID }, store.Prepend)
	return &OrganizationStore{Store: s, gateway: g}
}

// Refresh reloads the user's organization list.
func (s *OrganizationStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, "")
}

// CreateOrganization makes a new organization; the creator becomes its
// admin server-side.
func (s *OrganizationStore) CreateOrganization(ctx context.Context, name string, description *string) bool {
	return s.Create(ctx, Organization{Name: name, Description: description})
}

// ProjectStore holds one organization's projects.
type ProjectStore struct {
	*store.Store[Project, uuid.UUID, ProjectPatch]
	repo  projectRepository
	orgID uuid.UUID
}

func NewProjectStore(g *Gateway, orgID uuid.UUID) *ProjectStore {
	repo := projectRepository{gateway: g}
	s := store.New[Project, uuid.UUID, ProjectPatch](repo, func(p Project) uuid.UUID { return p.ID }, store.Prepend)
	return &ProjectStore{Store: s, repo: repo, orgID: orgID}
}

func (s *ProjectStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, s.orgID.String())
}

// CreateProject makes a new project in the store's organization.
func (s *ProjectStore) CreateProject(ctx context.Context, name string, description *string) bool {
	return s.Create(ctx, Project{OrganizationID: s.orgID, Name: name, Description: description})
}

// Progress fetches the organization's projects with server-computed task
// completion aggregates. Bypasses the cached collection: aggregates are
// always read fresh.
func (s *ProjectStore) Progress(ctx context.Context, limit int) ([]ProjectProgress, error) {
	return s.repo.fetchProgress(ctx, s.orgID.String(), limit)
}

// Watch keeps the collection current from the server change stream until
// the context is cancelled or the store is disposed.
func (s *ProjectStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.orgID.String(), "projects")
	s.AutoRefresh(ctx, s.orgID.String(), events, DefaultDebounce)
}

// TaskStore holds one project's task board, in board order.
type TaskStore struct {
	*store.Store[Task, uuid.UUID, TaskPatch]
	repo      taskRepository
	orgID     uuid.UUID
	projectID uuid.UUID
}

func NewTaskStore(g *Gateway, orgID, projectID uuid.UUID) *TaskStore {
	repo := taskRepository{gateway: g, projectID: projectID}
	s := store.New[Task, uuid.UUID, TaskPatch](repo, func(t Task) uuid.UUID { return t.ID }, store.Append)
	return &TaskStore{Store: s, repo: repo, orgID: orgID, projectID: projectID}
}

func (s *TaskStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, s.projectID.String())
}

// UpdateStatus transitions a task's status. The completion timestamp is
// derived inside the same patch, so the optimistic view and the eventual
// server state agree field for field.
func (s *TaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) bool {
	return s.Update(ctx, id, StatusPatch(status, time.Now().UTC()))
}

// Move relocates a task on the board. Ordering is owned by the server, so
// the collection is refetched rather than reshuffled locally.
func (s *TaskStore) Move(ctx context.Context, taskID uuid.UUID, sectionID *uuid.UUID, position int) error {
	if err := s.repo.move(ctx, taskID, sectionID, position); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *TaskStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.orgID.String(), "tasks")
	s.AutoRefresh(ctx, s.projectID.String(), events, DefaultDebounce)
}

// MemberStore holds one organization's members. Identity is the member's
// user id, matching how the API addresses memberships.
type MemberStore struct {
	*store.Store[Member, uuid.UUID, MemberPatch]
	orgID uuid.UUID
}

func NewMemberStore(g *Gateway, orgID uuid.UUID) *MemberStore {
	repo := memberRepository{gateway: g, orgID: orgID}
	s := store.New[Member, uuid.UUID, MemberPatch](repo, func(m Member) uuid.UUID { return m.UserID }, store.Append)
	return &MemberStore{Store: s, orgID: orgID}
}

func (s *MemberStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, s.orgID.String())
}

// AddMember invites a user with the given role.
func (s *MemberStore) AddMember(ctx context.Context, userID uuid.UUID, role Role) bool {
	return s.Create(ctx, Member{OrganizationID: s.orgID, UserID: userID, Role: role})
}

// ChangeRole updates a member's role. Rejected locally when the actor's
// role cannot change roles, before any request is issued.
func (s *MemberStore) ChangeRole(ctx context.Context, actor Role, userID uuid.UUID, role Role) error {
	if !actor.CanChangeRoles() {
		return fmt.Errorf("%w: role %q cannot change member roles", store.ErrForbidden, actor)
	}
	if !s.Update(ctx, userID, MemberPatch{Role: &role}) {
		return s.Err()
	}
	return nil
}

// RemoveMember removes a member. The permission check runs against the
// local collection before any request is issued: an editor removing an
// admin is rejected without touching the network, exactly as the server
// would reject it.
func (s *MemberStore) RemoveMember(ctx context.Context, actor Role, userID uuid.UUID) error {
	if !actor.CanManageMembers() {
		return fmt.Errorf("%w: role %q cannot remove members", store.ErrForbidden, actor)
	}
	if target, ok := s.Get(userID); ok {
		if target.Role == RoleAdmin && actor != RoleAdmin {
			return fmt.Errorf("%w: only an admin can remove an admin", store.ErrForbidden)
		}
	}
	if !s.Remove(ctx, userID) {
		return s.Err()
	}
	return nil
}

func (s *MemberStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.orgID.String(), "memberships")
	s.AutoRefresh(ctx, s.orgID.String(), events, DefaultDebounce)
}

// TimeLogStore holds one task's time logs, oldest first. New logs append,
// preserving chronological reading order.
type TimeLogStore struct {
	*store.Store[TimeLog, uuid.UUID, TimeLogPatch]
	taskID uuid.UUID
}

func NewTimeLogStore(g *Gateway, taskID uuid.UUID) *TimeLogStore {
	repo := timeLogRepository{gateway: g, taskID: taskID}
	s := store.New[TimeLog, uuid.UUID, TimeLogPatch](repo, func(t TimeLog) uuid.UUID { return t.ID }, store.Append)
	return &TimeLogStore{Store: s, taskID: taskID}
}

func (s *TimeLogStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, s.taskID.String())
}

// LogTime records a finished or still-open interval against the task.
func (s *TimeLogStore) LogTime(ctx context.Context, start time.Time, end *time.Time, note *string) bool {
	return s.Create(ctx, TimeLog{TaskID: s.taskID, StartTime: start, EndTime: end, Note: note})
}

// CloseLog ends an open time log now. The duration the optimistic patch
// derives matches what the server stores.
func (s *TimeLogStore) CloseLog(ctx context.Context, id uuid.UUID) bool {
	now := time.Now().UTC()
	return s.Update(ctx, id, TimeLogPatch{EndTime: &now})
}

func (s *TimeLogStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.taskID.String(), "time_logs")
	s.AutoRefresh(ctx, s.taskID.String(), events, DefaultDebounce)
}

// CommentStore holds one task's comments, oldest first.
type CommentStore struct {
	*store.Store[Comment, uuid.UUID, CommentPatch]
	taskID uuid.UUID
}

func NewCommentStore(g *Gateway, taskID uuid.UUID) *CommentStore {
	repo := commentRepository{gateway: g, taskID: taskID}
	s := store.New[Comment, uuid.UUID, CommentPatch](repo, func(c Comment) uuid.UUID { return c.ID }, store.Append)
	return &CommentStore{Store: s, taskID: taskID}
}

func (s *CommentStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, s.taskID.String())
}

// AddComment posts a comment on the task.
func (s *CommentStore) AddComment(ctx context.Context, content string) bool {
	return s.Create(ctx, Comment{TaskID: s.taskID, Content: content})
}

func (s *CommentStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.taskID.String(), "comments")
	s.AutoRefresh(ctx, s.taskID.String(), events, DefaultDebounce)
}

// NotificationStore holds the signed-in user's notifications, newest first
// as the server returns them.
type NotificationStore struct {
	*store.Store[Notification, uuid.UUID, NotificationPatch]
	repo   notificationRepository
	userID uuid.UUID
}

func NewNotificationStore(g *Gateway, userID uuid.UUID) *NotificationStore {
	repo := notificationRepository{gateway: g}
	s := store.New[Notification, uuid.UUID, NotificationPatch](repo, func(n Notification) uuid.UUID { return n.ID }, store.Prepend)
	return &NotificationStore{Store: s, repo: repo, userID: userID}
}

func (s *NotificationStore) Refresh(ctx context.Context) error {
	return s.Store.Refresh(ctx, "")
}

// MarkRead marks one notification read, optimistically stamping it locally.
func (s *NotificationStore) MarkRead(ctx context.Context, id uuid.UUID) bool {
	now := time.Now().UTC()
	return s.Update(ctx, id, NotificationPatch{ReadAt: &now})
}

// MarkAllRead marks every notification read, then refetches.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	if err := s.repo.markAllRead(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *NotificationStore) Watch(ctx context.Context, g *Gateway) {
	events := g.Subscribe(ctx, s.userID.String(), "notifications")
	s.AutoRefresh(ctx, "", events, DefaultDebounce)
}
