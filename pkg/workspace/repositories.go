package workspace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/teamflow/core/pkg/store"
)

// Repositories adapting the REST surface to the store contract. Each one's
// FetchAll scope is the parent identifier its listing endpoint is keyed by.
// Repositories bound to a single parent (tasks to a project, members to an
// organization) carry that parent so create and delete requests can be
// addressed without widening the contract.

type organizationRepository struct {
	gateway *Gateway
}

func (r organizationRepository) FetchAll(ctx context.Context, _ string) ([]Organization, error) {
	var orgs []Organization
	if err := r.gateway.do(ctx, http.MethodGet, "/organizations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r organizationRepository) Create(ctx context.Context, input Organization) (Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", store.ErrValidation)
	}
	body := map[string]any{"name": input.Name}
	if input.Description != nil {
		body["description"] = *input.Description
	}
	var created Organization
	if err := r.gateway.do(ctx, http.MethodPost, "/organizations", body, &created); err != nil {
		return Organization{}, err
	}
	return created, nil
}

func (r organizationRepository) Update(ctx context.Context, id uuid.UUID, patch OrganizationPatch) error {
	return r.gateway.do(ctx, http.MethodPut, "/organizations/"+id.String(), patch, nil)
}

func (r organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.gateway.do(ctx, http.MethodDelete, "/organizations/"+id.String(), nil, nil)
}

type projectRepository struct {
	gateway *Gateway
}

// FetchAll lists the projects of the organization named by scope.
func (r projectRepository) FetchAll(ctx context.Context, scope string) ([]Project, error) {
	var projects []Project
	if err := r.gateway.do(ctx, http.MethodGet, "/organizations/"+scope+"/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r projectRepository) Create(ctx context.Context, input Project) (Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Project{}, fmt.Errorf("%w: project name is required", store.ErrValidation)
	}
	if input.OrganizationID == uuid.Nil {
		return Project{}, fmt.Errorf("%w: organization is required", store.ErrValidation)
	}
	body := map[string]any{
		"organization_id": input.OrganizationID,
		"name":            input.Name,
	}
	if input.Description != nil {
		body["description"] = *input.Description
	}
	if input.Status != "" {
		body["status"] = input.Status
	}
	if input.StartDate != nil {
		body["start_date"] = input.StartDate
	}
	if input.DueDate != nil {
		body["due_date"] = input.DueDate
	}
	var created Project
	if err := r.gateway.do(ctx, http.MethodPost, "/projects", body, &created); err != nil {
		return Project{}, err
	}
	return created, nil
}

func (r projectRepository) Update(ctx context.Context, id uuid.UUID, patch ProjectPatch) error {
	return r.gateway.do(ctx, http.MethodPut, "/projects/"+id.String(), patch, nil)
}

func (r projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.gateway.do(ctx, http.MethodDelete, "/projects/"+id.String(), nil, nil)
}

// fetchProgress lists projects with server-computed completion aggregates.
func (r projectRepository) fetchProgress(ctx context.Context, orgID string, limit int) ([]ProjectProgress, error) {
	path := "/organizations/" + orgID + "/projects/progress"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var projects []ProjectProgress
	if err := r.gateway.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

type taskRepository struct {
	gateway   *Gateway
	projectID uuid.UUID
}

// FetchAll lists the bound project's tasks in board order. The scope
// argument is ignored; the repository is already project-bound.
func (r taskRepository) FetchAll(ctx context.Context, _ string) ([]Task, error) {
	var tasks []Task
	path := "/projects/" + r.projectID.String() + "/tasks"
	if err := r.gateway.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r taskRepository) Create(ctx context.Context, input Task) (Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Task{}, fmt.Errorf("%w: task title is required", store.ErrValidation)
	}
	body := map[string]any{
		"project_id": r.projectID,
		"title":      input.Title,
	}
	if input.Status != "" {
		body["status"] = input.Status
	}
	if input.Priority != "" {
		body["priority"] = input.Priority
	}
	if input.DueDate != nil {
		body["due_date"] = input.DueDate
	}
	if len(input.Tags) > 0 {
		body["tags"] = input.Tags
	}
	var created Task
	if err := r.gateway.do(ctx, http.MethodPost, "/tasks", body, &created); err != nil {
		return Task{}, err
	}
	return created, nil
}

func (r taskRepository) Update(ctx context.Context, id uuid.UUID, patch TaskPatch) error {
	if patch.Status != nil && patch.Title == nil && patch.Priority == nil &&
		patch.DueDate == nil && patch.Tags == nil {
		// Pure status transitions use the endpoint that derives the
		// completion timestamp server-side in the same write.
		body := map[string]string{"status": *patch.Status}
		return r.gateway.do(ctx, http.MethodPut, "/tasks/"+id.String()+"/status", body, nil)
	}
	return r.gateway.do(ctx, http.MethodPatch, "/tasks/"+id.String(), patch, nil)
}

func (r taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.gateway.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
}

// move relocates a task on a project board server-side.
func (r taskRepository) move(ctx context.Context, taskID uuid.UUID, sectionID *uuid.UUID, position int) error {
	body := map[string]any{
		"task_id":    taskID,
		"project_id": r.projectID,
		"position":   position,
	}
	if sectionID != nil {
		body["section_id"] = sectionID
	}
	return r.gateway.do(ctx, http.MethodPost, "/tasks/move", body, nil)
}

type memberRepository struct {
	gateway *Gateway
	orgID   uuid.UUID
}

// FetchAll lists the bound organization's members.
func (r memberRepository) FetchAll(ctx context.Context, _ string) ([]Member, error) {
	var members []Member
	path := "/organizations/" + r.orgID.String() + "/members"
	if err := r.gateway.do(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r memberRepository) Create(ctx context.Context, input Member) (Member, error) {
	body := map[string]any{"user_id": input.UserID, "role": input.Role}
	var created Member
	path := "/organizations/" + r.orgID.String() + "/members"
	if err := r.gateway.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return Member{}, err
	}
	return created, nil
}

// Update and Delete address members by user id; the membership row id never
// appears in member URLs.
func (r memberRepository) Update(ctx context.Context, userID uuid.UUID, patch MemberPatch) error {
	path := "/organizations/" + r.orgID.String() + "/members/" + userID.String()
	return r.gateway.do(ctx, http.MethodPut, path, patch, nil)
}

func (r memberRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	path := "/organizations/" + r.orgID.String() + "/members/" + userID.String()
	return r.gateway.do(ctx, http.MethodDelete, path, nil, nil)
}

type timeLogRepository struct {
	gateway *Gateway
	taskID  uuid.UUID
}

// FetchAll lists the bound task's time logs, oldest first.
func (r timeLogRepository) FetchAll(ctx context.Context, _ string) ([]TimeLog, error) {
	var logs []TimeLog
	path := "/tasks/" + r.taskID.String() + "/time"
	if err := r.gateway.do(ctx, http.MethodGet, path, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r timeLogRepository) Create(ctx context.Context, input TimeLog) (TimeLog, error) {
	if input.EndTime != nil && input.EndTime.Before(input.StartTime) {
		return TimeLog{}, fmt.Errorf("%w: end time precedes start time", store.ErrValidation)
	}
	body := map[string]any{
		"task_id":    r.taskID,
		"start_time": input.StartTime,
	}
	if input.EndTime != nil {
		body["end_time"] = input.EndTime
	}
	if input.Note != nil {
		body["note"] = *input.Note
	}
	var created TimeLog
	if err := r.gateway.do(ctx, http.MethodPost, "/time", body, &created); err != nil {
		return TimeLog{}, err
	}
	return created, nil
}

func (r timeLogRepository) Update(ctx context.Context, id uuid.UUID, patch TimeLogPatch) error {
	return r.gateway.do(ctx, http.MethodPut, "/time/"+id.String(), patch, nil)
}

func (r timeLogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.gateway.do(ctx, http.MethodDelete, "/time/"+id.String(), nil, nil)
}

type commentRepository struct {
	gateway *Gateway
	taskID  uuid.UUID
}

// FetchAll lists the bound task's comments, oldest first.
func (r commentRepository) FetchAll(ctx context.Context, _ string) ([]Comment, error) {
	var comments []Comment
	path := "/tasks/" + r.taskID.String() + "/comments"
	if err := r.gateway.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r commentRepository) Create(ctx context.Context, input Comment) (Comment, error) {
	if strings.TrimSpace(input.Content) == "" {
		return Comment{}, fmt.Errorf("%w: comment content is required", store.ErrValidation)
	}
	body := map[string]any{"task_id": r.taskID, "content": input.Content}
	var created Comment
	if err := r.gateway.do(ctx, http.MethodPost, "/comments", body, &created); err != nil {
		return Comment{}, err
	}
	return created, nil
}

func (r commentRepository) Update(ctx context.Context, id uuid.UUID, patch CommentPatch) error {
	return r.gateway.do(ctx, http.MethodPut, "/comments/"+id.String(), patch, nil)
}

func (r commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.gateway.do(ctx, http.MethodDelete, "/comments/"+id.String(), nil, nil)
}

type notificationRepository struct {
	gateway *Gateway
}

func (r notificationRepository) FetchAll(ctx context.Context, _ string) ([]Notification, error) {
	var items []Notification
	if err := r.gateway.do(ctx, http.MethodGet, "/notifications", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create is unsupported: notifications are produced server-side only.
func (r notificationRepository) Create(ctx context.Context, _ Notification) (Notification, error) {
	return Notification{}, fmt.Errorf("%w: notifications are server-generated", store.ErrValidation)
}

// Update marks the notification read regardless of the patch contents.
func (r notificationRepository) Update(ctx context.Context, id uuid.UUID, _ NotificationPatch) error {
	return r.gateway.do(ctx, http.MethodPut, "/notifications/"+id.String()+"/read", nil, nil)
}

// Delete is unsupported: notifications are only ever marked read.
func (r notificationRepository) Delete(ctx context.Context, _ uuid.UUID) error {
	return fmt.Errorf("%w: notifications cannot be deleted", store.ErrValidation)
}

func (r notificationRepository) markAllRead(ctx context.Context) error {
	return r.gateway.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil)
}
