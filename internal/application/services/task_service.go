package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// TaskService handles task management operations
type TaskService struct {
	taskRepo     ports.TaskRepository
	projectRepo  ports.ProjectRepository
	orgRepo      ports.OrganizationRepository
	fieldRepo    ports.CustomFieldRepository
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, projectRepo ports.ProjectRepository, orgRepo ports.OrganizationRepository, fieldRepo ports.CustomFieldRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		orgRepo:      orgRepo,
		fieldRepo:    fieldRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateTask creates a task, optionally placing it on a project board
func (s *TaskService) CreateTask(ctx context.Context, actorID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if _, err := requireWriter(ctx, s.orgRepo, req.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, entities.ErrEmptyTitle
	}

	status := req.Status
	if status == "" {
		status = entities.TaskStatusTodo
	}
	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, entities.ErrInvalidPriority
	}

	if req.ProjectID != nil {
		project, err := s.projectRepo.GetByID(ctx, *req.ProjectID)
		if err != nil {
			return nil, err
		}
		if project.OrganizationID != req.OrganizationID {
			return nil, fmt.Errorf("project belongs to a different organization: %w", entities.ErrValidation)
		}
	}

	now := time.Now()
	task := &entities.Task{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       priority,
		DueDate:        req.DueDate,
		Tags:           pq.StringArray(req.Tags),
		CreatedBy:      actorID,
	}
	task.ApplyStatus(status, now)

	if err := s.taskRepo.Create(ctx, task, req.ProjectID, req.SectionID); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", task.ID, "org_id", task.OrganizationID, "created_by", actorID)
	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "task", task.ID, "created", nil)

	return task, nil
}

// GetTask returns a task visible to the actor
func (s *TaskService) GetTask(ctx context.Context, actorID, id uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a task. An empty patch succeeds
// without touching storage.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}

	if req.IsEmpty() {
		return task, nil
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, entities.ErrEmptyTitle
		}
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Tags != nil {
		task.Tags = pq.StringArray(*req.Tags)
	}
	if req.Status != nil {
		// Status and completed_at change together, in the same write.
		task.ApplyStatus(*req.Status, time.Now())
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "task", task.ID, "updated", nil)
	return task, nil
}

// UpdateTaskStatus transitions a task's status and keeps its completion
// timestamp consistent with it in one write.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actorID, id uuid.UUID, status string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if status == "" {
		return nil, entities.ErrInvalidStatus
	}

	task.ApplyStatus(status, time.Now())

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "task", task.ID, "status_changed", map[string]any{
		"status": status,
	})
	return task, nil
}

// DeleteTask removes a task. Deleting an already-deleted task succeeds.
func (s *TaskService) DeleteTask(ctx context.Context, actorID, id uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		// Already gone, nothing left to do.
		if errors.Is(err, entities.ErrNotFound) {
			return nil
		}
		return err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("Task deleted", "task_id", id, "actor_id", actorID)
	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "task", id, "deleted", nil)
	return nil
}

// ListTasks returns the organization's tasks narrowed by the filter
func (s *TaskService) ListTasks(ctx context.Context, actorID, orgID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	if _, err := membershipFor(ctx, s.orgRepo, orgID, actorID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByOrganization(ctx, orgID, filter)
}

// ListProjectTasks returns a project's tasks in board order
func (s *TaskService) ListProjectTasks(ctx context.Context, actorID, projectID uuid.UUID) ([]*entities.Task, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByProject(ctx, projectID)
}

// MoveTask relocates a task to a section and position on a project board
func (s *TaskService) MoveTask(ctx context.Context, actorID uuid.UUID, req ports.MoveTaskRequest) error {
	task, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return err
	}
	if project.OrganizationID != task.OrganizationID {
		return fmt.Errorf("project belongs to a different organization: %w", entities.ErrValidation)
	}
	if req.Position < 0 {
		return fmt.Errorf("position must not be negative: %w", entities.ErrValidation)
	}

	if err := s.taskRepo.Move(ctx, req.TaskID, req.ProjectID, req.SectionID, req.Position); err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "task", task.ID, "moved", map[string]any{
		"project_id": req.ProjectID,
		"position":   req.Position,
	})
	return nil
}

// ListFields returns the organization's custom field definitions
func (s *TaskService) ListFields(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.CustomField, error) {
	if _, err := membershipFor(ctx, s.orgRepo, orgID, actorID); err != nil {
		return nil, err
	}
	return s.fieldRepo.ListByOrganization(ctx, orgID)
}

// CreateField defines a custom field for an organization
func (s *TaskService) CreateField(ctx context.Context, actorID, orgID uuid.UUID, req ports.CreateFieldRequest) (*entities.CustomField, error) {
	member, err := membershipFor(ctx, s.orgRepo, orgID, actorID)
	if err != nil {
		return nil, err
	}
	if member.Role != entities.RoleAdmin {
		return nil, fmt.Errorf("only admins may define custom fields: %w", entities.ErrForbidden)
	}
	if req.Name == "" {
		return nil, entities.ErrEmptyName
	}
	if !req.Kind.IsValid() {
		return nil, entities.ErrInvalidFieldKind
	}

	field := &entities.CustomField{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           req.Name,
		Kind:           req.Kind,
		Options:        pq.StringArray(req.Options),
	}

	if err := s.fieldRepo.Create(ctx, field); err != nil {
		return nil, err
	}

	appendActivity(ctx, s.activityRepo, s.logger, orgID, actorID, "custom_field", field.ID, "created", nil)
	return field, nil
}

// SetFieldValue upserts a custom field value on a task
func (s *TaskService) SetFieldValue(ctx context.Context, actorID uuid.UUID, req ports.SetFieldValueRequest) error {
	task, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return err
	}

	value := &entities.CustomFieldValue{
		FieldID: req.FieldID,
		TaskID:  req.TaskID,
		Value:   req.Value,
	}

	if err := s.taskRepo.SetFieldValue(ctx, value); err != nil {
		return fmt.Errorf("failed to set field value: %w", err)
	}

	return nil
}
