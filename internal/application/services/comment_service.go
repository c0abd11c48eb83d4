package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// CommentService handles task comments
type CommentService struct {
	commentRepo      ports.CommentRepository
	taskRepo         ports.TaskRepository
	orgRepo          ports.OrganizationRepository
	notificationRepo ports.NotificationRepository
	activityRepo     ports.ActivityRepository
	logger           *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(commentRepo ports.CommentRepository, taskRepo ports.TaskRepository, orgRepo ports.OrganizationRepository, notificationRepo ports.NotificationRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *CommentService {
	return &CommentService{
		commentRepo:      commentRepo,
		taskRepo:         taskRepo,
		orgRepo:          orgRepo,
		notificationRepo: notificationRepo,
		activityRepo:     activityRepo,
		logger:           logger,
	}
}

// CreateComment adds a comment to a task and notifies the task's creator
func (s *CommentService) CreateComment(ctx context.Context, actorID uuid.UUID, req ports.CreateCommentRequest) (*entities.Comment, error) {
	task, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if req.Content == "" {
		return nil, entities.ErrEmptyContent
	}

	comment := &entities.Comment{
		ID:       uuid.New(),
		TaskID:   req.TaskID,
		AuthorID: actorID,
		Content:  req.Content,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "comment", comment.ID, "created", nil)

	// Commenting on your own task produces no notification.
	if task.CreatedBy != actorID {
		s.notify(ctx, task, comment)
	}

	return comment, nil
}

// UpdateComment edits a comment the actor authored
func (s *CommentService) UpdateComment(ctx context.Context, actorID, id uuid.UUID, content string) (*entities.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actorID {
		return nil, fmt.Errorf("comments may only be edited by their author: %w", entities.ErrForbidden)
	}
	if content == "" {
		return nil, entities.ErrEmptyContent
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment. Authors may delete their own; admins may
// delete anyone's.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, id uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if comment.AuthorID != actorID {
		task, err := s.taskRepo.GetByID(ctx, comment.TaskID)
		if err != nil {
			return err
		}
		member, err := membershipFor(ctx, s.orgRepo, task.OrganizationID, actorID)
		if err != nil {
			return err
		}
		if member.Role != entities.RoleAdmin {
			return fmt.Errorf("only the author or an admin may delete a comment: %w", entities.ErrForbidden)
		}
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// ListTaskComments returns a task's comments oldest first
func (s *CommentService) ListTaskComments(ctx context.Context, actorID, taskID uuid.UUID) ([]*entities.Comment, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByTask(ctx, taskID)
}

func (s *CommentService) notify(ctx context.Context, task *entities.Task, comment *entities.Comment) {
	payload, err := json.Marshal(map[string]any{
		"task_id":    task.ID,
		"task_title": task.Title,
		"comment_id": comment.ID,
		"author_id":  comment.AuthorID,
	})
	if err != nil {
		return
	}

	n := &entities.Notification{
		UserID:         task.CreatedBy,
		OrganizationID: task.OrganizationID,
		Kind:           "task_commented",
		Payload:        payload,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("Failed to create notification", "error", err, "task_id", task.ID)
	}
}
