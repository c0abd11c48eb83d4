package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// TimeLogService handles time tracking operations
type TimeLogService struct {
	timeLogRepo  ports.TimeLogRepository
	taskRepo     ports.TaskRepository
	orgRepo      ports.OrganizationRepository
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewTimeLogService creates a new time log service
func NewTimeLogService(timeLogRepo ports.TimeLogRepository, taskRepo ports.TaskRepository, orgRepo ports.OrganizationRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *TimeLogService {
	return &TimeLogService{
		timeLogRepo:  timeLogRepo,
		taskRepo:     taskRepo,
		orgRepo:      orgRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateTimeLog records time against a task. A log with no end time is an
// open timer. Duration is derived from the interval unless the caller
// supplies an explicit value.
func (s *TimeLogService) CreateTimeLog(ctx context.Context, actorID uuid.UUID, req ports.CreateTimeLogRequest) (*entities.TimeLog, error) {
	task, err := s.taskRepo.GetByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if req.EndTime != nil && req.EndTime.Before(req.StartTime) {
		return nil, entities.ErrInvalidTimeLog
	}

	duration := entities.ComputeDurationMinutes(req.StartTime, req.EndTime)
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	log := &entities.TimeLog{
		ID:              uuid.New(),
		TaskID:          req.TaskID,
		UserID:          actorID,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: duration,
		Note:            req.Note,
	}

	if err := s.timeLogRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create time log: %w", err)
	}

	s.logger.Info("Time log created", "time_log_id", log.ID, "task_id", req.TaskID, "user_id", actorID)
	appendActivity(ctx, s.activityRepo, s.logger, task.OrganizationID, actorID, "time_log", log.ID, "created", nil)

	return log, nil
}

// UpdateTimeLog adjusts a time log the actor owns. Duration is re-derived
// from the adjusted interval.
func (s *TimeLogService) UpdateTimeLog(ctx context.Context, actorID, id uuid.UUID, req ports.UpdateTimeLogRequest) (*entities.TimeLog, error) {
	log, err := s.timeLogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log.UserID != actorID {
		return nil, fmt.Errorf("time logs may only be edited by their owner: %w", entities.ErrForbidden)
	}

	if req.StartTime != nil {
		log.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		log.EndTime = req.EndTime
	}
	if req.Note != nil {
		log.Note = req.Note
	}
	if log.EndTime != nil && log.EndTime.Before(log.StartTime) {
		return nil, entities.ErrInvalidTimeLog
	}
	log.DurationMinutes = entities.ComputeDurationMinutes(log.StartTime, log.EndTime)

	if err := s.timeLogRepo.Update(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to update time log: %w", err)
	}

	return log, nil
}

// DeleteTimeLog removes a time log the actor owns
func (s *TimeLogService) DeleteTimeLog(ctx context.Context, actorID, id uuid.UUID) error {
	log, err := s.timeLogRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if log.UserID != actorID {
		return fmt.Errorf("time logs may only be deleted by their owner: %w", entities.ErrForbidden)
	}

	if err := s.timeLogRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}

	s.logger.Info("Time log deleted", "time_log_id", id, "user_id", actorID)
	return nil
}

// ListTaskTimeLogs returns a task's time logs in start order
func (s *TimeLogService) ListTaskTimeLogs(ctx context.Context, actorID, taskID uuid.UUID) ([]*entities.TimeLog, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, task.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return s.timeLogRepo.ListByTask(ctx, taskID)
}

// StopOpenTimeLog closes the actor's open timer, deriving its duration
func (s *TimeLogService) StopOpenTimeLog(ctx context.Context, actorID uuid.UUID) (*entities.TimeLog, error) {
	log, err := s.timeLogRepo.GetOpenForUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if err := log.Close(time.Now()); err != nil {
		return nil, err
	}

	if err := s.timeLogRepo.Update(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to stop time log: %w", err)
	}

	s.logger.Info("Time log stopped", "time_log_id", log.ID, "user_id", actorID, "duration_minutes", log.DurationMinutes)
	return log, nil
}
