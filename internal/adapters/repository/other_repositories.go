package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/ports"
)

// TimeLogRepositoryImpl implements the TimeLogRepository interface
type TimeLogRepositoryImpl struct {
	db *sqlx.DB
}

// NewTimeLogRepository creates a new time log repository
func NewTimeLogRepository(db *sqlx.DB) ports.TimeLogRepository {
	return &TimeLogRepositoryImpl{db: db}
}

func (r *TimeLogRepositoryImpl) Create(ctx context.Context, log *entities.TimeLog) error {
	query := `
		INSERT INTO time_logs (id, task_id, user_id, start_time, end_time, duration_minutes, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		log.ID, log.TaskID, log.UserID, log.StartTime, log.EndTime,
		log.DurationMinutes, log.Note,
	).Scan(&log.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("create time log: %w", err)
	}

	return nil
}

func (r *TimeLogRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.TimeLog, error) {
	query := `
		SELECT id, task_id, user_id, start_time, end_time, duration_minutes, note, created_at
		FROM time_logs
		WHERE id = $1`

	var log entities.TimeLog
	err := r.db.GetContext(ctx, &log, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTimeLogNotFound
		}
		return nil, fmt.Errorf("get time log by id: %w", err)
	}

	return &log, nil
}

func (r *TimeLogRepositoryImpl) Update(ctx context.Context, log *entities.TimeLog) error {
	query := `
		UPDATE time_logs
		SET start_time = $2, end_time = $3, duration_minutes = $4, note = $5
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		log.ID, log.StartTime, log.EndTime, log.DurationMinutes, log.Note)
	if err != nil {
		return fmt.Errorf("update time log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTimeLogNotFound
	}

	return nil
}

func (r *TimeLogRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM time_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete time log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTimeLogNotFound
	}

	return nil
}

func (r *TimeLogRepositoryImpl) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.TimeLog, error) {
	query := `
		SELECT id, task_id, user_id, start_time, end_time, duration_minutes, note, created_at
		FROM time_logs
		WHERE task_id = $1
		ORDER BY start_time`

	logs := []*entities.TimeLog{}
	err := r.db.SelectContext(ctx, &logs, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}

	return logs, nil
}

func (r *TimeLogRepositoryImpl) GetOpenForUser(ctx context.Context, userID uuid.UUID) (*entities.TimeLog, error) {
	query := `
		SELECT id, task_id, user_id, start_time, end_time, duration_minutes, note, created_at
		FROM time_logs
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`

	var log entities.TimeLog
	err := r.db.GetContext(ctx, &log, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTimeLogNotFound
		}
		return nil, fmt.Errorf("get open time log: %w", err)
	}

	return &log, nil
}

// CommentRepositoryImpl implements the CommentRepository interface
type CommentRepositoryImpl struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sqlx.DB) ports.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entities.Comment) error {
	query := `
		INSERT INTO comments (id, task_id, author_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		comment.ID, comment.TaskID, comment.AuthorID, comment.Content,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

func (r *CommentRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Comment, error) {
	query := `
		SELECT id, task_id, author_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1`

	var comment entities.Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment by id: %w", err)
	}

	return &comment, nil
}

func (r *CommentRepositoryImpl) Update(ctx context.Context, comment *entities.Comment) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, comment.ID, comment.Content).Scan(&comment.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrCommentNotFound
		}
		return fmt.Errorf("update comment: %w", err)
	}

	return nil
}

func (r *CommentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrCommentNotFound
	}

	return nil
}

func (r *CommentRepositoryImpl) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*entities.Comment, error) {
	query := `
		SELECT id, task_id, author_id, content, created_at, updated_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at`

	comments := []*entities.Comment{}
	err := r.db.SelectContext(ctx, &comments, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

// CustomFieldRepositoryImpl implements the CustomFieldRepository interface
type CustomFieldRepositoryImpl struct {
	db *sqlx.DB
}

// NewCustomFieldRepository creates a new custom field repository
func NewCustomFieldRepository(db *sqlx.DB) ports.CustomFieldRepository {
	return &CustomFieldRepositoryImpl{db: db}
}

func (r *CustomFieldRepositoryImpl) Create(ctx context.Context, field *entities.CustomField) error {
	query := `
		INSERT INTO custom_fields (id, organization_id, name, kind, options)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		field.ID, field.OrganizationID, field.Name, field.Kind, field.Options,
	).Scan(&field.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("field name already used: %w", entities.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return entities.ErrOrganizationNotFound
		}
		return fmt.Errorf("create custom field: %w", err)
	}

	return nil
}

func (r *CustomFieldRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete custom field: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrFieldNotFound
	}

	return nil
}

func (r *CustomFieldRepositoryImpl) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.CustomField, error) {
	query := `
		SELECT id, organization_id, name, kind, options, created_at
		FROM custom_fields
		WHERE organization_id = $1
		ORDER BY name`

	fields := []*entities.CustomField{}
	err := r.db.SelectContext(ctx, &fields, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list custom fields: %w", err)
	}

	return fields, nil
}

// ActivityRepositoryImpl implements the ActivityRepository interface
type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) ports.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (r *ActivityRepositoryImpl) Append(ctx context.Context, entry *entities.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, organization_id, actor_id, entity_type, entity_id, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.OrganizationID, entry.ActorID, entry.EntityType,
		entry.EntityID, entry.Action, entry.Detail,
	).Scan(&entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	return nil
}

func (r *ActivityRepositoryImpl) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ActivityLog, error) {
	query := `
		SELECT id, organization_id, actor_id, entity_type, entity_id, action, detail, created_at
		FROM activity_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	entries := []*entities.ActivityLog{}
	err := r.db.SelectContext(ctx, &entries, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	return entries, nil
}

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *entities.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, organization_id, kind, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		n.ID, n.UserID, n.OrganizationID, n.Kind, n.Payload,
	).Scan(&n.CreatedAt)

	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	query := `
		SELECT id, user_id, organization_id, kind, payload, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	items := []*entities.Notification{}
	err := r.db.SelectContext(ctx, &items, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return items, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}

	return nil
}

func (r *NotificationRepositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND read_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	return nil
}

// AuthRepositoryImpl implements the AuthRepository interface
type AuthRepositoryImpl struct {
	db *sqlx.DB
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db *sqlx.DB) ports.AuthRepository {
	return &AuthRepositoryImpl{db: db}
}

func (r *AuthRepositoryImpl) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token ports.RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	return &token, nil
}

func (r *AuthRepositoryImpl) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE token_hash = $1 AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("revoke all user tokens: %w", err)
	}

	return nil
}
