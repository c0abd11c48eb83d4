package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/database"
	"github.com/teamflow/core/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task, projectID, sectionID *uuid.UUID) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO tasks (id, organization_id, title, description, status, priority,
				due_date, tags, completed_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			task.ID, task.OrganizationID, task.Title, task.Description, task.Status,
			task.Priority, task.DueDate, task.Tags, task.CompletedAt, task.CreatedBy,
		).Scan(&task.CreatedAt, &task.UpdatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return entities.ErrOrganizationNotFound
			}
			return fmt.Errorf("create task: %w", err)
		}

		if projectID == nil {
			return nil
		}

		// Append to the end of the target section's ordering.
		joinQuery := `
			INSERT INTO project_tasks (project_id, task_id, section_id, position)
			SELECT $1, $2, $3, COALESCE(MAX(position) + 1, 0)
			FROM project_tasks
			WHERE project_id = $1 AND section_id IS NOT DISTINCT FROM $3`

		if _, err := tx.ExecContext(ctx, joinQuery, projectID, task.ID, sectionID); err != nil {
			if isForeignKeyViolation(err) {
				return entities.ErrProjectNotFound
			}
			return fmt.Errorf("attach task to project: %w", err)
		}

		return nil
	})
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := `
		SELECT id, organization_id, title, description, status, priority, due_date,
			tags, completed_at, created_by, created_at, updated_at
		FROM tasks
		WHERE id = $1`

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6,
			tags = $7, completed_at = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.Tags, task.CompletedAt,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

// Delete removes board placements first and then the task row. Deleting an
// already-deleted task succeeds; both statements are no-ops then and the
// caller observes the same end state.
func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_tasks WHERE task_id = $1`, id); err != nil {
			return fmt.Errorf("detach task from projects: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}

		return nil
	})
}

func (r *TaskRepositoryImpl) ListByOrganization(ctx context.Context, orgID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	query := `
		SELECT id, organization_id, title, description, status, priority, due_date,
			tags, completed_at, created_by, created_at, updated_at
		FROM tasks
		WHERE organization_id = $1`

	args := []interface{}{orgID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		query += ` AND priority = $` + strconv.Itoa(len(args))
	}
	if filter.Tag != nil {
		args = append(args, *filter.Tag)
		query += ` AND $` + strconv.Itoa(len(args)) + ` = ANY(tags)`
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		query += ` AND due_date <= $` + strconv.Itoa(len(args))
	}
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		query += ` AND title ILIKE $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	tasks := []*entities.Task{}
	err := r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*entities.Task, error) {
	query := `
		SELECT t.id, t.organization_id, t.title, t.description, t.status, t.priority,
			t.due_date, t.tags, t.completed_at, t.created_by, t.created_at, t.updated_at
		FROM tasks t
		JOIN project_tasks pt ON pt.task_id = t.id
		WHERE pt.project_id = $1
		ORDER BY pt.section_id NULLS FIRST, pt.position`

	tasks := []*entities.Task{}
	err := r.db.SelectContext(ctx, &tasks, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}

	return tasks, nil
}

// Move relocates a task to a new section and position, renumbering the
// siblings it leaves and the siblings it joins in the same transaction.
// Client-computed reordering cannot be made consistent across concurrent
// editors, which is why this lives here and nowhere else.
func (r *TaskRepositoryImpl) Move(ctx context.Context, taskID, projectID uuid.UUID, sectionID *uuid.UUID, position int) error {
	if position < 0 {
		position = 0
	}

	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var current entities.ProjectTask
		err := tx.GetContext(ctx, &current, `
			SELECT project_id, task_id, section_id, position
			FROM project_tasks
			WHERE project_id = $1 AND task_id = $2
			FOR UPDATE`, projectID, taskID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("get task placement: %w", err)
		}
		attached := err == nil

		if attached {
			// Close the gap the task leaves behind.
			_, err = tx.ExecContext(ctx, `
				UPDATE project_tasks
				SET position = position - 1
				WHERE project_id = $1 AND section_id IS NOT DISTINCT FROM $2 AND position > $3`,
				projectID, current.SectionID, current.Position)
			if err != nil {
				return fmt.Errorf("close source gap: %w", err)
			}
		}

		// Open a slot at the target position.
		_, err = tx.ExecContext(ctx, `
			UPDATE project_tasks
			SET position = position + 1
			WHERE project_id = $1 AND section_id IS NOT DISTINCT FROM $2
				AND position >= $3 AND task_id <> $4`,
			projectID, sectionID, position, taskID)
		if err != nil {
			return fmt.Errorf("open target slot: %w", err)
		}

		if attached {
			_, err = tx.ExecContext(ctx, `
				UPDATE project_tasks
				SET section_id = $3, position = $4
				WHERE project_id = $1 AND task_id = $2`,
				projectID, taskID, sectionID, position)
			if err != nil {
				return fmt.Errorf("move task placement: %w", err)
			}
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_tasks (project_id, task_id, section_id, position)
			VALUES ($1, $2, $3, $4)`,
			projectID, taskID, sectionID, position)
		if err != nil {
			if isForeignKeyViolation(err) {
				return entities.ErrTaskNotFound
			}
			return fmt.Errorf("attach task placement: %w", err)
		}

		return nil
	})
}

func (r *TaskRepositoryImpl) GetFieldValues(ctx context.Context, taskID uuid.UUID) ([]entities.CustomFieldValue, error) {
	query := `
		SELECT field_id, task_id, value
		FROM custom_field_values
		WHERE task_id = $1`

	values := []entities.CustomFieldValue{}
	err := r.db.SelectContext(ctx, &values, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("get field values: %w", err)
	}

	return values, nil
}

func (r *TaskRepositoryImpl) SetFieldValue(ctx context.Context, value *entities.CustomFieldValue) error {
	query := `
		INSERT INTO custom_field_values (field_id, task_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (field_id, task_id) DO UPDATE SET value = EXCLUDED.value`

	_, err := r.db.ExecContext(ctx, query, value.FieldID, value.TaskID, value.Value)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrFieldNotFound
		}
		return fmt.Errorf("set field value: %w", err)
	}

	return nil
}
