package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/database"
	"github.com/teamflow/core/internal/ports"
)

// ProjectRepositoryImpl implements the ProjectRepository interface
type ProjectRepositoryImpl struct {
	db *database.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *database.DB) ports.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entities.Project) error {
	query := `
		INSERT INTO projects (id, organization_id, name, description, status, start_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		project.ID, project.OrganizationID, project.Name, project.Description,
		project.Status, project.StartDate, project.DueDate,
	).Scan(&project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrOrganizationNotFound
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error) {
	query := `
		SELECT id, organization_id, name, description, status, start_date, due_date, created_at, updated_at
		FROM projects
		WHERE id = $1`

	var project entities.Project
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}

	return &project, nil
}

// Update never touches organization_id; the reference is immutable after
// creation.
func (r *ProjectRepositoryImpl) Update(ctx context.Context, project *entities.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, status = $4, start_date = $5, due_date = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		project.ID, project.Name, project.Description, project.Status,
		project.StartDate, project.DueDate,
	).Scan(&project.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrProjectNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrProjectNotFound
	}

	return nil
}

func (r *ProjectRepositoryImpl) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.Project, error) {
	query := `
		SELECT id, organization_id, name, description, status, start_date, due_date, created_at, updated_at
		FROM projects
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	projects := []*entities.Project{}
	err := r.db.SelectContext(ctx, &projects, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

// ListWithProgress aggregates completed/total task counts per project in
// the database. Progress is always computed here, never by walking tasks
// client-side.
func (r *ProjectRepositoryImpl) ListWithProgress(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ProjectProgress, error) {
	query := `
		SELECT p.id, p.organization_id, p.name, p.description, p.status,
			p.start_date, p.due_date, p.created_at, p.updated_at,
			COUNT(pt.task_id) AS total_tasks,
			COUNT(pt.task_id) FILTER (WHERE t.completed_at IS NOT NULL) AS completed_tasks,
			CASE WHEN COUNT(pt.task_id) = 0 THEN 0
				ELSE COUNT(pt.task_id) FILTER (WHERE t.completed_at IS NOT NULL)::float / COUNT(pt.task_id)
			END AS progress
		FROM projects p
		LEFT JOIN project_tasks pt ON pt.project_id = p.id
		LEFT JOIN tasks t ON t.id = pt.task_id
		WHERE p.organization_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT $2`

	items := []*entities.ProjectProgress{}
	err := r.db.SelectContext(ctx, &items, query, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects with progress: %w", err)
	}

	return items, nil
}

func (r *ProjectRepositoryImpl) ListSections(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectSection, error) {
	query := `
		SELECT id, project_id, name, position, created_at
		FROM project_sections
		WHERE project_id = $1
		ORDER BY position, created_at`

	sections := []*entities.ProjectSection{}
	err := r.db.SelectContext(ctx, &sections, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}

	return sections, nil
}

func (r *ProjectRepositoryImpl) GetSection(ctx context.Context, id uuid.UUID) (*entities.ProjectSection, error) {
	query := `
		SELECT id, project_id, name, position, created_at
		FROM project_sections
		WHERE id = $1`

	var section entities.ProjectSection
	err := r.db.GetContext(ctx, &section, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrSectionNotFound
		}
		return nil, fmt.Errorf("get section by id: %w", err)
	}

	return &section, nil
}

func (r *ProjectRepositoryImpl) CreateSection(ctx context.Context, section *entities.ProjectSection) error {
	query := `
		INSERT INTO project_sections (id, project_id, name, position)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		section.ID, section.ProjectID, section.Name, section.Position,
	).Scan(&section.CreatedAt)

	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrProjectNotFound
		}
		return fmt.Errorf("create section: %w", err)
	}

	return nil
}

func (r *ProjectRepositoryImpl) UpdateSection(ctx context.Context, section *entities.ProjectSection) error {
	query := `
		UPDATE project_sections
		SET name = $2, position = $3
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, section.ID, section.Name, section.Position)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrSectionNotFound
	}

	return nil
}

func (r *ProjectRepositoryImpl) DeleteSection(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM project_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrSectionNotFound
	}

	return nil
}
