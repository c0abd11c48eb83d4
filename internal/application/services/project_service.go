package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

// ProjectService handles project and section management
type ProjectService struct {
	projectRepo  ports.ProjectRepository
	orgRepo      ports.OrganizationRepository
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, orgRepo ports.OrganizationRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo:  projectRepo,
		orgRepo:      orgRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateProject creates a project in an organization
func (s *ProjectService) CreateProject(ctx context.Context, actorID uuid.UUID, req ports.CreateProjectRequest) (*entities.Project, error) {
	if _, err := requireWriter(ctx, s.orgRepo, req.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, entities.ErrEmptyName
	}

	status := req.Status
	if status == "" {
		status = entities.ProjectStatusActive
	}
	if !status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}

	project := &entities.Project{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         status,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Info("Project created", "project_id", project.ID, "org_id", project.OrganizationID)
	appendActivity(ctx, s.activityRepo, s.logger, project.OrganizationID, actorID, "project", project.ID, "created", nil)

	return project, nil
}

// GetProject returns a project visible to the actor
func (s *ProjectService) GetProject(ctx context.Context, actorID, id uuid.UUID) (*entities.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProject applies a partial update to a project. The organization a
// project belongs to never changes.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, id uuid.UUID, req ports.UpdateProjectRequest) (*entities.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, entities.ErrEmptyName
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, entities.ErrInvalidStatus
		}
		project.Status = *req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.DueDate != nil {
		project.DueDate = req.DueDate
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, project.OrganizationID, actorID, "project", project.ID, "updated", nil)
	return project, nil
}

// DeleteProject removes a project and its board placements
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, id uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := requireWriter(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("Project deleted", "project_id", id, "actor_id", actorID)
	appendActivity(ctx, s.activityRepo, s.logger, project.OrganizationID, actorID, "project", id, "deleted", nil)
	return nil
}

// ListProjects returns the projects of an organization
func (s *ProjectService) ListProjects(ctx context.Context, actorID, orgID uuid.UUID) ([]*entities.Project, error) {
	if _, err := membershipFor(ctx, s.orgRepo, orgID, actorID); err != nil {
		return nil, err
	}
	return s.projectRepo.ListByOrganization(ctx, orgID)
}

// ListProjectsWithProgress returns projects with completed/total task counts.
// Counting happens in the database so clients never page whole task sets to
// draw a progress bar.
func (s *ProjectService) ListProjectsWithProgress(ctx context.Context, actorID, orgID uuid.UUID, limit int) ([]*entities.ProjectProgress, error) {
	if _, err := membershipFor(ctx, s.orgRepo, orgID, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.projectRepo.ListWithProgress(ctx, orgID, limit)
}

// ListSections returns the sections of a project in board order
func (s *ProjectService) ListSections(ctx context.Context, actorID, projectID uuid.UUID) ([]*entities.ProjectSection, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := membershipFor(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return nil, err
	}
	return s.projectRepo.ListSections(ctx, projectID)
}

// CreateSection adds a section to a project board
func (s *ProjectService) CreateSection(ctx context.Context, actorID, projectID uuid.UUID, req ports.CreateSectionRequest) (*entities.ProjectSection, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := requireWriter(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, entities.ErrEmptyName
	}

	section := &entities.ProjectSection{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      req.Name,
		Position:  req.Position,
	}

	if err := s.projectRepo.CreateSection(ctx, section); err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, project.OrganizationID, actorID, "section", section.ID, "created", nil)
	return section, nil
}

// DeleteSection removes a section. Tasks in it fall back to the unsectioned
// part of the board.
func (s *ProjectService) DeleteSection(ctx context.Context, actorID, sectionID uuid.UUID) error {
	_, project, err := s.sectionProject(ctx, sectionID)
	if err != nil {
		return err
	}
	if _, err := requireWriter(ctx, s.orgRepo, project.OrganizationID, actorID); err != nil {
		return err
	}

	if err := s.projectRepo.DeleteSection(ctx, sectionID); err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}

	appendActivity(ctx, s.activityRepo, s.logger, project.OrganizationID, actorID, "section", sectionID, "deleted", nil)
	return nil
}

func (s *ProjectService) sectionProject(ctx context.Context, sectionID uuid.UUID) (*entities.ProjectSection, *entities.Project, error) {
	section, err := s.projectRepo.GetSection(ctx, sectionID)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, section.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return section, project, nil
}
