package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/ports"
)

// In-memory fakes for the repository ports. Each fake keeps just enough
// state for the service tests and records the calls the tests assert on.

type fakeOrgRepo struct {
	orgs        map[uuid.UUID]*entities.Organization
	memberships map[uuid.UUID]map[uuid.UUID]*entities.Membership

	removedMembers int
	updatedRoles   int
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{
		orgs:        make(map[uuid.UUID]*entities.Organization),
		memberships: make(map[uuid.UUID]map[uuid.UUID]*entities.Membership),
	}
}

func (r *fakeOrgRepo) addMembership(orgID, userID uuid.UUID, role entities.Role) {
	if r.memberships[orgID] == nil {
		r.memberships[orgID] = make(map[uuid.UUID]*entities.Membership)
	}
	r.memberships[orgID][userID] = &entities.Membership{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
	}
}

func (r *fakeOrgRepo) CreateWithOwner(ctx context.Context, org *entities.Organization) (*entities.Membership, error) {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	r.orgs[org.ID] = org
	r.addMembership(org.ID, org.OwnerID, entities.RoleAdmin)
	return r.memberships[org.ID][org.OwnerID], nil
}

func (r *fakeOrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, entities.ErrOrganizationNotFound
	}
	return org, nil
}

func (r *fakeOrgRepo) Update(ctx context.Context, org *entities.Organization) error {
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.orgs, id)
	return nil
}

func (r *fakeOrgRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Organization, error) {
	var out []*entities.Organization
	for orgID, members := range r.memberships {
		if _, ok := members[userID]; ok {
			if org, exists := r.orgs[orgID]; exists {
				out = append(out, org)
			}
		}
	}
	return out, nil
}

func (r *fakeOrgRepo) GetMembership(ctx context.Context, orgID, userID uuid.UUID) (*entities.Membership, error) {
	m, ok := r.memberships[orgID][userID]
	if !ok {
		return nil, entities.ErrMembershipNotFound
	}
	return m, nil
}

func (r *fakeOrgRepo) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*entities.Membership, error) {
	var out []*entities.Membership
	for _, m := range r.memberships[orgID] {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeOrgRepo) AddMember(ctx context.Context, member *entities.Membership) error {
	if _, ok := r.memberships[member.OrganizationID][member.UserID]; ok {
		return fmt.Errorf("already a member: %w", entities.ErrConflict)
	}
	r.addMembership(member.OrganizationID, member.UserID, member.Role)
	return nil
}

func (r *fakeOrgRepo) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, role entities.Role) error {
	m, ok := r.memberships[orgID][userID]
	if !ok {
		return entities.ErrMembershipNotFound
	}
	m.Role = role
	r.updatedRoles++
	return nil
}

func (r *fakeOrgRepo) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	delete(r.memberships[orgID], userID)
	r.removedMembers++
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entities.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entities.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeProjectRepo struct {
	projects map[uuid.UUID]*entities.Project
	sections map[uuid.UUID]*entities.ProjectSection
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects: make(map[uuid.UUID]*entities.Project),
		sections: make(map[uuid.UUID]*entities.ProjectSection),
	}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *entities.Project) error {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, entities.ErrProjectNotFound
	}
	return p, nil
}

func (r *fakeProjectRepo) Update(ctx context.Context, project *entities.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.projects, id)
	return nil
}

func (r *fakeProjectRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.Project, error) {
	var out []*entities.Project
	for _, p := range r.projects {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) ListWithProgress(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ProjectProgress, error) {
	return nil, nil
}

func (r *fakeProjectRepo) ListSections(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectSection, error) {
	var out []*entities.ProjectSection
	for _, s := range r.sections {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) GetSection(ctx context.Context, id uuid.UUID) (*entities.ProjectSection, error) {
	s, ok := r.sections[id]
	if !ok {
		return nil, entities.ErrSectionNotFound
	}
	return s, nil
}

func (r *fakeProjectRepo) CreateSection(ctx context.Context, section *entities.ProjectSection) error {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}
	r.sections[section.ID] = section
	return nil
}

func (r *fakeProjectRepo) UpdateSection(ctx context.Context, section *entities.ProjectSection) error {
	r.sections[section.ID] = section
	return nil
}

func (r *fakeProjectRepo) DeleteSection(ctx context.Context, id uuid.UUID) error {
	delete(r.sections, id)
	return nil
}

type fakeTaskRepo struct {
	tasks   map[uuid.UUID]*entities.Task
	updates int
	deletes int
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entities.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entities.Task, projectID, sectionID *uuid.UUID) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *entities.Task) error {
	r.tasks[task.ID] = task
	r.updates++
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.tasks, id)
	r.deletes++
	return nil
}

func (r *fakeTaskRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.tasks {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*entities.Task, error) {
	return nil, nil
}

func (r *fakeTaskRepo) Move(ctx context.Context, taskID, projectID uuid.UUID, sectionID *uuid.UUID, position int) error {
	return nil
}

func (r *fakeTaskRepo) GetFieldValues(ctx context.Context, taskID uuid.UUID) ([]entities.CustomFieldValue, error) {
	return nil, nil
}

func (r *fakeTaskRepo) SetFieldValue(ctx context.Context, value *entities.CustomFieldValue) error {
	return nil
}

type fakeFieldRepo struct {
	fields map[uuid.UUID]*entities.CustomField
}

func newFakeFieldRepo() *fakeFieldRepo {
	return &fakeFieldRepo{fields: make(map[uuid.UUID]*entities.CustomField)}
}

func (r *fakeFieldRepo) Create(ctx context.Context, field *entities.CustomField) error {
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}
	r.fields[field.ID] = field
	return nil
}

func (r *fakeFieldRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.fields, id)
	return nil
}

func (r *fakeFieldRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*entities.CustomField, error) {
	var out []*entities.CustomField
	for _, f := range r.fields {
		if f.OrganizationID == orgID {
			out = append(out, f)
		}
	}
	return out, nil
}

type fakeActivityRepo struct {
	entries []*entities.ActivityLog
}

func (r *fakeActivityRepo) Append(ctx context.Context, entry *entities.ActivityLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeActivityRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]*entities.ActivityLog, error) {
	return r.entries, nil
}
