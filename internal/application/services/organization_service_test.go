package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/teamflow/core/internal/domain/entities"
	"github.com/teamflow/core/internal/infrastructure/logger"
	"github.com/teamflow/core/internal/ports"
)

type orgServiceFixture struct {
	svc      *OrganizationService
	orgRepo  *fakeOrgRepo
	userRepo *fakeUserRepo
	orgID    uuid.UUID
	admin    uuid.UUID
	editor   uuid.UUID
	viewer   uuid.UUID
}

func newOrgFixture(t *testing.T) *orgServiceFixture {
	t.Helper()
	f := &orgServiceFixture{
		orgRepo:  newFakeOrgRepo(),
		userRepo: newFakeUserRepo(),
		orgID:    uuid.New(),
		admin:    uuid.New(),
		editor:   uuid.New(),
		viewer:   uuid.New(),
	}
	for _, id := range []uuid.UUID{f.admin, f.editor, f.viewer} {
		f.userRepo.users[id] = &entities.User{ID: id, Email: id.String() + "@test"}
	}
	f.orgRepo.orgs[f.orgID] = &entities.Organization{ID: f.orgID, Name: "Acme", OwnerID: f.admin}
	f.orgRepo.addMembership(f.orgID, f.admin, entities.RoleAdmin)
	f.orgRepo.addMembership(f.orgID, f.editor, entities.RoleEditor)
	f.orgRepo.addMembership(f.orgID, f.viewer, entities.RoleViewer)
	f.svc = NewOrganizationService(f.orgRepo, f.userRepo, &fakeActivityRepo{}, logger.NewNop())
	return f
}

func TestCreateOrganizationMakesOwnerAdmin(t *testing.T) {
	f := newOrgFixture(t)
	owner := uuid.New()
	f.userRepo.users[owner] = &entities.User{ID: owner, Email: "owner@test"}

	org, err := f.svc.CreateOrganization(context.Background(), owner, ports.CreateOrganizationRequest{Name: "New Co"})
	if err != nil {
		t.Fatalf("CreateOrganization() error = %v", err)
	}
	m, err := f.orgRepo.GetMembership(context.Background(), org.ID, owner)
	if err != nil {
		t.Fatalf("owner has no membership: %v", err)
	}
	if m.Role != entities.RoleAdmin {
		t.Errorf("owner role = %q, want admin", m.Role)
	}
}

func TestCreateOrganizationRejectsEmptyName(t *testing.T) {
	f := newOrgFixture(t)
	_, err := f.svc.CreateOrganization(context.Background(), f.admin, ports.CreateOrganizationRequest{Name: "   "})
	if !errors.Is(err, entities.ErrValidation) {
		t.Errorf("CreateOrganization(blank) error = %v, want ErrValidation", err)
	}
}

func TestUpdateOrganizationRequiresAdmin(t *testing.T) {
	f := newOrgFixture(t)
	name := "Renamed"
	req := ports.UpdateOrganizationRequest{Name: &name}

	if _, err := f.svc.UpdateOrganization(context.Background(), f.editor, f.orgID, req); !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("editor UpdateOrganization() error = %v, want ErrForbidden", err)
	}
	org, err := f.svc.UpdateOrganization(context.Background(), f.admin, f.orgID, req)
	if err != nil {
		t.Fatalf("admin UpdateOrganization() error = %v", err)
	}
	if org.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", org.Name)
	}
}

func TestAddMemberPermissions(t *testing.T) {
	f := newOrgFixture(t)
	newUser := uuid.New()
	f.userRepo.users[newUser] = &entities.User{ID: newUser, Email: "new@test"}

	// A viewer cannot invite anyone.
	_, err := f.svc.AddMember(context.Background(), f.viewer, f.orgID, ports.AddMemberRequest{UserID: newUser, Role: entities.RoleViewer})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("viewer AddMember() error = %v, want ErrForbidden", err)
	}

	// An editor can invite, but cannot mint admins.
	_, err = f.svc.AddMember(context.Background(), f.editor, f.orgID, ports.AddMemberRequest{UserID: newUser, Role: entities.RoleAdmin})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("editor AddMember(admin) error = %v, want ErrForbidden", err)
	}
	m, err := f.svc.AddMember(context.Background(), f.editor, f.orgID, ports.AddMemberRequest{UserID: newUser, Role: entities.RoleViewer})
	if err != nil {
		t.Fatalf("editor AddMember(viewer) error = %v", err)
	}
	if m.Role != entities.RoleViewer {
		t.Errorf("Role = %q, want viewer", m.Role)
	}

	// Inviting the same user twice conflicts.
	_, err = f.svc.AddMember(context.Background(), f.admin, f.orgID, ports.AddMemberRequest{UserID: newUser, Role: entities.RoleViewer})
	if !errors.Is(err, entities.ErrConflict) {
		t.Errorf("duplicate AddMember() error = %v, want ErrConflict", err)
	}
}

func TestChangeMemberRoleRequiresAdmin(t *testing.T) {
	f := newOrgFixture(t)

	err := f.svc.ChangeMemberRole(context.Background(), f.editor, f.orgID, f.viewer, entities.RoleEditor)
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("editor ChangeMemberRole() error = %v, want ErrForbidden", err)
	}
	if err := f.svc.ChangeMemberRole(context.Background(), f.admin, f.orgID, f.viewer, entities.RoleEditor); err != nil {
		t.Fatalf("admin ChangeMemberRole() error = %v", err)
	}
	m, _ := f.orgRepo.GetMembership(context.Background(), f.orgID, f.viewer)
	if m.Role != entities.RoleEditor {
		t.Errorf("Role = %q, want editor", m.Role)
	}
}

func TestRemoveMemberMatrix(t *testing.T) {
	tests := []struct {
		name      string
		actor     func(f *orgServiceFixture) uuid.UUID
		target    func(f *orgServiceFixture) uuid.UUID
		wantErr   error
		wantCalls int
	}{
		{"editor removes viewer", func(f *orgServiceFixture) uuid.UUID { return f.editor }, func(f *orgServiceFixture) uuid.UUID { return f.viewer }, nil, 1},
		{"admin removes editor", func(f *orgServiceFixture) uuid.UUID { return f.admin }, func(f *orgServiceFixture) uuid.UUID { return f.editor }, nil, 1},
		{"admin removes admin", func(f *orgServiceFixture) uuid.UUID { return f.admin }, func(f *orgServiceFixture) uuid.UUID { return f.admin }, nil, 1},
		{"editor removes admin", func(f *orgServiceFixture) uuid.UUID { return f.editor }, func(f *orgServiceFixture) uuid.UUID { return f.admin }, entities.ErrForbidden, 0},
		{"viewer removes editor", func(f *orgServiceFixture) uuid.UUID { return f.viewer }, func(f *orgServiceFixture) uuid.UUID { return f.editor }, entities.ErrForbidden, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrgFixture(t)
			err := f.svc.RemoveMember(context.Background(), tt.actor(f), f.orgID, tt.target(f))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("RemoveMember() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("RemoveMember() error = %v, want %v", err, tt.wantErr)
			}
			// Rejections must happen before the repository write.
			if f.orgRepo.removedMembers != tt.wantCalls {
				t.Errorf("repository RemoveMember called %d times, want %d", f.orgRepo.removedMembers, tt.wantCalls)
			}
		})
	}
}
