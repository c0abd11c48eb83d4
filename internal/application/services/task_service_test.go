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

type taskServiceFixture struct {
	svc      *TaskService
	taskRepo *fakeTaskRepo
	orgRepo  *fakeOrgRepo
	orgID    uuid.UUID
	admin    uuid.UUID
	editor   uuid.UUID
	viewer   uuid.UUID
	outsider uuid.UUID
}

func newTaskFixture() *taskServiceFixture {
	f := &taskServiceFixture{
		taskRepo: newFakeTaskRepo(),
		orgRepo:  newFakeOrgRepo(),
		orgID:    uuid.New(),
		admin:    uuid.New(),
		editor:   uuid.New(),
		viewer:   uuid.New(),
		outsider: uuid.New(),
	}
	f.orgRepo.orgs[f.orgID] = &entities.Organization{ID: f.orgID, Name: "Acme", OwnerID: f.admin}
	f.orgRepo.addMembership(f.orgID, f.admin, entities.RoleAdmin)
	f.orgRepo.addMembership(f.orgID, f.editor, entities.RoleEditor)
	f.orgRepo.addMembership(f.orgID, f.viewer, entities.RoleViewer)
	f.svc = NewTaskService(f.taskRepo, newFakeProjectRepo(), f.orgRepo, newFakeFieldRepo(), &fakeActivityRepo{}, logger.NewNop())
	return f
}

func (f *taskServiceFixture) createTask(t *testing.T, actor uuid.UUID) *entities.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), actor, ports.CreateTaskRequest{
		OrganizationID: f.orgID,
		Title:          "Write release notes",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newTaskFixture()
	task := f.createTask(t, f.editor)

	if task.Status != entities.TaskStatusTodo {
		t.Errorf("Status = %q, want %q", task.Status, entities.TaskStatusTodo)
	}
	if task.Priority != entities.PriorityMedium {
		t.Errorf("Priority = %q, want %q", task.Priority, entities.PriorityMedium)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", task.CompletedAt)
	}
	if task.CreatedBy != f.editor {
		t.Errorf("CreatedBy = %s, want %s", task.CreatedBy, f.editor)
	}
}

func TestCreateTaskPermissions(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.CreateTask(context.Background(), f.viewer, ports.CreateTaskRequest{
		OrganizationID: f.orgID,
		Title:          "not allowed",
	})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("viewer CreateTask() error = %v, want ErrForbidden", err)
	}

	// A non-member is rejected the same way, never told the org exists.
	_, err = f.svc.CreateTask(context.Background(), f.outsider, ports.CreateTaskRequest{
		OrganizationID: f.orgID,
		Title:          "not allowed",
	})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("outsider CreateTask() error = %v, want ErrForbidden", err)
	}
}

func TestUpdateTaskStatusCouplesCompletion(t *testing.T) {
	f := newTaskFixture()
	task := f.createTask(t, f.editor)

	done, err := f.svc.UpdateTaskStatus(context.Background(), f.editor, task.ID, entities.TaskStatusDone)
	if err != nil {
		t.Fatalf("UpdateTaskStatus(done) error = %v", err)
	}
	if done.Status != entities.TaskStatusDone {
		t.Errorf("Status = %q, want done", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt = nil, want stamped with the transition")
	}

	reopened, err := f.svc.UpdateTaskStatus(context.Background(), f.editor, task.ID, entities.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("UpdateTaskStatus(in_progress) error = %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want cleared on leaving done", reopened.CompletedAt)
	}
}

func TestUpdateTaskEmptyRequestIsNoop(t *testing.T) {
	f := newTaskFixture()
	task := f.createTask(t, f.editor)
	updatesBefore := f.taskRepo.updates

	got, err := f.svc.UpdateTask(context.Background(), f.editor, task.ID, ports.UpdateTaskRequest{})
	if err != nil {
		t.Fatalf("UpdateTask(empty) error = %v", err)
	}
	if got.Title != task.Title || got.Status != task.Status {
		t.Errorf("task changed by empty update: %+v", got)
	}
	if f.taskRepo.updates != updatesBefore {
		t.Errorf("repository Update called %d times for an empty request, want 0",
			f.taskRepo.updates-updatesBefore)
	}
}

func TestDeleteTaskIsIdempotent(t *testing.T) {
	f := newTaskFixture()
	task := f.createTask(t, f.editor)

	if err := f.svc.DeleteTask(context.Background(), f.editor, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	// Deleting again succeeds: the task being gone is the goal state.
	if err := f.svc.DeleteTask(context.Background(), f.editor, task.ID); err != nil {
		t.Errorf("second DeleteTask() error = %v, want nil", err)
	}
}

func TestGetTaskHidesForeignOrganizations(t *testing.T) {
	f := newTaskFixture()
	task := f.createTask(t, f.editor)

	_, err := f.svc.GetTask(context.Background(), f.outsider, task.ID)
	if !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("outsider GetTask() error = %v, want ErrForbidden", err)
	}

	// The viewer reads fine; read access needs membership only.
	if _, err := f.svc.GetTask(context.Background(), f.viewer, task.ID); err != nil {
		t.Errorf("viewer GetTask() error = %v", err)
	}
}

func TestCreateFieldRequiresAdmin(t *testing.T) {
	f := newTaskFixture()

	req := ports.CreateFieldRequest{Name: "Budget", Kind: entities.FieldKindCurrency}
	if _, err := f.svc.CreateField(context.Background(), f.editor, f.orgID, req); !errors.Is(err, entities.ErrForbidden) {
		t.Errorf("editor CreateField() error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.CreateField(context.Background(), f.admin, f.orgID, req); err != nil {
		t.Errorf("admin CreateField() error = %v", err)
	}
}
