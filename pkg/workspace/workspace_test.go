package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teamflow/core/pkg/store"
)

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, store.ErrNotFound},
		{http.StatusConflict, store.ErrConflict},
		{http.StatusUnauthorized, store.ErrForbidden},
		{http.StatusForbidden, store.ErrForbidden},
		{http.StatusBadRequest, store.ErrValidation},
		{http.StatusUnprocessableEntity, store.ErrValidation},
		{http.StatusInternalServerError, store.ErrUnknown},
		{http.StatusBadGateway, store.ErrUnknown},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"nope"}`, tt.status)
		}))
		g := NewGateway(srv.URL)
		err := g.do(context.Background(), http.MethodGet, "/organizations", nil, nil)
		srv.Close()

		if !errors.Is(err, tt.want) {
			t.Errorf("status %d classified as %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestSignInInstallsBearerToken(t *testing.T) {
	var sawAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/signin":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "token-abc",
				"token_type":   "Bearer",
				"user":         map[string]any{"id": uuid.New(), "email": "a@b.c"},
			})
		case "/organizations":
			sawAuth.Store(r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode([]Organization{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	if _, err := g.SignIn(context.Background(), "a@b.c", "secret"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if err := g.do(context.Background(), http.MethodGet, "/organizations", nil, nil); err != nil {
		t.Fatalf("request after sign-in error = %v", err)
	}
	if got := sawAuth.Load(); got != "Bearer token-abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer token-abc")
	}
}

func TestProjectCreateThenList(t *testing.T) {
	orgID := uuid.New()
	var projects []Project

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/projects":
			var body struct {
				OrganizationID uuid.UUID `json:"organization_id"`
				Name           string    `json:"name"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			p := Project{
				ID:             uuid.New(),
				OrganizationID: body.OrganizationID,
				Name:           body.Name,
				Status:         "active",
				CreatedAt:      time.Now(),
			}
			projects = append(projects, p)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(p)
		case r.Method == http.MethodGet && r.URL.Path == "/organizations/"+orgID.String()+"/projects":
			json.NewEncoder(w).Encode(projects)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewGateway(srv.URL)
	s := NewProjectStore(g, orgID)
	defer s.Dispose()

	if ok := s.CreateProject(context.Background(), "Launch", nil); !ok {
		t.Fatalf("CreateProject() = false, err %v", s.Err())
	}
	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("Items() length = %d, want 1", len(items))
	}
	if items[0].Name != "Launch" {
		t.Errorf("Name = %q, want %q", items[0].Name, "Launch")
	}
	if items[0].OrganizationID != orgID {
		t.Errorf("OrganizationID = %s, want %s", items[0].OrganizationID, orgID)
	}

	// A fresh list from the server agrees with the local collection.
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	items = s.Items()
	if len(items) != 1 || items[0].Name != "Launch" {
		t.Errorf("after refresh = %+v, want the created project", items)
	}
}

func TestProjectCreateEmptyNameRejectedLocally(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewProjectStore(NewGateway(srv.URL), uuid.New())
	defer s.Dispose()

	if ok := s.CreateProject(context.Background(), "   ", nil); ok {
		t.Fatal("CreateProject() = true, want local rejection")
	}
	if !errors.Is(s.Err(), store.ErrValidation) {
		t.Errorf("Err() = %v, want ErrValidation", s.Err())
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d requests, want 0", calls.Load())
	}
}

func TestTaskStatusUpdateRollsBackOnFailure(t *testing.T) {
	orgID := uuid.New()
	projectID := uuid.New()
	taskID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/projects/"+projectID.String()+"/tasks":
			json.NewEncoder(w).Encode([]Task{{
				ID:             taskID,
				OrganizationID: orgID,
				Title:          "Ship it",
				Status:         "todo",
				Priority:       "medium",
			}})
		case r.Method == http.MethodPut && r.URL.Path == "/tasks/"+taskID.String()+"/status":
			http.Error(w, `{"message":"viewer role is read-only"}`, http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewTaskStore(NewGateway(srv.URL), orgID, projectID)
	defer s.Dispose()
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if ok := s.UpdateStatus(context.Background(), taskID, "done"); ok {
		t.Fatal("UpdateStatus() = true, want failure")
	}

	// The rollback restores the exact pre-mutation state: status and its
	// coupled completion timestamp both revert.
	got, ok := s.Get(taskID)
	if !ok {
		t.Fatal("task missing after rollback")
	}
	if got.Status != "todo" {
		t.Errorf("Status = %q, want %q", got.Status, "todo")
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", got.CompletedAt)
	}
	if !errors.Is(s.Err(), store.ErrForbidden) {
		t.Errorf("Err() = %v, want ErrForbidden", s.Err())
	}
}

func TestStatusPatchDerivesCompletion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	done := StatusPatch("done", now).Apply(Task{Status: "todo"})
	if done.Status != "done" {
		t.Errorf("Status = %q, want done", done.Status)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", done.CompletedAt, now)
	}

	reopened := StatusPatch("in_progress", now).Apply(done)
	if reopened.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil after leaving done", reopened.CompletedAt)
	}
}

func TestEditorCannotRemoveAdminLocally(t *testing.T) {
	orgID := uuid.New()
	adminID := uuid.New()
	editorID := uuid.New()
	var calls atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/organizations/"+orgID.String()+"/members" {
			json.NewEncoder(w).Encode([]Member{
				{ID: uuid.New(), OrganizationID: orgID, UserID: adminID, Role: RoleAdmin},
				{ID: uuid.New(), OrganizationID: orgID, UserID: editorID, Role: RoleEditor},
			})
			return
		}
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewMemberStore(NewGateway(srv.URL), orgID)
	defer s.Dispose()
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	err := s.RemoveMember(context.Background(), RoleEditor, adminID)
	if !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("RemoveMember() error = %v, want ErrForbidden", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d mutation requests, want 0", calls.Load())
	}
	// The admin is still in the collection: nothing was optimistically
	// removed.
	if _, ok := s.Get(adminID); !ok {
		t.Error("admin missing from collection after local rejection")
	}

	// A viewer cannot remove anyone.
	if err := s.RemoveMember(context.Background(), RoleViewer, editorID); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("viewer RemoveMember() error = %v, want ErrForbidden", err)
	}
	// Editors cannot change roles at all.
	if err := s.ChangeRole(context.Background(), RoleEditor, editorID, RoleViewer); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("editor ChangeRole() error = %v, want ErrForbidden", err)
	}
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 40*time.Second)
	if got := DurationMinutes(start, &end); got != 46 {
		t.Errorf("DurationMinutes() = %d, want 46", got)
	}
	if got := DurationMinutes(start, nil); got != 0 {
		t.Errorf("DurationMinutes(open) = %d, want 0", got)
	}
}
