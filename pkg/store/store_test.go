package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

type note struct {
	ID    int
	Title string
	Body  string
}

type notePatch struct {
	Title *string
	Body  *string
}

func (p notePatch) Apply(n note) note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	return n
}

// fakeRepo serves canned data and fails on demand. fetches counts FetchAll
// calls for the auto-refresh tests.
type fakeRepo struct {
	notes   []note
	nextID  int
	fail    error
	fetches atomic.Int64
}

func (r *fakeRepo) FetchAll(ctx context.Context, _ string) ([]note, error) {
	r.fetches.Add(1)
	if r.fail != nil {
		return nil, r.fail
	}
	out := make([]note, len(r.notes))
	copy(out, r.notes)
	return out, nil
}

func (r *fakeRepo) Create(ctx context.Context, input note) (note, error) {
	if r.fail != nil {
		return note{}, r.fail
	}
	r.nextID++
	input.ID = r.nextID
	r.notes = append(r.notes, input)
	return input, nil
}

func (r *fakeRepo) Update(ctx context.Context, id int, patch notePatch) error {
	if r.fail != nil {
		return r.fail
	}
	for i, n := range r.notes {
		if n.ID == id {
			r.notes[i] = patch.Apply(n)
			return nil
		}
	}
	return fmt.Errorf("%w: note %d", ErrNotFound, id)
}

func (r *fakeRepo) Delete(ctx context.Context, id int) error {
	if r.fail != nil {
		return r.fail
	}
	kept := r.notes[:0]
	for _, n := range r.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	r.notes = kept
	return nil
}

func newTestStore(repo *fakeRepo, placement Placement) *Store[note, int, notePatch] {
	return New[note, int, notePatch](repo, func(n note) int { return n.ID }, placement)
}

func seeded() *fakeRepo {
	return &fakeRepo{
		notes: []note{
			{ID: 1, Title: "first", Body: "a"},
			{ID: 2, Title: "second", Body: "b"},
			{ID: 3, Title: "third", Body: "c"},
		},
		nextID: 3,
	}
}

func TestRefresh(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)

	if err := s.Refresh(context.Background(), ""); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := len(s.Items()); got != 3 {
		t.Fatalf("Items() length = %d, want 3", got)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v, want nil", s.Err())
	}

	// Refreshing again with unchanged data is idempotent.
	if err := s.Refresh(context.Background(), ""); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if got := len(s.Items()); got != 3 {
		t.Errorf("Items() length after second refresh = %d, want 3", got)
	}
}

func TestRefreshFailureEmptiesCollection(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	if err := s.Refresh(context.Background(), ""); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	repo.fail = fmt.Errorf("%w: connection refused", ErrUnknown)
	if err := s.Refresh(context.Background(), ""); err == nil {
		t.Fatal("Refresh() should propagate the fetch error")
	}
	if got := len(s.Items()); got != 0 {
		t.Errorf("Items() length after failed refresh = %d, want 0 (never stale)", got)
	}
	if !errors.Is(s.Err(), ErrUnknown) {
		t.Errorf("Err() = %v, want ErrUnknown", s.Err())
	}
}

func TestCreatePlacement(t *testing.T) {
	for _, tt := range []struct {
		name      string
		placement Placement
		wantFirst string
	}{
		{"prepend", Prepend, "new"},
		{"append", Append, "first"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			repo := seeded()
			s := newTestStore(repo, tt.placement)
			s.Refresh(context.Background(), "")

			if ok := s.Create(context.Background(), note{Title: "new"}); !ok {
				t.Fatalf("Create() = false, err %v", s.Err())
			}
			items := s.Items()
			if len(items) != 4 {
				t.Fatalf("Items() length = %d, want 4", len(items))
			}
			if items[0].Title != tt.wantFirst {
				t.Errorf("first item = %q, want %q", items[0].Title, tt.wantFirst)
			}
			// The confirmed item carries server-assigned identity.
			created := items[0]
			if tt.placement == Append {
				created = items[3]
			}
			if created.ID == 0 {
				t.Error("created item has no server-assigned id")
			}
		})
	}
}

func TestCreateFailureLeavesCollectionUntouched(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	s.Refresh(context.Background(), "")

	repo.fail = fmt.Errorf("%w: title in use", ErrConflict)
	if ok := s.Create(context.Background(), note{Title: "dup"}); ok {
		t.Fatal("Create() = true, want false")
	}
	if got := len(s.Items()); got != 3 {
		t.Errorf("Items() length = %d, want 3 (no placeholder to clean up)", got)
	}
	if !errors.Is(s.Err(), ErrConflict) {
		t.Errorf("Err() = %v, want ErrConflict", s.Err())
	}
}

func TestUpdateAppliesOptimistically(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	s.Refresh(context.Background(), "")

	title := "renamed"
	if ok := s.Update(context.Background(), 2, notePatch{Title: &title}); !ok {
		t.Fatalf("Update() = false, err %v", s.Err())
	}
	got, ok := s.Get(2)
	if !ok {
		t.Fatal("Get(2) missing")
	}
	if got.Title != "renamed" {
		t.Errorf("Title = %q, want %q", got.Title, "renamed")
	}
	if got.Body != "b" {
		t.Errorf("Body = %q, want untouched %q", got.Body, "b")
	}
}

func TestUpdateFailureRestoresSnapshot(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	s.Refresh(context.Background(), "")
	before := s.Items()

	repo.fail = fmt.Errorf("%w: not a member", ErrForbidden)
	title := "renamed"
	body := "rewritten"
	if ok := s.Update(context.Background(), 2, notePatch{Title: &title, Body: &body}); ok {
		t.Fatal("Update() = true, want false")
	}

	after := s.Items()
	if len(after) != len(before) {
		t.Fatalf("Items() length = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("item %d = %+v, want exact restore %+v", i, after[i], before[i])
		}
	}
	if !errors.Is(s.Err(), ErrForbidden) {
		t.Errorf("Err() = %v, want ErrForbidden", s.Err())
	}
}

func TestRemove(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	s.Refresh(context.Background(), "")

	if ok := s.Remove(context.Background(), 2); !ok {
		t.Fatalf("Remove() = false, err %v", s.Err())
	}
	if _, ok := s.Get(2); ok {
		t.Error("Get(2) still present after Remove")
	}
	if got := len(s.Items()); got != 2 {
		t.Errorf("Items() length = %d, want 2", got)
	}
}

func TestRemoveFailureRestoresPositionAndFields(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	s.Refresh(context.Background(), "")
	before := s.Items()

	repo.fail = fmt.Errorf("%w: not a member", ErrForbidden)
	if ok := s.Remove(context.Background(), 2); ok {
		t.Fatal("Remove() = true, want false")
	}

	after := s.Items()
	if len(after) != 3 {
		t.Fatalf("Items() length = %d, want 3", len(after))
	}
	// The restored item sits in its original slot, not at an end.
	if after[1] != before[1] {
		t.Errorf("item 1 = %+v, want %+v back in position", after[1], before[1])
	}
}

func TestAutoRefreshCoalescesBursts(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)
	defer s.Dispose()

	events := make(chan struct{})
	s.AutoRefresh(context.Background(), "", events, 20*time.Millisecond)

	// A burst of events inside one debounce window triggers one refetch.
	for i := 0; i < 5; i++ {
		events <- struct{}{}
	}
	deadline := time.Now().Add(time.Second)
	for repo.fetches.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Allow a full extra window to catch spurious second fetches.
	time.Sleep(60 * time.Millisecond)
	if got := repo.fetches.Load(); got != 1 {
		t.Errorf("FetchAll called %d times for one burst, want 1", got)
	}

	// A second, separate burst triggers a second refetch.
	events <- struct{}{}
	deadline = time.Now().Add(time.Second)
	for repo.fetches.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := repo.fetches.Load(); got != 2 {
		t.Errorf("FetchAll called %d times after second burst, want 2", got)
	}
}

func TestAutoRefreshStopsOnDispose(t *testing.T) {
	repo := seeded()
	s := newTestStore(repo, Prepend)

	events := make(chan struct{}, 1)
	s.AutoRefresh(context.Background(), "", events, time.Millisecond)
	s.Dispose()
	s.Dispose() // idempotent

	time.Sleep(20 * time.Millisecond)
	fetched := repo.fetches.Load()
	events <- struct{}{}
	time.Sleep(20 * time.Millisecond)
	if got := repo.fetches.Load(); got != fetched {
		t.Errorf("FetchAll called after Dispose: %d -> %d", fetched, got)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(seeded(), Prepend)
	s.Refresh(context.Background(), "")
	if _, ok := s.Get(99); ok {
		t.Error("Get(99) = present, want absent")
	}
}
