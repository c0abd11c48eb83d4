// Package store provides a generic collection container that applies the
// optimistic-mutation-with-rollback pattern around a repository. One
// abstraction serves every entity so the snapshot/restore invariant is
// enforced in a single place and cannot regress per entity.
package store

import (
	"context"
	"sync"
	"time"
)

// Patch is a partial update applied to an entity. Apply returns the merged
// entity and must not mutate the receiver or its argument.
type Patch[E any] interface {
	Apply(E) E
}

// Repository is the contract a store drives. Implementations never retry;
// they report each failure once, normalized into the taxonomy in errors.go.
type Repository[E any, ID comparable, P Patch[E]] interface {
	// FetchAll returns the full current collection for a scope.
	FetchAll(ctx context.Context, scope string) ([]E, error)
	// Create persists one new entity and returns it with server-assigned
	// identity and defaults.
	Create(ctx context.Context, input E) (E, error)
	// Update applies a partial update. An empty patch is a no-op success.
	Update(ctx context.Context, id ID, patch P) error
	// Delete removes the entity. Deleting an absent entity succeeds.
	Delete(ctx context.Context, id ID) error
}

// Placement controls where Create inserts a confirmed item.
type Placement int

const (
	Prepend Placement = iota
	Append
)

// Store holds an in-memory list of entities and keeps it consistent with a
// repository. Update and Remove are optimistic with whole-snapshot rollback;
// Create waits for server confirmation; Refresh replaces wholesale.
//
// The mutex guards state only and is never held across a repository call,
// so in-flight calls resolve in completion order (last resolved wins). That
// is an accepted trade-off, not a bug: true conflict resolution belongs to
// the backend.
type Store[E any, ID comparable, P Patch[E]] struct {
	repo      Repository[E, ID, P]
	identify  func(E) ID
	placement Placement

	mu      sync.Mutex
	items   []E
	loading bool
	err     error

	disposeOnce sync.Once
	done        chan struct{}
}

// New creates a store over a repository. identify extracts an entity's ID
// for matching optimistic mutations to items.
func New[E any, ID comparable, P Patch[E]](repo Repository[E, ID, P], identify func(E) ID, placement Placement) *Store[E, ID, P] {
	return &Store[E, ID, P]{
		repo:      repo,
		identify:  identify,
		placement: placement,
		done:      make(chan struct{}),
	}
}

// Items returns a copy of the current collection.
func (s *Store[E, ID, P]) Items() []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item with the given id, if present.
func (s *Store[E, ID, P]) Get(id ID) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if s.identify(it) == id {
			return it, true
		}
	}
	var zero E
	return zero, false
}

// Err returns the error recorded by the most recent failed operation, or
// nil after a success.
func (s *Store[E, ID, P]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Loading reports whether a Refresh is in flight. Fine-grained mutations do
// not touch the loading flag.
func (s *Store[E, ID, P]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Refresh replaces the collection wholesale from the repository. On failure
// the collection is emptied rather than left stale; staleness is worse than
// emptiness for the consumers this serves.
func (s *Store[E, ID, P]) Refresh(ctx context.Context, scope string) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.repo.FetchAll(ctx, scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.items = nil
		s.err = err
		return err
	}
	s.items = items
	s.err = nil
	return nil
}

// Create persists a new entity and inserts the confirmed result. Not
// optimistic: no placeholder appears before the server assigns identity, so
// there is never a client id to reconcile. Returns true on success.
func (s *Store[E, ID, P]) Create(ctx context.Context, input E) bool {
	created, err := s.repo.Create(ctx, input)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.err = err
		return false
	}
	if s.placement == Prepend {
		s.items = append([]E{created}, s.items...)
	} else {
		s.items = append(s.items, created)
	}
	s.err = nil
	return true
}

// Update optimistically merges the patch into the matching item, then calls
// the repository. On failure the exact pre-mutation snapshot is restored,
// never a partial undo. Returns true on success.
func (s *Store[E, ID, P]) Update(ctx context.Context, id ID, patch P) bool {
	s.mu.Lock()
	snapshot := make([]E, len(s.items))
	copy(snapshot, s.items)
	for i, it := range s.items {
		if s.identify(it) == id {
			s.items[i] = patch.Apply(it)
			break
		}
	}
	s.mu.Unlock()

	err := s.repo.Update(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.items = snapshot
		s.err = err
		return false
	}
	s.err = nil
	return true
}

// Remove optimistically deletes the matching item, then calls the
// repository. On failure the snapshot restore puts the item back in its
// original position with its original fields. Returns true on success.
func (s *Store[E, ID, P]) Remove(ctx context.Context, id ID) bool {
	s.mu.Lock()
	snapshot := make([]E, len(s.items))
	copy(snapshot, s.items)
	kept := s.items[:0:0]
	for _, it := range s.items {
		if s.identify(it) != id {
			kept = append(kept, it)
		}
	}
	s.items = kept
	s.mu.Unlock()

	err := s.repo.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.items = snapshot
		s.err = err
		return false
	}
	s.err = nil
	return true
}

// AutoRefresh refetches the scope whenever the events channel signals,
// coalescing bursts: N events inside one debounce window produce a single
// refetch. The goroutine exits when the channel closes or the store is
// disposed. Events carry no payload; they are invalidation hints.
func (s *Store[E, ID, P]) AutoRefresh(ctx context.Context, scope string, events <-chan struct{}, debounce time.Duration) {
	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
					fire = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(debounce)
				}
			case <-fire:
				timer = nil
				fire = nil
				s.Refresh(ctx, scope)
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Dispose terminates any auto-refresh goroutines. Safe to call more than
// once.
func (s *Store[E, ID, P]) Dispose() {
	s.disposeOnce.Do(func() {
		close(s.done)
	})
}
