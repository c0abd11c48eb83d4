package realtime

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/teamflow/core/internal/infrastructure/config"
	"github.com/teamflow/core/internal/infrastructure/logger"
)

// Event is one change-feed notification. Scope narrows the event to the
// row group a subscriber cares about (task id for comments, user id for
// notifications, organization id for activity).
type Event struct {
	Table string `json:"table"`
	Scope string `json:"scope"`
}

// String renders the event in the wire format used by the NOTIFY payload.
func (e Event) String() string {
	return e.Table + ":" + e.Scope
}

// ParseEvent parses a "table:scope" NOTIFY payload.
func ParseEvent(payload string) (Event, error) {
	table, scope, ok := strings.Cut(payload, ":")
	if !ok || table == "" {
		return Event{}, fmt.Errorf("malformed event payload %q", payload)
	}
	return Event{Table: table, Scope: scope}, nil
}

type subscriber struct {
	table string
	scope string
	ch    chan Event
}

// Feed fans change events out to per-scope subscribers. Events normally
// arrive from a Postgres LISTEN connection fed by row triggers; tests and
// in-process producers can inject them with Publish.
type Feed struct {
	logger   *logger.Logger
	listener *pq.Listener

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool
	done   chan struct{}
}

// NewFeed creates a feed without a database listener attached. Events only
// arrive through Publish.
func NewFeed(appLogger *logger.Logger) *Feed {
	return &Feed{
		logger: appLogger,
		subs:   make(map[int]*subscriber),
		done:   make(chan struct{}),
	}
}

// Listen creates a feed backed by a dedicated Postgres LISTEN connection.
func Listen(dsn string, cfg config.RealtimeConfig, appLogger *logger.Logger) (*Feed, error) {
	f := NewFeed(appLogger)

	listener := pq.NewListener(dsn, cfg.MinReconnect, cfg.MaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			appLogger.Warnw("Realtime listener event", "event", int(ev), "error", err.Error())
		}
	})

	if err := listener.Listen(cfg.Channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen on channel %s: %w", cfg.Channel, err)
	}

	f.listener = listener
	go f.run()

	return f, nil
}

func (f *Feed) run() {
	for {
		select {
		case n := <-f.listener.Notify:
			if n == nil {
				// nil notification signals a reconnect; subscribers
				// refetch on every event anyway, so nothing is lost
				// beyond a missed wakeup.
				continue
			}
			event, err := ParseEvent(n.Extra)
			if err != nil {
				f.logger.Warnw("Dropping malformed realtime payload", "payload", n.Extra)
				continue
			}
			f.Publish(event)
		case <-time.After(90 * time.Second):
			go f.listener.Ping()
		case <-f.done:
			return
		}
	}
}

// Subscribe registers interest in events for one table and scope. The
// returned cancel function must be called when the owning consumer goes
// away; subscriptions are never shared.
func (f *Feed) Subscribe(table, scope string) (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++

	sub := &subscriber{
		table: table,
		scope: scope,
		ch:    make(chan Event, 16),
	}
	f.subs[id] = sub

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if s, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(s.ch)
		}
	}

	return sub.ch, cancel
}

// Publish delivers an event to matching local subscribers. A slow
// subscriber's full buffer drops the event rather than blocking the feed;
// consumers treat events as invalidation hints, not as data.
func (f *Feed) Publish(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	for _, sub := range f.subs {
		if sub.table != event.Table {
			continue
		}
		if sub.scope != "" && sub.scope != event.Scope {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Close tears the feed down and closes all subscriber channels.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	for id, sub := range f.subs {
		delete(f.subs, id)
		close(sub.ch)
	}
	f.mu.Unlock()

	close(f.done)
	if f.listener != nil {
		return f.listener.Close()
	}
	return nil
}
