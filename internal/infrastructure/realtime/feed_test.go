package realtime

import (
	"testing"
	"time"

	"github.com/teamflow/core/internal/infrastructure/logger"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		payload   string
		wantTable string
		wantScope string
		wantErr   bool
	}{
		{"tasks:5f1c", "tasks", "5f1c", false},
		{"comments:a:b", "comments", "a:b", false},
		{"organizations:", "organizations", "", false},
		{"garbage", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			ev, err := ParseEvent(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseEvent(%q) error = nil, want error", tt.payload)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent(%q) error = %v", tt.payload, err)
			}
			if ev.Table != tt.wantTable || ev.Scope != tt.wantScope {
				t.Errorf("ParseEvent(%q) = %+v, want {%s %s}", tt.payload, ev, tt.wantTable, tt.wantScope)
			}
		})
	}
}

func TestFeedDeliversToMatchingSubscribers(t *testing.T) {
	f := NewFeed(logger.NewNop())
	defer f.Close()

	tasks, cancelTasks := f.Subscribe("tasks", "org1")
	defer cancelTasks()
	otherScope, cancelOther := f.Subscribe("tasks", "org2")
	defer cancelOther()

	f.Publish(Event{Table: "tasks", Scope: "org1"})

	select {
	case ev := <-tasks:
		if ev.Scope != "org1" {
			t.Errorf("Scope = %q, want org1", ev.Scope)
		}
	case <-time.After(time.Second):
		t.Fatal("matching subscriber received nothing")
	}

	select {
	case ev := <-otherScope:
		t.Errorf("subscriber for org2 received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	f := NewFeed(logger.NewNop())
	defer f.Close()

	ch, cancel := f.Subscribe("projects", "org1")
	cancel()
	f.Publish(Event{Table: "projects", Scope: "org1"})

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("cancelled subscriber received an event")
		}
	case <-time.After(50 * time.Millisecond):
	}
}
