package entities

import (
	"testing"
	"time"
)

func TestMembershipPermissions(t *testing.T) {
	tests := []struct {
		role          Role
		canManage     bool
		canChangeRole bool
	}{
		{RoleAdmin, true, true},
		{RoleEditor, true, false},
		{RoleViewer, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			m := Membership{Role: tt.role}
			if got := m.CanManageMembers(); got != tt.canManage {
				t.Errorf("CanManageMembers() = %v, want %v", got, tt.canManage)
			}
			if got := m.CanChangeRoles(); got != tt.canChangeRole {
				t.Errorf("CanChangeRoles() = %v, want %v", got, tt.canChangeRole)
			}
		})
	}
}

func TestCanRemoveMember(t *testing.T) {
	tests := []struct {
		name   string
		actor  Role
		target Role
		want   bool
	}{
		{"admin removes admin", RoleAdmin, RoleAdmin, true},
		{"admin removes editor", RoleAdmin, RoleEditor, true},
		{"admin removes viewer", RoleAdmin, RoleViewer, true},
		{"editor removes editor", RoleEditor, RoleEditor, true},
		{"editor removes viewer", RoleEditor, RoleViewer, true},
		{"editor removes admin", RoleEditor, RoleAdmin, false},
		{"viewer removes viewer", RoleViewer, RoleViewer, false},
		{"viewer removes admin", RoleViewer, RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Membership{Role: tt.actor}
			if got := m.CanRemoveMember(tt.target); got != tt.want {
				t.Errorf("CanRemoveMember(%s) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestApplyStatusCouplesCompletion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	task := Task{Status: TaskStatusTodo}
	task.ApplyStatus(TaskStatusDone, now)
	if task.Status != TaskStatusDone {
		t.Errorf("Status = %q, want %q", task.Status, TaskStatusDone)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", task.CompletedAt, now)
	}

	// Leaving the terminal status clears the timestamp in the same step.
	task.ApplyStatus(TaskStatusInProgress, now.Add(time.Hour))
	if task.Status != TaskStatusInProgress {
		t.Errorf("Status = %q, want %q", task.Status, TaskStatusInProgress)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil after leaving done", task.CompletedAt)
	}
}

func TestCompletionForStatus(t *testing.T) {
	now := time.Now()
	if got := CompletionForStatus(TaskStatusDone, now); got == nil || !got.Equal(now) {
		t.Errorf("CompletionForStatus(done) = %v, want %v", got, now)
	}
	for _, status := range []string{TaskStatusTodo, TaskStatusInProgress, "review", ""} {
		if got := CompletionForStatus(status, now); got != nil {
			t.Errorf("CompletionForStatus(%q) = %v, want nil", status, got)
		}
	}
}

func TestComputeDurationMinutes(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	end := func(d time.Duration) *time.Time {
		e := start.Add(d)
		return &e
	}

	tests := []struct {
		name string
		end  *time.Time
		want int
	}{
		{"open log", nil, 0},
		{"exact hour", end(time.Hour), 60},
		{"rounds down", end(90*time.Minute + 20*time.Second), 90},
		{"rounds up", end(90*time.Minute + 40*time.Second), 91},
		{"zero length", end(0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeDurationMinutes(start, tt.end); got != tt.want {
				t.Errorf("ComputeDurationMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTimeLogClose(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	tl := TimeLog{StartTime: start}
	if err := tl.Close(start.Add(30 * time.Minute)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if tl.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d, want 30", tl.DurationMinutes)
	}
	if tl.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}

	// Closing twice fails.
	if err := tl.Close(start.Add(time.Hour)); err == nil {
		t.Error("Close() on closed log should fail")
	}

	// End before start fails.
	open := TimeLog{StartTime: start}
	if err := open.Close(start.Add(-time.Minute)); err == nil {
		t.Error("Close() with end before start should fail")
	}
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: TaskStatusTodo}, false},
		{"due in future", Task{Status: TaskStatusTodo, DueDate: &future}, false},
		{"past due", Task{Status: TaskStatusTodo, DueDate: &past}, true},
		{"past due but done", Task{Status: TaskStatusDone, DueDate: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumValidity(t *testing.T) {
	if !RoleEditor.IsValid() || Role("owner").IsValid() {
		t.Error("Role.IsValid() misclassified a role")
	}
	if !ProjectStatusOnHold.IsValid() || ProjectStatus("paused").IsValid() {
		t.Error("ProjectStatus.IsValid() misclassified a status")
	}
	if !PriorityUrgent.IsValid() || Priority("critical").IsValid() {
		t.Error("Priority.IsValid() misclassified a priority")
	}
	if !FieldKindCurrency.IsValid() || FieldKind("url").IsValid() {
		t.Error("FieldKind.IsValid() misclassified a kind")
	}
}
