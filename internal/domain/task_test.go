package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestTaskClone(t *testing.T) {
	t.Parallel()

	orig := &Task{ID: "a", Dependencies: []string{"b", "c"}, Status: TaskStatusBlocked}
	c := orig.Clone()
	c.Dependencies[0] = "z"
	c.Status = TaskStatusReady

	if orig.Dependencies[0] != "b" {
		t.Error("Clone should not share the dependency slice")
	}
	if orig.Status != TaskStatusBlocked {
		t.Error("Clone should not share status")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	t.Parallel()

	if TaskStatusReady.IsTerminal() || TaskStatusBlocked.IsTerminal() {
		t.Error("ready and blocked must be non-terminal")
	}
	if !TaskStatusCompleted.IsTerminal() || !TaskStatusError.IsTerminal() {
		t.Error("completed and error must be terminal")
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  Priority
		valid bool
	}{
		{"high", PriorityHigh, true},
		{" Medium ", PriorityMedium, true},
		{"LOW", PriorityLow, true},
		{"urgent", Priority("urgent"), false},
		{"", Priority(""), false},
	}

	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if ok != tt.valid {
			t.Errorf("ParsePriority(%q) valid = %v, want %v", tt.in, ok, tt.valid)
		}
		if ok && got != tt.want {
			t.Errorf("ParsePriority(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := Task{
		ID:           "t1",
		TranscriptID: uuid.New(),
		Priority:     PriorityMedium,
		Status:       TaskStatusReady,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid task, got %v", err)
	}

	noID := valid
	noID.ID = " "
	if err := noID.Validate(); !IsValidationError(err) {
		t.Errorf("Expected validation error for empty ID, got %v", err)
	}

	badPriority := valid
	badPriority.Priority = "asap"
	if err := badPriority.Validate(); err != ErrInvalidPriority {
		t.Errorf("Expected %v, got %v", ErrInvalidPriority, err)
	}

	badStatus := valid
	badStatus.Status = "done"
	if err := badStatus.Validate(); err != ErrInvalidTaskStatus {
		t.Errorf("Expected %v, got %v", ErrInvalidTaskStatus, err)
	}
}
