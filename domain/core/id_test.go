package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDString tests ID string conversion
func TestIDString(t *testing.T) {
	id := ID("test-123")
	if id.String() != "test-123" {
		t.Errorf("Expected String() to return 'test-123', got '%s'", id.String())
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"valid-run", RunID("valid-run"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q): expected an error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseRunID(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
