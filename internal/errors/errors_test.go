package errors

import (
	"errors"
	"fmt"
	"testing"
)

// TestGetCode tests code extraction from wrapped and foreign errors
func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"database error", DatabaseError("connection refused"), CodeDatabaseError},
		{"config error", ConfigInvalid("bad confidence"), CodeConfigInvalid},
		{"invalid input", InvalidInput("no files"), CodeInvalidInput},
		{"external service", ExternalServiceError("s3", errors.New("timeout")), CodeExternalService},
		{"plain error", fmt.Errorf("something broke"), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestWrapPreservesCode tests that wrapping keeps the original code
func TestWrapPreservesCode(t *testing.T) {
	wrapped := Wrap(DatabaseError("query failed"), "loading observations")
	if got := GetCode(wrapped); got != CodeDatabaseError {
		t.Errorf("GetCode() = %q, want %q", got, CodeDatabaseError)
	}
	if wrapped.Error() != "loading observations: query failed" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
