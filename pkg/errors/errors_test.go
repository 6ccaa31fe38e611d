package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "wallet provider unreachable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %q", err.Code())
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := New(CodeNotFound, "no such account")
	wrapped := fmt.Errorf("resolving destination: %w", err)

	if !HasCode(wrapped, CodeNotFound) {
		t.Fatal("expected HasCode to see through fmt wrapping")
	}
	if HasCode(wrapped, CodeDependency) {
		t.Fatal("HasCode matched the wrong code")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(CodeDependency) {
		t.Fatal("dependency errors should be retryable")
	}
	if Retryable(CodeValidation) {
		t.Fatal("validation errors should not be retryable")
	}
}
