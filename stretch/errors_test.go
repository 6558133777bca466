package stretch

import (
	"errors"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := newError(WorkerFailure, cause, "worker %d failed", 3)

	if err.Kind != WorkerFailure {
		t.Fatalf("kind = %v, want WorkerFailure", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is did not find wrapped cause")
	}
	if got := err.Error(); got == "" {
		t.Fatal("Error() returned empty string")
	}
}

func TestKindString(t *testing.T) {
	for _, k := range []Kind{InvalidInput, LoadFailure, WorkerFailure, UnsupportedEnvironment} {
		if k.String() == "Unknown" {
			t.Errorf("Kind %d stringifies to Unknown", k)
		}
	}
}
