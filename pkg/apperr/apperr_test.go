package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if KindOf(Validationf("bad input")) != Validation {
		t.Error("expected Validation kind")
	}
	if KindOf(NotFoundf("missing")) != NotFound {
		t.Error("expected NotFound kind")
	}
	if KindOf(Conflictf("full")) != Conflict {
		t.Error("expected Conflict kind")
	}
	if KindOf(errors.New("plain")) != Internal {
		t.Error("plain errors should classify as Internal")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("booking failed: %w", Conflictf("slot full"))
	if !IsConflict(err) {
		t.Error("wrapped conflict should still report IsConflict")
	}
	if !IsKnown(err) {
		t.Error("wrapped domain error should be known")
	}
}

func TestInternalfPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internalf(cause, "failed to book appointment")
	if !errors.Is(err, cause) {
		t.Error("Internalf should wrap the cause")
	}
	if !IsInternal(err) {
		t.Error("expected Internal kind")
	}
}

func TestIsKnown(t *testing.T) {
	if IsKnown(errors.New("oops")) {
		t.Error("plain error should not be known")
	}
	if !IsKnown(Validationf("x")) {
		t.Error("domain error should be known")
	}
}
