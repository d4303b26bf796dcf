package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindInvalidArgument, "invalid_argument"},
		{KindNotFound, "not_found"},
		{KindAlreadyExists, "already_exists"},
		{KindUpstream, "upstream"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q; want %q", tt.kind, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "node 42 not found")
	if got := KindOf(err); got != KindNotFound {
		t.Errorf("KindOf() = %v; want KindNotFound", got)
	}

	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v; want KindUnknown", got)
	}

	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v; want KindUnknown", got)
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(KindInvalidArgument, "bad label")
	outer := fmt.Errorf("creating node; %w", inner)

	if got := KindOf(outer); got != KindInvalidArgument {
		t.Errorf("KindOf(wrapped) = %v; want KindInvalidArgument", got)
	}
	if !Is(outer, KindInvalidArgument) {
		t.Error("Is(wrapped, KindInvalidArgument) = false; want true")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstream, "executing query", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error does not match cause via errors.Is")
	}
	if got := err.Error(); got != "executing query; connection refused" {
		t.Errorf("Error() = %q", got)
	}

	if Wrap(KindUpstream, "noop", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(KindAlreadyExists, "relationship %s already exists between %d and %d", "MEMBER", 1, 2)
	want := "relationship MEMBER already exists between 1 and 2"
	if err.Error() != want {
		t.Errorf("Newf() = %q; want %q", err.Error(), want)
	}
}
