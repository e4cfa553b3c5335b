package services_test

import (
	"errors"
	"strings"
	"testing"

	"fetchd/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrNotAllowed, "options", "validate", "max-overall-download-limit", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNotAllowed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"options", "validate", "max-overall-download-limit"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToValidation(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "call failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "jobs", "find", "gid 9", nil), "not_found"},
		{services.Wrap(services.ErrInvalidArgument, "jobs", "reorder", "bad origin", nil), "invalid_argument"},
		{services.Wrap(services.ErrDispatch, "rpc", "", "nested multicall", nil), "dispatch"},
		{errors.New("plain"), "internal"},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
