package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestConfigErrorMessage(t *testing.T) {
	err := NewConfigError("scope is not defined", ErrUnknownScope).
		WithKey("scopes").
		WithValue("sprint-99")

	msg := err.Error()
	for _, want := range []string{"config error", "key=scopes", "value=sprint-99", "unknown scope"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestConfigErrorUnwrapsSentinel(t *testing.T) {
	err := NewConfigError("scope is not defined", ErrUnknownScope)

	if !Is(err, ErrUnknownScope) {
		t.Error("expected errors.Is to match ErrUnknownScope")
	}
	if !Is(err, &ConfigError{}) {
		t.Error("expected errors.Is to match ConfigError type")
	}
}

func TestIsConfig(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", New("boom"), false},
		{"config error", NewConfigError("bad root", ErrCorpusUnreadable), true},
		{"wrapped config error", Wrap(NewConfigError("bad root", nil), "loading"), true},
		{"sentinel only", ErrUnknownScope, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfig(tt.err); got != tt.want {
				t.Errorf("IsConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrDuplicateID, "record %s", "BUG-001.md")
	if !Is(err, ErrDuplicateID) {
		t.Error("wrapped error no longer matches sentinel")
	}
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapMessageOrder(t *testing.T) {
	err := Wrap(fmt.Errorf("inner"), "outer")
	if got := err.Error(); got != "outer: inner" {
		t.Errorf("Wrap message = %q, want %q", got, "outer: inner")
	}
}
