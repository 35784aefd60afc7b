package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"validation error", &ValidationError{FormType: FormINT, Errors: []FieldError{{Field: "interestIncome", Message: "required field is missing"}}}, "VAL001"},
		{"wrapped validation error", fmt.Errorf("create form: %w", &ValidationError{FormType: FormNEC}), "VAL001"},
		{"unknown form type", &UnknownFormTypeError{Type: "W2"}, "FORM001"},
		{"not found", fmt.Errorf("get form abc: %w", ErrNotFound), "FORM002"},
		{"duplicate key", errors.New(`ERROR: duplicate key value violates unique constraint "forms_pkey"`), "DB001"},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: forms.id"), "DB001"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB002"},
		{"connection reset", errors.New("read: connection reset by peer"), "DB003"},
		{"deadline", fmt.Errorf("list forms: %w", context.DeadlineExceeded), "DB004"},
		{"database locked", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB005"},
		{"invalid number", errors.New("invalid number format"), "VAL002"},
		{"invalid date", errors.New("invalid date format"), "VAL003"},
		{"tax year", errors.New("tax year must be between 1990 and 2100"), "VAL005"},
		{"invalid request", errors.New("invalid request: malformed JSON"), "VAL006"},
		{"unauthorized", errors.New("unauthorized: missing bearer token"), "AUTH001"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"export slots", errors.New("too many concurrent exports, please try again later"), "RATE002"},
		{"case insensitive", errors.New("DUPLICATE KEY"), "DB001"},
		{"unknown error", errors.New("something odd happened"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Errorf("MapError(%v).Message is empty", tt.err)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(fmt.Errorf("get: %w", ErrNotFound))
	want := "Form not found (Code: FORM002). The form may have been deleted. Refresh the list"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("kaboom"), false},
		{&UnknownFormTypeError{Type: "X"}, true},
		{errors.New("connection refused"), true},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
