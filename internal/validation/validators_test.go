package validation

import (
	"errors"
	"strings"
	"testing"
)

type testBulkRequest struct {
	Action   string  `json:"action" validate:"required,bulk_action"`
	TodoIDs  []int64 `json:"todo_ids"`
	Priority string  `json:"priority" validate:"required_if=Action set_priority"`
}

type testCreateRequest struct {
	Title    string `json:"title" validate:"required,max=5"`
	Internal string `json:"-" validate:"max=1"`
}

func TestValidateBulkAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		wantErr bool
	}{
		{"complete", false},
		{"delete", false},
		{"set_priority", false},
		{"archive", true},
		{"", true},
		{"COMPLETE", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			err := ValidateBulkAction(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBulkAction(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_BulkRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		req         testBulkRequest
		wantMessage string
	}{
		{"complete", testBulkRequest{Action: "complete", TodoIDs: []int64{1}}, ""},
		{"set priority", testBulkRequest{Action: "set_priority", Priority: "high"}, ""},
		{"missing action", testBulkRequest{}, "action is required"},
		{"unknown action", testBulkRequest{Action: "archive"}, "invalid action: archive"},
		{"missing priority", testBulkRequest{Action: "set_priority"}, "priority is required for this action"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate.Struct(tt.req)
			if tt.wantMessage == "" {
				if err != nil {
					t.Errorf("Unexpected validation error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if msg := FormatValidationError(err); !strings.Contains(msg, tt.wantMessage) {
				t.Errorf("FormatValidationError() = %q, want it to contain %q", msg, tt.wantMessage)
			}
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	t.Parallel()

	err := Validate.Struct(testCreateRequest{Title: "too long title"})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if got := FormatValidationError(err); got != "title must be at most 5 characters" {
		t.Errorf("FormatValidationError() = %q", got)
	}

	err = Validate.Struct(testCreateRequest{Title: "ok", Internal: "xx"})
	if err == nil {
		t.Fatal("Expected validation error for untagged field")
	}
	if got := FormatValidationError(err); got != "Internal must be at most 1 characters" {
		t.Errorf("FormatValidationError() = %q", got)
	}

	plain := errors.New("plain failure")
	if got := FormatValidationError(plain); got != "plain failure" {
		t.Errorf("FormatValidationError(plain) = %q", got)
	}
}
