package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/randalmurphal/resumeflow/config"
	"github.com/randalmurphal/resumeflow/publish"
	"github.com/randalmurphal/resumeflow/retrieval"
)

func TestCLIError(t *testing.T) {
	err := &CLIError{
		Err:        ErrNotAuthenticated,
		Message:    "Test message",
		Suggestion: "Test suggestion",
		Details:    "Test details",
	}

	if got := err.Error(); got != "Test message\nTest details\n\nTest suggestion" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Error("expected error to unwrap to ErrNotAuthenticated")
	}
}

func TestCLIError_MinimalFields(t *testing.T) {
	err := &CLIError{Err: ErrConnectionFailed, Message: "Connection failed"}
	if got := err.Error(); got != "Connection failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNewMissingCredentialError(t *testing.T) {
	err := NewMissingCredentialError("gemini_api_key", "The gemini provider")

	if !errors.Is(err, ErrMissingCredentials) {
		t.Error("expected ErrMissingCredentials")
	}
	msg := err.Error()
	for _, want := range []string{"The gemini provider needs gemini_api_key.", "RESUMEFLOW_GEMINI_API_KEY", "config set --global gemini_api_key"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if ExitCode(err) != ExitConfig {
		t.Errorf("ExitCode() = %d, want %d", ExitCode(err), ExitConfig)
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantIs     error
		wantSubstr string
		wantExit   int
	}{
		{"config", fmt.Errorf("%w: max_retries", config.ErrInvalidValue), ErrInvalidConfig, "resumeflow config", ExitConfig},
		{"format", fmt.Errorf("load x.xls: %w", retrieval.ErrUnsupportedFormat), ErrUnsupportedDocument, ".docx", ExitFailure},
		{"publish", fmt.Errorf("stage finalize: %w", publish.ErrPublish), ErrPublishFailed, "output_dir", ExitFailure},
		{"auth", errors.New("GET /user: 401 Unauthorized"), ErrNotAuthenticated, "github_token", ExitFailure},
		{"permission", errors.New("googleapi: Error 403: forbidden"), ErrPermissionDenied, "write access", ExitFailure},
		{"connection", errors.New("dial tcp 127.0.0.1:6379: connection refused"), ErrConnectionFailed, "redis_url", ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err)

			var cliErr *CLIError
			if !errors.As(got, &cliErr) {
				t.Fatalf("Wrap() = %T, want *CLIError", got)
			}
			if !errors.Is(got, tt.wantIs) {
				t.Errorf("Wrap() does not match %v", tt.wantIs)
			}
			if !errors.Is(got, tt.err) {
				t.Error("Wrap() lost the original error")
			}
			if !strings.Contains(got.Error(), tt.wantSubstr) {
				t.Errorf("Wrap() = %q, want it to mention %q", got, tt.wantSubstr)
			}
			if ExitCode(got) != tt.wantExit {
				t.Errorf("ExitCode() = %d, want %d", ExitCode(got), tt.wantExit)
			}
		})
	}
}

func TestWrap_Passthrough(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}

	plain := errors.New("something else")
	if Wrap(plain) != plain {
		t.Error("Wrap() should return unknown errors unchanged")
	}

	already := &CLIError{Err: plain, Message: "m"}
	if Wrap(already) != error(already) {
		t.Error("Wrap() should not rewrap a CLIError")
	}
	if ExitCode(nil) != 0 {
		t.Error("ExitCode(nil) should be 0")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		err        error
		auth       bool
		permission bool
		connection bool
	}{
		{nil, false, false, false},
		{ErrNotAuthenticated, true, false, false},
		{errors.New("unauthorized"), true, false, false},
		{ErrPermissionDenied, false, true, false},
		{errors.New("open x: permission denied"), false, true, false},
		{ErrConnectionFailed, false, false, true},
		{errors.New("x509: certificate signed by unknown authority"), false, false, true},
		{errors.New("context deadline exceeded"), false, false, true},
		{errors.New("boring"), false, false, false},
	}

	for _, tt := range tests {
		if got := IsAuthError(tt.err); got != tt.auth {
			t.Errorf("IsAuthError(%v) = %v", tt.err, got)
		}
		if got := IsPermissionError(tt.err); got != tt.permission {
			t.Errorf("IsPermissionError(%v) = %v", tt.err, got)
		}
		if got := IsConnectionError(tt.err); got != tt.connection {
			t.Errorf("IsConnectionError(%v) = %v", tt.err, got)
		}
	}
}
