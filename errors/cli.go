package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/resumeflow/config"
	"github.com/randalmurphal/resumeflow/publish"
	"github.com/randalmurphal/resumeflow/retrieval"
)

// CLIError wraps an error with user-facing context and a suggestion.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// Exit codes.
const (
	ExitFailure = 1
	ExitConfig  = 2
)

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingCredentials):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// NewMissingCredentialError reports that key must be set before what can run.
func NewMissingCredentialError(key, what string) error {
	return &CLIError{
		Err:     fmt.Errorf("%w: %s", ErrMissingCredentials, key),
		Message: fmt.Sprintf("%s needs %s.", what, key),
		Suggestion: fmt.Sprintf("Set it with:\n  resumeflow config set --global %s <value>\nor export %s.",
			key, config.EnvName(key)),
	}
}

// Wrap turns known failures into CLIErrors. Other errors are returned as is.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	switch {
	case errors.Is(err, config.ErrInvalidValue):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrInvalidConfig, err),
			Message:    "The configuration has invalid values.",
			Details:    err.Error(),
			Suggestion: "Run 'resumeflow config' to see every value and where it came from.",
		}
	case errors.Is(err, retrieval.ErrUnsupportedFormat):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrUnsupportedDocument, err),
			Message:    "An input document has a format resumeflow cannot read.",
			Details:    err.Error(),
			Suggestion: "Postings may be a URL, .html or .txt file; questions may be .pdf, .docx, .txt, .md or gdoc:<id> (needs google_credentials).",
		}
	case errors.Is(err, publish.ErrPublish):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrPublishFailed, err),
			Message:    "The result could not be published.",
			Details:    err.Error(),
			Suggestion: "Check output_dir is writable, and for Google Docs that google_credentials can edit google_doc_id.",
		}
	case IsAuthError(err):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrNotAuthenticated, err),
			Message:    "A remote service rejected the configured credentials.",
			Details:    err.Error(),
			Suggestion: "Check github_token, gitlab_token, gemini_api_key and google_credentials.",
		}
	case IsPermissionError(err):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrPermissionDenied, err),
			Message:    "A remote service denied access.",
			Details:    err.Error(),
			Suggestion: "Make sure the credentials have read access to the sources and write access to the target document.",
		}
	case IsConnectionError(err):
		return &CLIError{
			Err:        fmt.Errorf("%w: %w", ErrConnectionFailed, err),
			Message:    "A remote service could not be reached.",
			Details:    err.Error(),
			Suggestion: "Check your network connection, redis_url and gitlab_url, then try again.",
		}
	}
	return err
}
