// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for the handbook commands.
//
// Handlers return errors; only the top-level Handle* wrappers print them
// and pick the exit code.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/handbook-tui/internal/answer"
	"github.com/jeranaias/handbook-tui/internal/config"
	"github.com/jeranaias/handbook-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the answering service could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "export")
	Action  string // Action being performed (e.g., "write")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// reportedError wraps an error whose details were already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// ErrAnswerFailed is returned by ask when the service call did not produce an answer.
var ErrAnswerFailed = errors.New("no answer from the service")

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrUnsupportedFormat creates an error for unsupported formats.
func ErrUnsupportedFormat(format string, supported []string) error {
	return &ValidationError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: fmt.Sprintf("supported formats: %v", supported),
	}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to stderr, or as JSON on stdout in JSON mode.
func DisplayError(err error, jsonMode bool) {
	var reported *reportedError
	if err == nil || errors.As(err, &reported) {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"error":      err.Error(),
		"success":    false,
		"error_type": errorType(err),
		"exit_code":  GetExitCode(err),
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	switch {
	case errors.As(err, &valErr):
		output["field"] = valErr.Field
		output["value"] = valErr.Value
	case errors.As(err, &nfErr):
		output["resource"] = nfErr.Resource
		output["id"] = nfErr.ID
	case errors.As(err, &cmdErr):
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "validation_error"
	case ExitConfigError:
		return "config_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	default:
		return "generic_error"
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to its exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var notFoundErr *NotFoundError
	var configErrs config.ValidateErrors
	var statusErr *answer.StatusError

	switch {
	case errors.Is(err, ErrAnswerFailed):
		return ExitGeneralError
	case errors.As(err, &validationErr):
		return ExitUsageError
	case errors.As(err, &notFoundErr), errors.Is(err, storage.ErrTranscriptNotFound):
		return ExitNotFoundError
	case errors.As(err, &configErrs):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, answer.ErrRequestFailed), errors.As(err, &statusErr):
		return ExitNetworkError
	}
	return ExitGeneralError
}
