package cli

import (
	"errors"
	"fmt"

	"mercator-hq/dsm/pkg/model"
)

// Exit codes returned by the dsm command.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitConfig       = 2
	ExitInvalidModel = 3
	ExitEvaluation   = 4
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.Is(err, model.ErrInvalidModel):
		return ExitInvalidModel
	case errors.Is(err, model.ErrResolution), errors.Is(err, model.ErrPostformat):
		return ExitEvaluation
	default:
		return ExitFailure
	}
}
