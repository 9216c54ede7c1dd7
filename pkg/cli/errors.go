package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the meridian binary.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitConfig = 2
)

// exitCoder lets an error choose the process exit code.
type exitCoder interface {
	ExitCode() int
}

// ConfigError reports a problem with the gateway configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) ExitCode() int { return ExitConfig }

// CommandError wraps a failure from command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) ExitCode() int { return ExitError }

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error to the process exit code: nil is 0, errors
// carrying their own code are honored, everything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitError
}
