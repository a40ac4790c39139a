package cli

import "fmt"

// ConfigError reports a configuration problem surfaced by a command.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Path, e.Message)
}

// CommandError wraps a failure from a command execution with the command
// name.
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

// NewConfigError creates a ConfigError for the configuration at path.
func NewConfigError(path, message string) *ConfigError {
	return &ConfigError{
		Path:    path,
		Message: message,
	}
}

// NewCommandError wraps err as a CommandError for the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
