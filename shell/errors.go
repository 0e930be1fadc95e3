package shell

import "errors"

// ErrExit is returned by Run when the exit command was dispatched.
// Drivers stop reading input, persist history and terminate normally.
var ErrExit = errors.New("exit")

// UsageError reports a wrong argument count or an invalid argument.
// The dispatcher prints it as a usage line instead of an error.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// Usage returns the usage error for cmd.
func Usage(cmd *Command) error {
	return &UsageError{Usage: cmd.Usage}
}
