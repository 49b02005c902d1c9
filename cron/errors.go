package cron

import "fmt"

var (
	// ErrNoTasks is returned when a chain has no tasks
	ErrNoTasks = fmt.Errorf("cron: no tasks provided")

	// ErrCronClosed is returned when adding to a closed cron manager
	ErrCronClosed = fmt.Errorf("cron: cron manager is closed")
)

// ErrInvalidSpec wraps a spec the parser rejected
func ErrInvalidSpec(name, spec string, err error) error {
	return fmt.Errorf("cron: invalid spec %q for chain %s: %w", spec, name, err)
}
