package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMigrations is returned when an operation needs at least one
	// migration file and none exist.
	ErrNoMigrations = errors.New("no migration files found")
	// ErrNotEnoughMigrations is returned when a range operation needs at
	// least two migration files.
	ErrNotEnoughMigrations = errors.New("at least two migration files are required")
	// ErrNothingToDo reports an operation that would not change anything.
	// Callers usually treat it as success.
	ErrNothingToDo = errors.New("nothing to do")
)

// Diagnostic codes.
const (
	DiagDuplicateAdd          = "duplicate-add"
	DiagConflictingAdd        = "conflicting-add"
	DiagMissingUpdateTarget   = "missing-update-target"
	DiagDuplicateUpdateTarget = "duplicate-update-target"
	DiagRestoredAfterRemove   = "restored-after-remove"
)

// Diagnostic records an action that was skipped or rewritten without failing
// the whole operation.
type Diagnostic struct {
	Code     string
	Language string
	Action   Action
	Message  string
}

func (d Diagnostic) String() string {
	if d.Language != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", d.Language, d.Code, d.Action, d.Message)
	}
	return fmt.Sprintf("%s (%s): %s", d.Code, d.Action, d.Message)
}
