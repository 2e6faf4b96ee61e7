package types

import (
	"errors"
	"fmt"
)

// Bootstrap and migration errors. Callers compare with errors.Is.
var (
	ErrInitialization  = errors.New("initialization failed")
	ErrFreshInstall    = errors.New("fresh install failed")
	ErrMigrationStep   = errors.New("migration step failed")
	ErrMissingStep     = errors.New("missing migration step")
	ErrCatalogInvalid  = errors.New("invalid migration catalog")
	ErrInvariantRepair = errors.New("invariant repair failed")
	ErrNotReady        = errors.New("store is not initialized")
	ErrResetDisabled   = errors.New("destructive reset is disabled")
	ErrClosed          = errors.New("store is closed")
)

// StepError reports a migration step whose apply or verification failed.
// It matches ErrMigrationStep and the underlying cause under errors.Is.
type StepError struct {
	From  int    // version the step migrates from
	Name  string // short step name
	Check string // failed phase or verification check
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("migration %d->%d (%s): %s: %v", e.From, e.From+1, e.Name, e.Check, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *StepError) Unwrap() []error {
	return []error{ErrMigrationStep, e.Err}
}
