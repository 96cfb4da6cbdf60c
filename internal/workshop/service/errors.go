package service

import (
	"fmt"
	"strings"

	"github.com/Terml/ERP-system/internal/workshop/repository"
)

var (
	// ErrConflict concurrent writers collided and the caller may retry.
	// Surfaced by the repository layer on postgres lock timeouts.
	ErrConflict = repository.ErrConflict
)

// InvalidTransitionError the requested status change is not in the
// transition table for the entity's current status.
type InvalidTransitionError struct {
	Entity  string
	From    string
	To      string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s status %q is terminal, cannot move to %q", e.Entity, e.From, e.To)
	}
	return fmt.Sprintf("%s cannot move from %q to %q (allowed: %s)",
		e.Entity, e.From, e.To, strings.Join(e.Allowed, ", "))
}

// PreconditionError the transition is in the table but a guard holds
// it back (incomplete tasks, missing assignee, wrong window).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// ValidationError the request payload itself is bad.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
