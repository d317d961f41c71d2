package scheduling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("scheduling: appointment not found")
	ErrInvalidInput        = errors.New("scheduling: invalid input")
	ErrUnknownStatus       = errors.New("scheduling: unknown status")
	ErrInvalidTransition   = errors.New("scheduling: invalid status transition")
	ErrConflict            = errors.New("scheduling: resource conflict")
)

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("scheduling: cannot move appointment from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ConflictError lists the appointments that already hold the requested resources.
type ConflictError struct {
	Conflicts Conflicts
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling: resource conflict (technician: %d, vehicle: %d)",
		len(e.Conflicts.Technician), len(e.Conflicts.Vehicle))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IDs returns every conflicting appointment once.
func (e *ConflictError) IDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, group := range [][]uuid.UUID{e.Conflicts.Technician, e.Conflicts.Vehicle} {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
