package scheduling

import (
	"fmt"
	"slices"
	"strings"

	"garage-backend/internal/models"
)

var allowedTransitions = map[string][]string{
	models.AppointmentScheduled: {
		models.AppointmentInProgress,
		models.AppointmentReady,
		models.AppointmentNoShow,
		models.AppointmentCanceled,
	},
	models.AppointmentInProgress: {
		models.AppointmentReady,
		models.AppointmentCompleted,
	},
	models.AppointmentReady: {
		models.AppointmentCompleted,
	},
	models.AppointmentCompleted: {},
	models.AppointmentNoShow:    {},
	models.AppointmentCanceled:  {},
}

// keys are upper case with spaces and dashes folded to underscores
var statusAliases = map[string]string{
	"SCHEDULED":        models.AppointmentScheduled,
	"BOOKED":           models.AppointmentScheduled,
	"IN_PROGRESS":      models.AppointmentInProgress,
	"INPROGRESS":       models.AppointmentInProgress,
	"STARTED":          models.AppointmentInProgress,
	"READY":            models.AppointmentReady,
	"READY_FOR_PICKUP": models.AppointmentReady,
	"COMPLETED":        models.AppointmentCompleted,
	"COMPLETE":         models.AppointmentCompleted,
	"DONE":             models.AppointmentCompleted,
	"FINISHED":         models.AppointmentCompleted,
	"NO_SHOW":          models.AppointmentNoShow,
	"NOSHOW":           models.AppointmentNoShow,
	"CANCELED":         models.AppointmentCanceled,
	"CANCELLED":        models.AppointmentCanceled,
}

// Statuses lists the canonical statuses in board order.
func Statuses() []string {
	return []string{
		models.AppointmentScheduled,
		models.AppointmentInProgress,
		models.AppointmentReady,
		models.AppointmentCompleted,
		models.AppointmentNoShow,
		models.AppointmentCanceled,
	}
}

// NormalizeStatus maps raw input, including legacy spellings, onto a canonical status.
func NormalizeStatus(raw string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if status, ok := statusAliases[key]; ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// ValidateTransition accepts a move to the same status or along an allowed edge.
func ValidateTransition(from, to string) error {
	fromStatus, err := NormalizeStatus(from)
	if err != nil {
		return err
	}
	toStatus, err := NormalizeStatus(to)
	if err != nil {
		return err
	}
	if fromStatus == toStatus {
		return nil
	}
	if slices.Contains(allowedTransitions[fromStatus], toStatus) {
		return nil
	}
	return &TransitionError{From: fromStatus, To: toStatus}
}

func IsTerminal(status string) bool {
	canonical, err := NormalizeStatus(status)
	return err == nil && len(allowedTransitions[canonical]) == 0
}

// IsBillable reports whether an invoice may be generated for an appointment in status.
func IsBillable(status string) bool {
	canonical, err := NormalizeStatus(status)
	return err == nil && canonical == models.AppointmentCompleted
}

// occupies reports whether an appointment in status holds its technician and vehicle.
// Unrecognised legacy values are treated as occupying.
func occupies(status string) bool {
	canonical, err := NormalizeStatus(status)
	if err != nil {
		return true
	}
	return canonical != models.AppointmentCanceled && canonical != models.AppointmentNoShow
}
