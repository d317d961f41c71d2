package scheduling

import (
	"context"
	"strings"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
)

// ConflictQuery describes a candidate booking. A nil EndAt means the default block.
type ConflictQuery struct {
	TechnicianID *string
	VehicleID    *uuid.UUID
	StartAt      time.Time
	EndAt        *time.Time
	ExcludeID    *uuid.UUID
}

// Conflicts holds the ids of overlapping appointments per resource, ordered by start.
type Conflicts struct {
	Technician []uuid.UUID `json:"technician"`
	Vehicle    []uuid.UUID `json:"vehicle"`
}

func (c Conflicts) Empty() bool {
	return len(c.Technician) == 0 && len(c.Vehicle) == 0
}

type occupancyLister interface {
	ListOccupying(ctx context.Context, f repository.OccupancyFilter) ([]models.Appointment, error)
}

// ConflictDetector finds appointments that share a technician or vehicle with a candidate
// window. Run it on the transaction of the write it guards.
type ConflictDetector struct {
	repo  occupancyLister
	block time.Duration
}

func NewConflictDetector(repo occupancyLister, block time.Duration) *ConflictDetector {
	return &ConflictDetector{repo: repo, block: block}
}

func (d *ConflictDetector) FindConflicts(ctx context.Context, q ConflictQuery) (Conflicts, error) {
	out := Conflicts{Technician: []uuid.UUID{}, Vehicle: []uuid.UUID{}}
	tech := normalizeTechnician(q.TechnicianID)
	if tech == nil && q.VehicleID == nil {
		return out, nil
	}

	start := normalizeTime(q.StartAt)
	end := EffectiveEnd(start, normalizeTimePtr(q.EndAt), d.block)

	rows, err := d.repo.ListOccupying(ctx, repository.OccupancyFilter{
		TechnicianID: tech,
		VehicleID:    q.VehicleID,
		From:         start,
		To:           end,
		Block:        d.block,
		ExcludeID:    q.ExcludeID,
		SkipStatuses: []string{models.AppointmentCanceled, models.AppointmentNoShow},
	})
	if err != nil {
		return out, err
	}

	for _, row := range rows {
		if !occupies(row.Status) {
			continue
		}
		if q.ExcludeID != nil && row.ID == *q.ExcludeID {
			continue
		}
		rowEnd := EffectiveEnd(row.StartAt, row.EndAt, d.block)
		if !Overlaps(start, end, row.StartAt, rowEnd) {
			continue
		}
		if tech != nil && row.TechnicianID != nil && strings.TrimSpace(*row.TechnicianID) == *tech {
			out.Technician = append(out.Technician, row.ID)
		}
		if q.VehicleID != nil && row.VehicleID != nil && *row.VehicleID == *q.VehicleID {
			out.Vehicle = append(out.Vehicle, row.ID)
		}
	}
	return out, nil
}

// EffectiveEnd is end when set, otherwise start plus the default block.
func EffectiveEnd(start time.Time, end *time.Time, block time.Duration) time.Time {
	if end != nil {
		return *end
	}
	return start.Add(block)
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and [bStart, bEnd)
// share a non-zero span. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aStart.Before(aEnd) || !bStart.Before(bEnd) {
		return false
	}
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func resourceKeys(tech *string, vehicle *uuid.UUID) []string {
	var keys []string
	if tech != nil {
		keys = append(keys, "tech:"+*tech)
	}
	if vehicle != nil {
		keys = append(keys, "vehicle:"+vehicle.String())
	}
	return keys
}

func normalizeTechnician(tech *string) *string {
	if tech == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*tech)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeTime stores instants in UTC at second precision so that stored and bound
// timestamps compare consistently across dialects.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := normalizeTime(*t)
	return &n
}
