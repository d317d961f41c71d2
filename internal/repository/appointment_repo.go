package repository

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// OccupancyFilter selects appointments whose effective window may intersect [From, To).
// Rows without an end are treated as occupying [start, start+Block).
type OccupancyFilter struct {
	TechnicianID *string
	VehicleID    *uuid.UUID
	From         time.Time
	To           time.Time
	Block        time.Duration
	ExcludeID    *uuid.UUID
	SkipStatuses []string
}

// GetByID loads an appointment with its services in booking order.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := conn(ctx, r.db).
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &appt, nil
}

// LockByID reads the row with FOR UPDATE. Must run inside RunInTx.
func (r *AppointmentRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &appt, nil
}

// LockResources serialises writers booking the same technician or vehicle. Keys are
// locked in sorted order. On postgres this takes transaction-scoped advisory locks;
// other dialects serialise writers at the database level and need nothing here.
func (r *AppointmentRepository) LockResources(ctx context.Context, keys ...string) error {
	db := conn(ctx, r.db)
	if !isPostgres(db) || len(keys) == 0 {
		return nil
	}
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for _, key := range sorted {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
			return Translate(err)
		}
	}
	return nil
}

// ListOccupying returns candidate rows for conflict detection.
func (r *AppointmentRepository) ListOccupying(ctx context.Context, f OccupancyFilter) ([]models.Appointment, error) {
	if f.TechnicianID == nil && f.VehicleID == nil {
		return nil, nil
	}
	db := conn(ctx, r.db)

	query := db.Model(&models.Appointment{}).
		Where("start_at < ?", f.To).
		Where("((end_at IS NOT NULL AND end_at > ?) OR (end_at IS NULL AND start_at > ?))", f.From, f.From.Add(-f.Block))

	switch {
	case f.TechnicianID != nil && f.VehicleID != nil:
		query = query.Where(db.Where("technician_id = ?", *f.TechnicianID).Or("vehicle_id = ?", *f.VehicleID))
	case f.TechnicianID != nil:
		query = query.Where("technician_id = ?", *f.TechnicianID)
	default:
		query = query.Where("vehicle_id = ?", *f.VehicleID)
	}
	if len(f.SkipStatuses) > 0 {
		query = query.Where("status NOT IN ?", f.SkipStatuses)
	}
	if f.ExcludeID != nil {
		query = query.Where("id <> ?", *f.ExcludeID)
	}

	var rows []models.Appointment
	if err := query.Order("start_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, Translate(err)
	}
	return rows, nil
}

// NextPosition returns the board ordinal after the last appointment in status.
func (r *AppointmentRepository) NextPosition(ctx context.Context, status string) (int, error) {
	var last sql.NullInt64
	err := conn(ctx, r.db).Model(&models.Appointment{}).
		Where("status = ?", status).
		Select("MAX(position)").
		Row().Scan(&last)
	if err != nil {
		return 0, Translate(err)
	}
	if !last.Valid {
		return 0, nil
	}
	return int(last.Int64) + 1, nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return Translate(conn(ctx, r.db).Omit(clause.Associations).Create(appt).Error)
}

func (r *AppointmentRepository) CreateServices(ctx context.Context, services []models.AppointmentService) error {
	if len(services) == 0 {
		return nil
	}
	return Translate(conn(ctx, r.db).Create(&services).Error)
}

func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	return Translate(conn(ctx, r.db).Omit(clause.Associations).Save(appt).Error)
}

// ListServices returns the booked services in the order they were booked.
func (r *AppointmentRepository) ListServices(ctx context.Context, appointmentID uuid.UUID) ([]models.AppointmentService, error) {
	var services []models.AppointmentService
	err := conn(ctx, r.db).
		Where("appointment_id = ?", appointmentID).
		Order("position ASC, created_at ASC").
		Find(&services).Error
	if err != nil {
		return nil, Translate(err)
	}
	return services, nil
}
