// Package scheduling books appointments against technicians and vehicles and moves them
// through their status lifecycle without double booking either resource.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/services/audit"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("garage-backend/scheduling")

type AppointmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	LockResources(ctx context.Context, keys ...string) error
	ListOccupying(ctx context.Context, f repository.OccupancyFilter) ([]models.Appointment, error)
	NextPosition(ctx context.Context, status string) (int, error)
	Create(ctx context.Context, appt *models.Appointment) error
	CreateServices(ctx context.Context, services []models.AppointmentService) error
	Update(ctx context.Context, appt *models.Appointment) error
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindCustomer(ctx context.Context, email, phone string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	CreateVehicle(ctx context.Context, v *models.Vehicle) error
}

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceDeps struct {
	Appointments AppointmentRepository
	Customers    CustomerRepository
	UnitOfWork   UnitOfWork
	Audit        audit.Sink
	Logger       *zap.Logger
	Clock        func() time.Time
	Config       config.SchedulingConfig
}

type Service struct {
	appointments AppointmentRepository
	customers    CustomerRepository
	uow          UnitOfWork
	detector     *ConflictDetector
	audit        audit.Sink
	log          *zap.Logger
	clock        func() time.Time
	cfg          config.SchedulingConfig
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Appointments == nil {
		return nil, errors.New("scheduling service: appointment repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("scheduling service: customer repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("scheduling service: unit of work is required")
	}
	if deps.Config.DefaultBlockDuration <= 0 {
		return nil, errors.New("scheduling service: default block duration must be positive")
	}

	sink := deps.Audit
	if sink == nil {
		sink = audit.Nop{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		appointments: deps.Appointments,
		customers:    deps.Customers,
		uow:          deps.UnitOfWork,
		detector:     NewConflictDetector(deps.Appointments, deps.Config.DefaultBlockDuration),
		audit:        sink,
		log:          log.Named("scheduling"),
		clock:        func() time.Time { return clock().UTC() },
		cfg:          deps.Config,
	}, nil
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type VehicleInput struct {
	VIN   string `json:"vin"`
	Year  *int   `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

type ServiceInput struct {
	ServiceOperationID *uuid.UUID       `json:"service_operation_id"`
	Name               string           `json:"name"`
	EstimatedPrice     *decimal.Decimal `json:"estimated_price"`
	EstimatedHours     *decimal.Decimal `json:"estimated_hours"`
}

type CreateAppointmentInput struct {
	Title        string           `json:"title"`
	Notes        *string          `json:"notes"`
	StartAt      time.Time        `json:"start_at"`
	EndAt        *time.Time       `json:"end_at"`
	TechnicianID *string          `json:"technician_id"`
	CustomerID   *uuid.UUID       `json:"customer_id"`
	Customer     *CustomerInput   `json:"customer"`
	VehicleID    *uuid.UUID       `json:"vehicle_id"`
	Vehicle      *VehicleInput    `json:"vehicle"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	PaidAmount   *decimal.Decimal `json:"paid_amount"`
	Services     []ServiceInput   `json:"services"`
}

// PatchAppointmentInput holds optional changes. An empty TechnicianID unassigns the
// technician; ClearEnd and ClearVehicle remove the end time and vehicle.
type PatchAppointmentInput struct {
	Status       *string          `json:"status"`
	Title        *string          `json:"title"`
	Notes        *string          `json:"notes"`
	StartAt      *time.Time       `json:"start_at"`
	EndAt        *time.Time       `json:"end_at"`
	ClearEnd     bool             `json:"clear_end"`
	TechnicianID *string          `json:"technician_id"`
	VehicleID    *uuid.UUID       `json:"vehicle_id"`
	ClearVehicle bool             `json:"clear_vehicle"`
	Position     *int             `json:"position"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	PaidAmount   *decimal.Decimal `json:"paid_amount"`
}

type snapshot struct {
	Status       string     `json:"status"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	TechnicianID *string    `json:"technician_id,omitempty"`
	VehicleID    *uuid.UUID `json:"vehicle_id,omitempty"`
	Position     int        `json:"position"`
}

func snapshotOf(a *models.Appointment) snapshot {
	return snapshot{
		Status:       a.Status,
		StartAt:      a.StartAt,
		EndAt:        a.EndAt,
		TechnicianID: a.TechnicianID,
		VehicleID:    a.VehicleID,
		Position:     a.Position,
	}
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// FindConflicts reports overlapping bookings for a candidate window without writing.
func (s *Service) FindConflicts(ctx context.Context, q ConflictQuery) (Conflicts, error) {
	ctx, span := tracer.Start(ctx, "scheduling.FindConflicts")
	defer span.End()

	if q.StartAt.IsZero() {
		return Conflicts{}, invalidInput("start_at is required")
	}
	if q.EndAt != nil && q.EndAt.Before(q.StartAt) {
		return Conflicts{}, invalidInput("end_at must not precede start_at")
	}
	conflicts, err := s.detector.FindConflicts(ctx, q)
	if err != nil {
		return Conflicts{}, fmt.Errorf("find conflicts: %w", err)
	}
	return conflicts, nil
}

func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (_ *models.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.CreateAppointment")
	defer func() { finishSpan(span, err) }()

	now := s.clock()
	start := normalizeTime(in.StartAt)
	end := normalizeTimePtr(in.EndAt)
	tech := normalizeTechnician(in.TechnicianID)

	if err := s.validateWindow(start, end, now, true); err != nil {
		return nil, err
	}
	total, paid, err := validateAmounts(in.TotalAmount, in.PaidAmount, decimal.Zero, decimal.Zero)
	if err != nil {
		return nil, err
	}
	if err := validateServices(in.Services); err != nil {
		return nil, err
	}

	var created *models.Appointment
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		customerID, err := s.resolveCustomer(ctx, in.CustomerID, in.Customer)
		if err != nil {
			return err
		}
		vehicleID, err := s.resolveVehicle(ctx, in.VehicleID, in.Vehicle, customerID)
		if err != nil {
			return err
		}

		if err := s.appointments.LockResources(ctx, resourceKeys(tech, vehicleID)...); err != nil {
			return err
		}
		conflicts, err := s.detector.FindConflicts(ctx, ConflictQuery{
			TechnicianID: tech,
			VehicleID:    vehicleID,
			StartAt:      start,
			EndAt:        end,
		})
		if err != nil {
			return err
		}
		if !conflicts.Empty() {
			return &ConflictError{Conflicts: conflicts}
		}

		position, err := s.appointments.NextPosition(ctx, models.AppointmentScheduled)
		if err != nil {
			return err
		}

		appt := &models.Appointment{
			ID:           uuid.New(),
			Status:       models.AppointmentScheduled,
			Title:        strings.TrimSpace(in.Title),
			Notes:        in.Notes,
			StartAt:      start,
			EndAt:        end,
			TechnicianID: tech,
			VehicleID:    vehicleID,
			CustomerID:   customerID,
			Position:     position,
			TotalAmount:  total,
			PaidAmount:   paid,
		}
		if err := s.appointments.Create(ctx, appt); err != nil {
			return err
		}

		services := make([]models.AppointmentService, 0, len(in.Services))
		for i, svc := range in.Services {
			services = append(services, models.AppointmentService{
				ID:                 uuid.New(),
				AppointmentID:      appt.ID,
				ServiceOperationID: svc.ServiceOperationID,
				Name:               strings.TrimSpace(svc.Name),
				EstimatedPrice:     svc.EstimatedPrice,
				EstimatedHours:     svc.EstimatedHours,
				Position:           i,
			})
		}
		if err := s.appointments.CreateServices(ctx, services); err != nil {
			return err
		}
		appt.Services = services
		created = appt
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("create appointment", err)
	}

	s.audit.Record(ctx, audit.Event{
		Action:   "appointment.create",
		Entity:   "appointment",
		EntityID: created.ID.String(),
		After:    snapshotOf(created),
	})
	s.log.Info("appointment created",
		zap.String("appointment_id", created.ID.String()),
		zap.Time("start_at", created.StartAt),
	)
	return created, nil
}

func (s *Service) PatchAppointment(ctx context.Context, id uuid.UUID, in PatchAppointmentInput) (_ *models.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.PatchAppointment", trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
	))
	defer func() { finishSpan(span, err) }()

	now := s.clock()
	var before snapshot
	var updated *models.Appointment

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.appointments.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		before = snapshotOf(current)
		next := *current

		fromStatus, err := NormalizeStatus(current.Status)
		if err != nil {
			return err
		}
		next.Status = fromStatus
		if in.Status != nil {
			toStatus, err := NormalizeStatus(*in.Status)
			if err != nil {
				return err
			}
			if err := ValidateTransition(fromStatus, toStatus); err != nil {
				return err
			}
			next.Status = toStatus
			if toStatus == models.AppointmentCompleted && fromStatus != models.AppointmentCompleted {
				next.CompletedAt = &now
			}
		}

		if in.Title != nil {
			next.Title = strings.TrimSpace(*in.Title)
		}
		if in.Notes != nil {
			next.Notes = in.Notes
		}
		startMoved := false
		if in.StartAt != nil {
			start := normalizeTime(*in.StartAt)
			startMoved = !start.Equal(current.StartAt)
			next.StartAt = start
		}
		switch {
		case in.ClearEnd:
			next.EndAt = nil
		case in.EndAt != nil:
			next.EndAt = normalizeTimePtr(in.EndAt)
		}
		if in.TechnicianID != nil {
			next.TechnicianID = normalizeTechnician(in.TechnicianID)
		}
		switch {
		case in.ClearVehicle:
			next.VehicleID = nil
		case in.VehicleID != nil:
			if _, err := s.customers.GetVehicle(ctx, *in.VehicleID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalidInput("vehicle %s not found", *in.VehicleID)
				}
				return err
			}
			vehicle := *in.VehicleID
			next.VehicleID = &vehicle
		}
		if in.Position != nil {
			if *in.Position < 0 {
				return invalidInput("position must not be negative")
			}
			next.Position = *in.Position
		}

		if err := s.validateWindow(next.StartAt, next.EndAt, now, startMoved); err != nil {
			return err
		}
		next.TotalAmount, next.PaidAmount, err = validateAmounts(in.TotalAmount, in.PaidAmount, current.TotalAmount, current.PaidAmount)
		if err != nil {
			return err
		}

		if occupies(next.Status) {
			if err := s.appointments.LockResources(ctx, resourceKeys(next.TechnicianID, next.VehicleID)...); err != nil {
				return err
			}
			conflicts, err := s.detector.FindConflicts(ctx, ConflictQuery{
				TechnicianID: next.TechnicianID,
				VehicleID:    next.VehicleID,
				StartAt:      next.StartAt,
				EndAt:        next.EndAt,
				ExcludeID:    &next.ID,
			})
			if err != nil {
				return err
			}
			if !conflicts.Empty() {
				return &ConflictError{Conflicts: conflicts}
			}
		}

		if err := s.appointments.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("patch appointment", err)
	}

	s.audit.Record(ctx, audit.Event{
		Action:   "appointment.patch",
		Entity:   "appointment",
		EntityID: id.String(),
		Before:   before,
		After:    snapshotOf(updated),
	})
	if before.Status != updated.Status {
		s.log.Info("appointment status changed",
			zap.String("appointment_id", id.String()),
			zap.String("from", before.Status),
			zap.String("to", updated.Status),
		)
	}
	return updated, nil
}

// MoveAppointment sets status and board position together, as a board drag-and-drop does.
func (s *Service) MoveAppointment(ctx context.Context, id uuid.UUID, status string, position int) (_ *models.Appointment, err error) {
	ctx, span := tracer.Start(ctx, "scheduling.MoveAppointment", trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
		attribute.String("appointment.status", status),
	))
	defer func() { finishSpan(span, err) }()

	if position < 0 {
		return nil, invalidInput("position must not be negative")
	}
	toStatus, err := NormalizeStatus(status)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	var before snapshot
	var moved *models.Appointment

	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.appointments.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		before = snapshotOf(current)
		fromStatus, err := NormalizeStatus(current.Status)
		if err != nil {
			return err
		}
		if err := ValidateTransition(fromStatus, toStatus); err != nil {
			return err
		}

		next := *current
		next.Status = toStatus
		next.Position = position
		if toStatus == models.AppointmentCompleted && fromStatus != models.AppointmentCompleted {
			next.CompletedAt = &now
		}
		if err := s.appointments.Update(ctx, &next); err != nil {
			return err
		}
		moved = &next
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("move appointment", err)
	}

	s.audit.Record(ctx, audit.Event{
		Action:   "appointment.move",
		Entity:   "appointment",
		EntityID: id.String(),
		Before:   before,
		After:    snapshotOf(moved),
	})
	return moved, nil
}

func (s *Service) validateWindow(start time.Time, end *time.Time, now time.Time, checkPast bool) error {
	if start.IsZero() {
		return invalidInput("start_at is required")
	}
	if checkPast && start.Before(now.Add(-s.cfg.PastGrace)) {
		return invalidInput("start_at %s is in the past", start.Format(time.RFC3339))
	}
	if end == nil {
		return nil
	}
	if end.Before(start) {
		return invalidInput("end_at must not precede start_at")
	}
	if s.cfg.MaxDuration > 0 && end.Sub(start) > s.cfg.MaxDuration {
		return invalidInput("appointment exceeds maximum duration of %s", s.cfg.MaxDuration)
	}
	return nil
}

func validateAmounts(total, paid *decimal.Decimal, currentTotal, currentPaid decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	t, p := currentTotal, currentPaid
	if total != nil {
		t = *total
	}
	if paid != nil {
		p = *paid
	}
	if t.IsNegative() {
		return t, p, invalidInput("total_amount must not be negative")
	}
	if p.IsNegative() {
		return t, p, invalidInput("paid_amount must not be negative")
	}
	if p.GreaterThan(t) {
		return t, p, invalidInput("paid_amount exceeds total_amount")
	}
	return t, p, nil
}

func validateServices(services []ServiceInput) error {
	for i, svc := range services {
		if strings.TrimSpace(svc.Name) == "" && svc.ServiceOperationID == nil {
			return invalidInput("services[%d] needs a name or service_operation_id", i)
		}
		if svc.EstimatedPrice != nil && svc.EstimatedPrice.IsNegative() {
			return invalidInput("services[%d] estimated_price must not be negative", i)
		}
		if svc.EstimatedHours != nil && svc.EstimatedHours.IsNegative() {
			return invalidInput("services[%d] estimated_hours must not be negative", i)
		}
	}
	return nil
}

func (s *Service) resolveCustomer(ctx context.Context, id *uuid.UUID, in *CustomerInput) (*uuid.UUID, error) {
	if id != nil {
		if _, err := s.customers.GetCustomer(ctx, *id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalidInput("customer %s not found", *id)
			}
			return nil, err
		}
		return id, nil
	}
	if in == nil {
		return nil, nil
	}

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.Phone)
	if name == "" && email == "" && phone == "" {
		return nil, nil
	}

	existing, err := s.customers.FindCustomer(ctx, email, phone)
	if err == nil {
		return &existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	customer := &models.Customer{ID: uuid.New(), Name: name, Email: optional(email), Phone: optional(phone)}
	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return &customer.ID, nil
}

func (s *Service) resolveVehicle(ctx context.Context, id *uuid.UUID, in *VehicleInput, customerID *uuid.UUID) (*uuid.UUID, error) {
	if id != nil {
		if _, err := s.customers.GetVehicle(ctx, *id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, invalidInput("vehicle %s not found", *id)
			}
			return nil, err
		}
		return id, nil
	}
	if in == nil {
		return nil, nil
	}

	vin := strings.ToUpper(strings.TrimSpace(in.VIN))
	if vin != "" {
		existing, err := s.customers.FindVehicleByVIN(ctx, vin)
		if err == nil {
			return &existing.ID, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	} else if strings.TrimSpace(in.Make) == "" && strings.TrimSpace(in.Model) == "" {
		return nil, nil
	}

	vehicle := &models.Vehicle{
		ID:         uuid.New(),
		CustomerID: customerID,
		VIN:        optional(vin),
		Year:       in.Year,
		Make:       strings.TrimSpace(in.Make),
		Model:      strings.TrimSpace(in.Model),
	}
	if err := s.customers.CreateVehicle(ctx, vehicle); err != nil {
		return nil, err
	}
	return &vehicle.ID, nil
}

// wrapStoreError keeps domain errors as they are and adds context to everything else.
func wrapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnknownStatus),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
