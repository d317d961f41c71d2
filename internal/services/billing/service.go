// Package billing turns completed appointments into invoices and keeps the cent ledger
// of line items and payments consistent.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/services/audit"
	"garage-backend/internal/services/catalog"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("garage-backend/billing")

const defaultListLimit = 50

type InvoiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*models.Invoice, error)
	Search(ctx context.Context, statuses []string, since time.Time, limit int) ([]models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	CreateLineItems(ctx context.Context, items []models.InvoiceLineItem) error
	Update(ctx context.Context, invoice *models.Invoice) error
	MaxPosition(ctx context.Context, invoiceID uuid.UUID) (int, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
}

type AppointmentRepository interface {
	LockByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	ListServices(ctx context.Context, appointmentID uuid.UUID) ([]models.AppointmentService, error)
}

type PackageRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogItem, error)
	ListPackageItems(ctx context.Context, packageID uuid.UUID) ([]models.PackageItem, error)
}

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceDeps struct {
	Invoices        InvoiceRepository
	Payments        PaymentRepository
	Appointments    AppointmentRepository
	Packages        PackageRepository
	Catalog         catalog.Lookup
	UnitOfWork      UnitOfWork
	Audit           audit.Sink
	Logger          *zap.Logger
	Clock           func() time.Time
	NumberGenerator func() string
}

type Service struct {
	invoices     InvoiceRepository
	payments     PaymentRepository
	appointments AppointmentRepository
	packages     PackageRepository
	catalog      catalog.Lookup
	uow          UnitOfWork
	audit        audit.Sink
	log          *zap.Logger
	clock        func() time.Time
	newNumber    func() string
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Invoices == nil {
		return nil, errors.New("billing service: invoice repository is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("billing service: payment repository is required")
	}
	if deps.Appointments == nil {
		return nil, errors.New("billing service: appointment repository is required")
	}
	if deps.Packages == nil {
		return nil, errors.New("billing service: package repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("billing service: unit of work is required")
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
	newNumber := deps.NumberGenerator
	if newNumber == nil {
		newNumber = func() string {
			return "INV-" + ulid.Make().String()
		}
	}

	return &Service{
		invoices:     deps.Invoices,
		payments:     deps.Payments,
		appointments: deps.Appointments,
		packages:     deps.Packages,
		catalog:      deps.Catalog,
		uow:          deps.UnitOfWork,
		audit:        sink,
		log:          log.Named("billing"),
		clock:        func() time.Time { return clock().UTC() },
		newNumber:    newNumber,
	}, nil
}

// GetInvoice returns the invoice with line items in position order and payments oldest first.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}

type ListInvoicesFilter struct {
	Statuses []string
	Since    time.Time
	Limit    int
}

// ListInvoices returns invoice headers newest first.
func (s *Service) ListInvoices(ctx context.Context, f ListInvoicesFilter) ([]models.Invoice, error) {
	for _, status := range f.Statuses {
		switch status {
		case models.InvoiceDraft, models.InvoiceSent, models.InvoicePartiallyPaid, models.InvoicePaid, models.InvoiceVoid:
		default:
			return nil, fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, status)
		}
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	invoices, err := s.invoices.Search(ctx, f.Statuses, f.Since, limit)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

// lockInvoice must run inside a transaction.
func (s *Service) lockInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (s *Service) saveInvoice(ctx context.Context, invoice *models.Invoice) error {
	if err := checkTotals(invoice); err != nil {
		return err
	}
	return s.invoices.Update(ctx, invoice)
}

func (s *Service) record(ctx context.Context, action string, invoiceID uuid.UUID, before, after any) {
	s.audit.Record(ctx, audit.Event{
		Action:   action,
		Entity:   "invoice",
		EntityID: invoiceID.String(),
		Before:   before,
		After:    after,
	})
}

type ledgerState struct {
	Status          string `json:"status"`
	TotalCents      int64  `json:"total_cents"`
	AmountPaidCents int64  `json:"amount_paid_cents"`
	AmountDueCents  int64  `json:"amount_due_cents"`
}

func stateOf(inv *models.Invoice) ledgerState {
	return ledgerState{
		Status:          inv.Status,
		TotalCents:      inv.TotalCents,
		AmountPaidCents: inv.AmountPaidCents,
		AmountDueCents:  inv.AmountDueCents,
	}
}

func startSpan(ctx context.Context, name string, invoiceID uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("invoice.id", invoiceID.String())))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
