package billing

import (
	"context"
	"errors"
	"strings"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/services/scheduling"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// GenerateInvoice snapshots a completed appointment's services into a DRAFT invoice.
// An appointment is invoiced at most once.
func (s *Service) GenerateInvoice(ctx context.Context, appointmentID uuid.UUID) (_ *models.Invoice, err error) {
	ctx, span := tracer.Start(ctx, "billing.GenerateInvoice", trace.WithAttributes(
		attribute.String("appointment.id", appointmentID.String()),
	))
	defer func() { finishSpan(span, err) }()

	var invoice *models.Invoice
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.LockByID(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}
		if !scheduling.IsBillable(appt.Status) {
			return wrapf(ErrInvalidState, "appointment status %s is not billable", appt.Status)
		}

		if _, err := s.invoices.FindByAppointment(ctx, appointmentID); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		services, err := s.appointments.ListServices(ctx, appointmentID)
		if err != nil {
			return err
		}
		items, err := s.backfillCatalog(ctx, services)
		if err != nil {
			return err
		}

		invoice = &models.Invoice{
			ID:            uuid.New(),
			Number:        s.newNumber(),
			AppointmentID: appointmentID,
			Status:        models.InvoiceDraft,
		}
		lines := make([]models.InvoiceLineItem, 0, len(services))
		var subtotal int64
		for i, svc := range services {
			name, price := svc.Name, svc.EstimatedPrice
			if svc.ServiceOperationID != nil {
				if item, ok := items[*svc.ServiceOperationID]; ok {
					if strings.TrimSpace(name) == "" {
						name = item.Name
					}
					if price == nil {
						price = &item.DefaultPrice
					}
				}
			}
			unit := int64(0)
			if price != nil {
				unit = ToCents(*price)
			}
			lines = append(lines, models.InvoiceLineItem{
				ID:                 uuid.New(),
				InvoiceID:          invoice.ID,
				Position:           i,
				ServiceOperationID: svc.ServiceOperationID,
				Name:               name,
				Quantity:           1,
				UnitPriceCents:     unit,
				LineSubtotalCents:  unit,
				TotalCents:         unit,
			})
			subtotal += unit
		}

		invoice.SubtotalCents = subtotal
		invoice.TotalCents = subtotal
		invoice.AmountDueCents = subtotal
		if err := checkTotals(invoice); err != nil {
			return err
		}
		if err := s.invoices.Create(ctx, invoice); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyExists
			}
			return err
		}
		if err := s.invoices.CreateLineItems(ctx, lines); err != nil {
			return err
		}
		invoice.LineItems = lines
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("generate invoice", err)
	}

	s.record(ctx, "invoice.generate", invoice.ID, nil, stateOf(invoice))
	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.String("appointment_id", appointmentID.String()),
		zap.Int64("total_cents", invoice.TotalCents),
	)
	return invoice, nil
}

// backfillCatalog loads catalog rows for services missing a name or price.
func (s *Service) backfillCatalog(ctx context.Context, services []models.AppointmentService) (map[uuid.UUID]models.CatalogItem, error) {
	if s.catalog == nil {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, svc := range services {
		if svc.ServiceOperationID == nil {
			continue
		}
		if strings.TrimSpace(svc.Name) == "" || svc.EstimatedPrice == nil {
			ids = append(ids, *svc.ServiceOperationID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.catalog.Items(ctx, ids)
}

