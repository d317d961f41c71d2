package billing

import (
	"context"

	"garage-backend/internal/models"

	"github.com/google/uuid"
)

// SendInvoice issues a DRAFT invoice. Sending an already SENT invoice changes nothing.
func (s *Service) SendInvoice(ctx context.Context, id uuid.UUID) (_ *models.Invoice, err error) {
	ctx, span := startSpan(ctx, "billing.SendInvoice", id)
	defer func() { finishSpan(span, err) }()

	var invoice *models.Invoice
	changed := false
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}
		invoice = current
		switch current.Status {
		case models.InvoiceSent:
			return nil
		case models.InvoiceDraft:
		default:
			return wrapf(ErrInvalidState, "cannot send invoice in status %s", current.Status)
		}

		now := s.clock()
		current.Status = models.InvoiceSent
		current.IssuedAt = &now
		changed = true
		return s.saveInvoice(ctx, current)
	})
	if err != nil {
		return nil, wrapStoreError("send invoice", err)
	}

	if changed {
		s.record(ctx, "invoice.send", id, map[string]string{"status": models.InvoiceDraft}, stateOf(invoice))
	}
	return invoice, nil
}
