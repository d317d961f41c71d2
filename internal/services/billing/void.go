package billing

import (
	"context"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VoidResult struct {
	Invoice        *models.Invoice `json:"invoice"`
	PreviousStatus string          `json:"previous_status"`
}

// VoidInvoice cancels an unpaid or partially paid invoice. Payments already taken stay on
// the ledger and the amount due keeps reflecting them.
func (s *Service) VoidInvoice(ctx context.Context, id uuid.UUID) (_ *VoidResult, err error) {
	ctx, span := startSpan(ctx, "billing.VoidInvoice", id)
	defer func() { finishSpan(span, err) }()

	var result *VoidResult
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}
		switch invoice.Status {
		case models.InvoiceVoid:
			return ErrAlreadyVoid
		case models.InvoicePaid:
			return ErrAlreadyPaid
		}

		previous := invoice.Status
		now := s.clock()
		invoice.Status = models.InvoiceVoid
		invoice.VoidedAt = &now
		invoice.AmountDueCents = invoice.TotalCents - invoice.AmountPaidCents
		if err := s.saveInvoice(ctx, invoice); err != nil {
			return err
		}
		result = &VoidResult{Invoice: invoice, PreviousStatus: previous}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("void invoice", err)
	}

	s.record(ctx, "invoice.void", id, map[string]string{"status": result.PreviousStatus}, stateOf(result.Invoice))
	s.log.Info("invoice voided",
		zap.String("invoice_id", id.String()),
		zap.String("previous_status", result.PreviousStatus),
	)
	return result, nil
}
