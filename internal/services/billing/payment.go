package billing

import (
	"context"
	"strings"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPaymentMethod = "cash"

type ApplyPaymentInput struct {
	InvoiceID   uuid.UUID
	AmountCents int64
	Method      string
	Note        *string
}

type PaymentResult struct {
	Invoice *models.Invoice `json:"invoice"`
	Payment *models.Payment `json:"payment"`
}

// ApplyPayment records a payment against the amount due. Partial payments move the
// invoice to PARTIALLY_PAID; the payment that clears the balance marks it PAID.
func (s *Service) ApplyPayment(ctx context.Context, in ApplyPaymentInput) (_ *PaymentResult, err error) {
	ctx, span := startSpan(ctx, "billing.ApplyPayment", in.InvoiceID)
	defer func() { finishSpan(span, err) }()

	if in.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = defaultPaymentMethod
	}

	var before ledgerState
	var result *PaymentResult
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		before = stateOf(invoice)

		switch {
		case invoice.Status == models.InvoiceVoid:
			return wrapf(ErrInvalidState, "invoice %s is void", invoice.Number)
		case invoice.Status == models.InvoicePaid || invoice.AmountDueCents <= 0:
			return ErrAlreadyPaid
		case in.AmountCents > invoice.AmountDueCents:
			return wrapf(ErrOverpayment, "amount %d exceeds due %d", in.AmountCents, invoice.AmountDueCents)
		}

		appointmentID := invoice.AppointmentID
		payment := &models.Payment{
			ID:            uuid.New(),
			InvoiceID:     invoice.ID,
			AppointmentID: &appointmentID,
			AmountCents:   in.AmountCents,
			Method:        method,
			Note:          in.Note,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}

		invoice.AmountPaidCents += in.AmountCents
		invoice.AmountDueCents -= in.AmountCents
		if invoice.AmountDueCents == 0 {
			now := s.clock()
			invoice.Status = models.InvoicePaid
			invoice.PaidAt = &now
		} else {
			invoice.Status = models.InvoicePartiallyPaid
		}
		if err := s.saveInvoice(ctx, invoice); err != nil {
			return err
		}
		result = &PaymentResult{Invoice: invoice, Payment: payment}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("apply payment", err)
	}

	s.record(ctx, "invoice.payment", in.InvoiceID, before, stateOf(result.Invoice))
	s.log.Info("payment applied",
		zap.String("invoice_id", in.InvoiceID.String()),
		zap.Int64("amount_cents", in.AmountCents),
		zap.String("method", method),
		zap.String("status", result.Invoice.Status),
	)
	return result, nil
}
