package billing

import (
	"context"
	"errors"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type PackageResult struct {
	Invoice            *models.Invoice          `json:"invoice"`
	LineItems          []models.InvoiceLineItem `json:"line_items"`
	AddedSubtotalCents int64                    `json:"added_subtotal_cents"`
}

// AddPackageToInvoice appends one line item per package child. When the package carries
// a price override the children are rescaled to sum to it exactly.
func (s *Service) AddPackageToInvoice(ctx context.Context, invoiceID, packageID uuid.UUID) (_ *PackageResult, err error) {
	ctx, span := startSpan(ctx, "billing.AddPackageToInvoice", invoiceID)
	span.SetAttributes(attribute.String("package.id", packageID.String()))
	defer func() { finishSpan(span, err) }()

	var before ledgerState
	var result *PackageResult
	err = s.uow.RunInTx(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == models.InvoiceVoid || invoice.Status == models.InvoicePaid {
			return wrapf(ErrInvalidState, "cannot add items to %s invoice", invoice.Status)
		}
		before = stateOf(invoice)

		pkg, err := s.packages.GetByID(ctx, packageID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPackageNotFound
			}
			return err
		}
		if !pkg.IsPackage {
			return ErrNotAPackage
		}
		children, err := s.packages.ListPackageItems(ctx, packageID)
		if err != nil {
			return err
		}
		if len(children) == 0 {
			return ErrEmptyPackage
		}

		units := make([]int64, len(children))
		extended := make([]int64, len(children))
		var childSum int64
		for i, child := range children {
			if child.Quantity <= 0 {
				return wrapf(ErrInvalidInput, "package item %s has quantity %d", child.ChildID, child.Quantity)
			}
			units[i] = ToCents(child.Child.DefaultPrice)
			extended[i] = units[i] * int64(child.Quantity)
			childSum += extended[i]
		}

		amounts := extended
		if pkg.PackagePrice != nil {
			override := ToCents(*pkg.PackagePrice)
			if override < 0 {
				return wrapf(ErrInvalidInput, "package %s has negative price", pkg.ID)
			}
			if override != childSum {
				amounts = AllocateOverride(extended, override)
			}
		}

		last, err := s.invoices.MaxPosition(ctx, invoiceID)
		if err != nil {
			return err
		}

		lines := make([]models.InvoiceLineItem, len(children))
		var added int64
		for i, child := range children {
			childID := child.ChildID
			pkgID := pkg.ID
			lines[i] = models.InvoiceLineItem{
				ID:                 uuid.New(),
				InvoiceID:          invoiceID,
				Position:           last + 1 + i,
				ServiceOperationID: &childID,
				PackageID:          &pkgID,
				Name:               child.Child.Name,
				Quantity:           child.Quantity,
				UnitPriceCents:     units[i],
				LineSubtotalCents:  amounts[i],
				TotalCents:         amounts[i],
			}
			added += amounts[i]
		}
		if err := s.invoices.CreateLineItems(ctx, lines); err != nil {
			return err
		}

		invoice.SubtotalCents += added
		invoice.TotalCents += added
		invoice.AmountDueCents += added
		if err := s.saveInvoice(ctx, invoice); err != nil {
			return err
		}
		result = &PackageResult{Invoice: invoice, LineItems: lines, AddedSubtotalCents: added}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("add package", err)
	}

	s.record(ctx, "invoice.package.add", invoiceID, before, stateOf(result.Invoice))
	s.log.Info("package added to invoice",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("package_id", packageID.String()),
		zap.Int64("added_cents", result.AddedSubtotalCents),
	)
	return result, nil
}
