package billing

import (
	"context"
	"testing"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPackageRescalesToOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.invoiceWithTotal(t, "20.00")

	pkg := f.pkg(t, "50.00",
		childSpec{item: f.catalogItem(t, "Coolant check", "10.00"), qty: 1},
		childSpec{item: f.catalogItem(t, "Battery test", "20.00"), qty: 1},
		childSpec{item: f.catalogItem(t, "Tire swap", "30.00"), qty: 1},
	)

	res, err := f.svc.AddPackageToInvoice(ctx, invoice.ID, pkg.ID)
	require.NoError(t, err)
	require.Len(t, res.LineItems, 3)
	assert.Equal(t, int64(5000), res.AddedSubtotalCents)

	totals := []int64{res.LineItems[0].TotalCents, res.LineItems[1].TotalCents, res.LineItems[2].TotalCents}
	assert.Equal(t, []int64{833, 1666, 2501}, totals)
	assert.Equal(t, int64(1000), res.LineItems[0].UnitPriceCents)
	assert.Equal(t, "Coolant check", res.LineItems[0].Name)
	assert.Equal(t, pkg.ID, *res.LineItems[0].PackageID)

	loaded := f.assertLedger(t, invoice.ID)
	assert.Equal(t, int64(7000), loaded.TotalCents)
	assert.Equal(t, int64(7000), loaded.AmountDueCents)
	require.Len(t, loaded.LineItems, 4)
	for i, li := range loaded.LineItems {
		assert.Equal(t, i, li.Position)
	}
	assert.Contains(t, f.sink.actions, "invoice.package.add")
}

func TestAddPackageWithoutOverrideUsesExtendedPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.invoiceWithTotal(t, "10.00")
	_, err := f.svc.ApplyPayment(ctx, ApplyPaymentInput{InvoiceID: invoice.ID, AmountCents: 500})
	require.NoError(t, err)

	pkg := f.pkg(t, "",
		childSpec{item: f.catalogItem(t, "Spark plug", "12.50"), qty: 4},
		childSpec{item: f.catalogItem(t, "Labour", "40.00"), qty: 1},
	)
	res, err := f.svc.AddPackageToInvoice(ctx, invoice.ID, pkg.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(5000), res.LineItems[0].TotalCents)
	assert.Equal(t, int64(1250), res.LineItems[0].UnitPriceCents)
	assert.Equal(t, 4, res.LineItems[0].Quantity)
	assert.Equal(t, int64(4000), res.LineItems[1].TotalCents)

	loaded := f.assertLedger(t, invoice.ID)
	assert.Equal(t, int64(10000), loaded.TotalCents)
	assert.Equal(t, int64(500), loaded.AmountPaidCents)
	assert.Equal(t, int64(9500), loaded.AmountDueCents)
	assert.Equal(t, models.InvoicePartiallyPaid, loaded.Status)
}

func TestAddPackageZeroPricedChildrenWithOverride(t *testing.T) {
	f := newFixture(t)
	invoice := f.invoiceWithTotal(t, "0.00")
	pkg := f.pkg(t, "30.00",
		childSpec{item: f.catalogItem(t, "Inspection", "0"), qty: 1},
		childSpec{item: f.catalogItem(t, "Wash", "0"), qty: 1},
	)

	res, err := f.svc.AddPackageToInvoice(context.Background(), invoice.ID, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.LineItems[0].TotalCents)
	assert.Equal(t, int64(3000), res.LineItems[1].TotalCents)
	f.assertLedger(t, invoice.ID)
}

func TestAddPackageRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.invoiceWithTotal(t, "10.00")
	plain := f.catalogItem(t, "Oil change", "49.00")
	empty := f.pkg(t, "")
	negative := f.pkg(t, "-1.00", childSpec{item: plain, qty: 1})

	_, err := f.svc.AddPackageToInvoice(ctx, invoice.ID, uuid.New())
	assert.ErrorIs(t, err, ErrPackageNotFound)

	_, err = f.svc.AddPackageToInvoice(ctx, invoice.ID, plain.ID)
	assert.ErrorIs(t, err, ErrNotAPackage)

	_, err = f.svc.AddPackageToInvoice(ctx, invoice.ID, empty.ID)
	assert.ErrorIs(t, err, ErrEmptyPackage)

	_, err = f.svc.AddPackageToInvoice(ctx, invoice.ID, negative.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddPackageToInvoice(ctx, uuid.New(), empty.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	f.assertLedger(t, invoice.ID)

	_, err = f.svc.VoidInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	_, err = f.svc.AddPackageToInvoice(ctx, invoice.ID, negative.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}
