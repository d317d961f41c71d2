package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/repository/repotest"
	"garage-backend/internal/services/audit"
	"garage-backend/internal/services/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingSink) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, event.Action)
}

type fixture struct {
	db   *gorm.DB
	svc  *Service
	sink *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.OpenDB(t)
	sink := &recordingSink{}
	svc, err := NewService(ServiceDeps{
		Invoices:     repository.NewInvoiceRepository(db),
		Payments:     repository.NewPaymentRepository(db),
		Appointments: repository.NewAppointmentRepository(db),
		Packages:     repository.NewCatalogRepository(db),
		Catalog:      catalog.NewLookup(repository.NewCatalogRepository(db), nil, 0, nil),
		UnitOfWork:   repository.NewUnitOfWork(db, 0),
		Audit:        sink,
		Clock:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{db: db, svc: svc, sink: sink}
}

type bookedService struct {
	name  string
	price string
	opID  *uuid.UUID
}

func (f *fixture) appointment(t *testing.T, status string, services ...bookedService) uuid.UUID {
	t.Helper()
	appt := models.Appointment{
		ID:      uuid.New(),
		Status:  status,
		Title:   "Service visit",
		StartAt: fixedNow.Add(-4 * time.Hour),
	}
	require.NoError(t, f.db.Create(&appt).Error)

	for i, spec := range services {
		row := models.AppointmentService{
			ID:                 uuid.New(),
			AppointmentID:      appt.ID,
			ServiceOperationID: spec.opID,
			Name:               spec.name,
			Position:           i,
		}
		if spec.price != "" {
			price := decimal.RequireFromString(spec.price)
			row.EstimatedPrice = &price
		}
		require.NoError(t, f.db.Create(&row).Error)
	}
	return appt.ID
}

func (f *fixture) catalogItem(t *testing.T, name, price string) models.CatalogItem {
	t.Helper()
	item := models.CatalogItem{
		ID:           uuid.New(),
		Name:         name,
		DefaultPrice: decimal.RequireFromString(price),
		Active:       true,
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

type childSpec struct {
	item models.CatalogItem
	qty  int
}

func (f *fixture) pkg(t *testing.T, override string, children ...childSpec) models.CatalogItem {
	t.Helper()
	pkg := models.CatalogItem{ID: uuid.New(), Name: "Winter package", IsPackage: true, Active: true}
	if override != "" {
		price := decimal.RequireFromString(override)
		pkg.PackagePrice = &price
	}
	require.NoError(t, f.db.Create(&pkg).Error)
	for i, child := range children {
		require.NoError(t, f.db.Create(&models.PackageItem{
			ID:        uuid.New(),
			PackageID: pkg.ID,
			ChildID:   child.item.ID,
			Quantity:  child.qty,
			SortOrder: i,
		}).Error)
	}
	return pkg
}

// invoiceWithTotal generates an invoice for a completed appointment with one line.
func (f *fixture) invoiceWithTotal(t *testing.T, price string) *models.Invoice {
	t.Helper()
	apptID := f.appointment(t, models.AppointmentCompleted, bookedService{name: "Labour", price: price})
	invoice, err := f.svc.GenerateInvoice(context.Background(), apptID)
	require.NoError(t, err)
	return invoice
}

// assertLedger reloads the invoice and checks the ledger identities.
func (f *fixture) assertLedger(t *testing.T, id uuid.UUID) *models.Invoice {
	t.Helper()
	inv, err := f.svc.GetInvoice(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, inv.SubtotalCents+inv.TaxCents, inv.TotalCents, "total = subtotal + tax")
	assert.Equal(t, inv.TotalCents-inv.AmountPaidCents, inv.AmountDueCents, "due = total - paid")

	var lines, paid int64
	for _, li := range inv.LineItems {
		lines += li.TotalCents
	}
	for _, p := range inv.Payments {
		paid += p.AmountCents
	}
	assert.Equal(t, inv.SubtotalCents, lines, "subtotal = sum of lines")
	assert.Equal(t, inv.AmountPaidCents, paid, "paid = sum of payments")
	return inv
}
