package repository_test

import (
	"context"
	"testing"

	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/repository/repotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRepository(t *testing.T) {
	db := repotest.OpenDB(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	apptID := uuid.New()
	invoice := models.Invoice{ID: uuid.New(), Number: "INV-1", AppointmentID: apptID, Status: models.InvoiceDraft}
	require.NoError(t, repo.Create(ctx, &invoice))

	last, err := repo.MaxPosition(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, last)

	require.NoError(t, repo.CreateLineItems(ctx, []models.InvoiceLineItem{
		{ID: uuid.New(), InvoiceID: invoice.ID, Position: 1, Name: "B", Quantity: 1},
		{ID: uuid.New(), InvoiceID: invoice.ID, Position: 0, Name: "A", Quantity: 1},
	}))
	last, err = repo.MaxPosition(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, last)

	loaded, err := repo.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, loaded.LineItems, 2)
	assert.Equal(t, "A", loaded.LineItems[0].Name)

	found, err := repo.FindByAppointment(ctx, apptID)
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, found.ID)

	dup := models.Invoice{ID: uuid.New(), Number: "INV-2", AppointmentID: apptID, Status: models.InvoiceDraft}
	assert.ErrorIs(t, repo.Create(ctx, &dup), repository.ErrDuplicate)

	other := models.Invoice{ID: uuid.New(), Number: "INV-3", AppointmentID: uuid.New(), Status: models.InvoiceVoid}
	require.NoError(t, repo.Create(ctx, &other))
	drafts, err := repo.Search(ctx, []string{models.InvoiceDraft}, invoice.CreatedAt.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, invoice.ID, drafts[0].ID)
}

func TestCustomerLookup(t *testing.T) {
	db := repotest.OpenDB(t)
	repo := repository.NewCustomerRepository(db)
	ctx := context.Background()

	email, phone := "Sam@Example.com", "+1 555 0100"
	customer := models.Customer{ID: uuid.New(), Name: "Sam", Email: &email, Phone: &phone}
	require.NoError(t, repo.CreateCustomer(ctx, &customer))

	got, err := repo.FindCustomer(ctx, "sam@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	got, err = repo.FindCustomer(ctx, "nobody@example.com", phone)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	_, err = repo.FindCustomer(ctx, "", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	vin := "WDB1234561A123456"
	vehicle := models.Vehicle{ID: uuid.New(), VIN: &vin, Make: "Mercedes"}
	require.NoError(t, repo.CreateVehicle(ctx, &vehicle))
	v, err := repo.FindVehicleByVIN(ctx, "wdb1234561a123456")
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, v.ID)
}
