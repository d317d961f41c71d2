package repository

import (
	"context"
	"database/sql"
	"time"

	"garage-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// GetByID fetches an invoice with line items in position order and payments oldest first.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := conn(ctx, r.db).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &invoice, nil
}

// LockByID reads the invoice row with FOR UPDATE. Must run inside RunInTx.
func (r *InvoiceRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, Translate(err)
	}
	return &invoice, nil
}

// FindByAppointment returns the invoice billed for an appointment, if any.
func (r *InvoiceRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := conn(ctx, r.db).First(&invoice, "appointment_id = ?", appointmentID).Error; err != nil {
		return nil, Translate(err)
	}
	return &invoice, nil
}

// Search lists invoices with optional status and creation-date filters, newest first.
func (r *InvoiceRepository) Search(ctx context.Context, statuses []string, since time.Time, limit int) ([]models.Invoice, error) {
	query := conn(ctx, r.db).Model(&models.Invoice{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC, id DESC").Find(&invoices).Error; err != nil {
		return nil, Translate(err)
	}
	return invoices, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return Translate(conn(ctx, r.db).Omit(clause.Associations).Create(invoice).Error)
}

func (r *InvoiceRepository) CreateLineItems(ctx context.Context, items []models.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return Translate(conn(ctx, r.db).Create(&items).Error)
}

// Update persists the invoice header. Line items and payments are never touched here.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return Translate(conn(ctx, r.db).Omit(clause.Associations).Save(invoice).Error)
}

// MaxPosition returns the highest line item position, or -1 for an empty invoice.
func (r *InvoiceRepository) MaxPosition(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	var last sql.NullInt64
	err := conn(ctx, r.db).Model(&models.InvoiceLineItem{}).
		Where("invoice_id = ?", invoiceID).
		Select("MAX(position)").
		Row().Scan(&last)
	if err != nil {
		return 0, Translate(err)
	}
	if !last.Valid {
		return -1, nil
	}
	return int(last.Int64), nil
}
