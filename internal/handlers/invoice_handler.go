package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/services/billing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceService interface {
	GenerateInvoice(ctx context.Context, appointmentID uuid.UUID) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, f billing.ListInvoicesFilter) ([]models.Invoice, error)
	ApplyPayment(ctx context.Context, in billing.ApplyPaymentInput) (*billing.PaymentResult, error)
	VoidInvoice(ctx context.Context, id uuid.UUID) (*billing.VoidResult, error)
	SendInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	AddPackageToInvoice(ctx context.Context, invoiceID, packageID uuid.UUID) (*billing.PackageResult, error)
}

type InvoiceHandler struct {
	service InvoiceService
}

func NewInvoiceHandler(service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

func (h *InvoiceHandler) Generate(c *gin.Context) {
	apptID, ok := pathID(c, "id", "invalid appointment ID")
	if !ok {
		return
	}

	invoice, err := h.service.GenerateInvoice(c.Request.Context(), apptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid invoice ID")
	if !ok {
		return
	}

	invoice, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// List accepts ?status=DRAFT,SENT&since=<RFC3339>&limit=N.
func (h *InvoiceHandler) List(c *gin.Context) {
	var f billing.ListInvoicesFilter
	for _, status := range strings.Split(c.Query("status"), ",") {
		if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
			f.Statuses = append(f.Statuses, status)
		}
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "since must be an RFC3339 timestamp")
			return
		}
		f.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		f.Limit = limit
	}

	invoices, err := h.service.ListInvoices(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices, "count": len(invoices)})
}

// ApplyPayment takes either amount_cents or a decimal amount in currency units.
func (h *InvoiceHandler) ApplyPayment(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid invoice ID")
	if !ok {
		return
	}

	var payload struct {
		AmountCents *int64           `json:"amount_cents"`
		Amount      *decimal.Decimal `json:"amount"`
		Method      string           `json:"method"`
		Note        *string          `json:"note"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	var cents int64
	switch {
	case payload.AmountCents != nil:
		cents = *payload.AmountCents
	case payload.Amount != nil:
		cents = billing.ToCents(*payload.Amount)
	default:
		badRequest(c, "amount_cents or amount is required")
		return
	}

	res, err := h.service.ApplyPayment(c.Request.Context(), billing.ApplyPaymentInput{
		InvoiceID:   id,
		AmountCents: cents,
		Method:      payload.Method,
		Note:        payload.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *InvoiceHandler) Void(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid invoice ID")
	if !ok {
		return
	}

	res, err := h.service.VoidInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InvoiceHandler) Send(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid invoice ID")
	if !ok {
		return
	}

	invoice, err := h.service.SendInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

func (h *InvoiceHandler) AddPackage(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid invoice ID")
	if !ok {
		return
	}

	var payload struct {
		PackageID string `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "package_id is required")
		return
	}
	packageID, err := uuid.Parse(payload.PackageID)
	if err != nil {
		badRequest(c, "invalid package ID")
		return
	}

	res, err := h.service.AddPackageToInvoice(c.Request.Context(), id, packageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
