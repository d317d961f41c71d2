package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/models"
	"garage-backend/internal/repository"
	"garage-backend/internal/repository/repotest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type server struct {
	engine *gin.Engine
	db     *gorm.DB
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.OpenDB(t)
	r := gin.New()
	err := RegisterRoutes(r, db, Options{
		Config: &config.Config{
			LockTimeout: time.Second,
			Scheduling: config.SchedulingConfig{
				DefaultBlockDuration: 2 * time.Hour,
				MaxDuration:          12 * time.Hour,
				PastGrace:            5 * time.Minute,
			},
		},
		Clock: func() time.Time { return now },
	})
	require.NoError(t, err)
	return &server{engine: r, db: db}
}

func (s *server) do(t *testing.T, method, path string, body any) (int, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor", "service-writer")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	out := map[string]json.RawMessage{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRegisterRoutesRequiresConfig(t *testing.T) {
	assert.Error(t, RegisterRoutes(gin.New(), repotest.OpenDB(t), Options{}))
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	code, body := s.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestAppointmentToPaidInvoiceFlow(t *testing.T) {
	s := newServer(t)

	code, body := s.do(t, http.MethodPost, "/api/appointments", map[string]any{
		"title":         "Front brakes",
		"start_at":      "2026-03-02T09:00:00Z",
		"end_at":        "2026-03-02T10:00:00Z",
		"technician_id": "t1",
		"customer":      map[string]any{"name": "Dana", "email": "dana@example.com"},
		"services": []map[string]any{
			{"name": "Pads", "estimated_price": "100.00"},
			{"name": "Labour", "estimated_price": 25},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	appt := decode[models.Appointment](t, body["appointment"])
	apptPath := "/api/appointments/" + appt.ID.String()

	code, body = s.do(t, http.MethodPost, "/api/appointments", map[string]any{
		"start_at":      "2026-03-02T09:30:00Z",
		"technician_id": "t1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, string(body["conflicts"]), appt.ID.String())

	code, body = s.do(t, http.MethodGet, "/api/appointments/conflicts?technician_id=t1&start_at=2026-03-02T09:30:00Z", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "true", string(body["has_conflicts"]))

	code, _ = s.do(t, http.MethodPost, apptPath+"/invoice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code, "not billable yet")

	code, body = s.do(t, http.MethodPatch, apptPath, map[string]any{"status": "COMPLETED"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.JSONEq(t, `"SCHEDULED"`, string(body["from"]))

	code, _ = s.do(t, http.MethodPost, apptPath+"/move", map[string]any{"status": "in-progress", "position": 0})
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodPatch, apptPath, map[string]any{"status": "done"})
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodPost, apptPath+"/invoice", nil)
	require.Equal(t, http.StatusCreated, code, body)
	invoice := decode[models.Invoice](t, body["invoice"])
	assert.Equal(t, int64(12500), invoice.TotalCents)
	invoicePath := "/api/invoices/" + invoice.ID.String()

	code, _ = s.do(t, http.MethodPost, apptPath+"/invoice", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(t, http.MethodPost, invoicePath+"/send", nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, invoicePath+"/payments", map[string]any{"amount_cents": 20000})
	assert.Equal(t, http.StatusConflict, code, "overpayment")

	code, _ = s.do(t, http.MethodPost, invoicePath+"/payments", map[string]any{"amount_cents": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPost, invoicePath+"/payments", map[string]any{"amount": "25.00", "method": "Card"})
	require.Equal(t, http.StatusCreated, code, body)
	payment := decode[models.Payment](t, body["payment"])
	assert.Equal(t, int64(2500), payment.AmountCents)
	assert.Equal(t, "card", payment.Method)

	code, body = s.do(t, http.MethodPost, invoicePath+"/payments", map[string]any{"amount_cents": 10000})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, models.InvoicePaid, decode[models.Invoice](t, body["invoice"]).Status)

	code, _ = s.do(t, http.MethodPost, invoicePath+"/void", nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(t, http.MethodGet, invoicePath, nil)
	require.Equal(t, http.StatusOK, code)
	loaded := decode[models.Invoice](t, body["invoice"])
	assert.Len(t, loaded.LineItems, 2)
	assert.Len(t, loaded.Payments, 2)

	code, body = s.do(t, http.MethodGet, "/api/invoices?status=paid", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "1", string(body["count"]))

	entries, err := repository.NewAuditRepository(s.db).ListForEntity(context.Background(), "invoice", invoice.ID.String())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "service-writer", entries[0].Actor)
}

func TestPackageEndpoint(t *testing.T) {
	s := newServer(t)

	appt := models.Appointment{ID: uuid.New(), Status: models.AppointmentCompleted, StartAt: now}
	require.NoError(t, s.db.Create(&appt).Error)
	child := models.CatalogItem{ID: uuid.New(), Name: "Filter", DefaultPrice: decimal.RequireFromString("12.00"), Active: true}
	override := decimal.RequireFromString("20.00")
	pkg := models.CatalogItem{ID: uuid.New(), Name: "Service bundle", IsPackage: true, PackagePrice: &override, Active: true}
	require.NoError(t, s.db.Create(&child).Error)
	require.NoError(t, s.db.Create(&pkg).Error)
	require.NoError(t, s.db.Create(&models.PackageItem{ID: uuid.New(), PackageID: pkg.ID, ChildID: child.ID, Quantity: 2}).Error)

	code, body := s.do(t, http.MethodPost, "/api/appointments/"+appt.ID.String()+"/invoice", nil)
	require.Equal(t, http.StatusCreated, code)
	invoice := decode[models.Invoice](t, body["invoice"])

	code, body = s.do(t, http.MethodPost, "/api/invoices/"+invoice.ID.String()+"/packages", map[string]any{"package_id": pkg.ID.String()})
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, "2000", string(body["added_subtotal_cents"]))

	code, _ = s.do(t, http.MethodPost, "/api/invoices/"+invoice.ID.String()+"/packages", map[string]any{"package_id": child.ID.String()})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(t, http.MethodPost, "/api/invoices/"+invoice.ID.String()+"/packages", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBadIdentifiers(t *testing.T) {
	s := newServer(t)
	code, _ := s.do(t, http.MethodGet, "/api/appointments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/api/appointments/conflicts?start_at=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
