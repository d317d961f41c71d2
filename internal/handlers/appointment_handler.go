package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"garage-backend/internal/models"
	"garage-backend/internal/services/scheduling"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, in scheduling.CreateAppointmentInput) (*models.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	PatchAppointment(ctx context.Context, id uuid.UUID, in scheduling.PatchAppointmentInput) (*models.Appointment, error)
	MoveAppointment(ctx context.Context, id uuid.UUID, status string, position int) (*models.Appointment, error)
	FindConflicts(ctx context.Context, q scheduling.ConflictQuery) (scheduling.Conflicts, error)
}

type AppointmentHandler struct {
	service AppointmentService
}

func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var payload scheduling.CreateAppointmentInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	appt, err := h.service.CreateAppointment(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid appointment ID")
	if !ok {
		return
	}

	appt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (h *AppointmentHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid appointment ID")
	if !ok {
		return
	}

	var payload scheduling.PatchAppointmentInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}

	appt, err := h.service.PatchAppointment(c.Request.Context(), id, payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// Move handles board drag-and-drop: a status column plus an ordinal within it.
func (h *AppointmentHandler) Move(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid appointment ID")
	if !ok {
		return
	}

	var payload struct {
		Status   string `json:"status" binding:"required"`
		Position *int   `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "status and position are required")
		return
	}

	appt, err := h.service.MoveAppointment(c.Request.Context(), id, payload.Status, *payload.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// Conflicts previews overlaps for a candidate window given as query parameters.
func (h *AppointmentHandler) Conflicts(c *gin.Context) {
	var q scheduling.ConflictQuery

	start, err := time.Parse(time.RFC3339, c.Query("start_at"))
	if err != nil {
		badRequest(c, "start_at must be an RFC3339 timestamp")
		return
	}
	q.StartAt = start

	if raw := c.Query("end_at"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, "end_at must be an RFC3339 timestamp")
			return
		}
		q.EndAt = &end
	}
	if tech := strings.TrimSpace(c.Query("technician_id")); tech != "" {
		q.TechnicianID = &tech
	}
	if raw := c.Query("vehicle_id"); raw != "" {
		vehicle, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid vehicle ID")
			return
		}
		q.VehicleID = &vehicle
	}
	if raw := c.Query("exclude_id"); raw != "" {
		exclude, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid exclude ID")
			return
		}
		q.ExcludeID = &exclude
	}

	conflicts, err := h.service.FindConflicts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts, "has_conflicts": !conflicts.Empty()})
}

func pathID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		badRequest(c, msg)
		return uuid.Nil, false
	}
	return id, true
}
