package handler

import (
	"errors"
	"net/http"

	"garage-backend/internal/repository"
	"garage-backend/internal/services/billing"
	"garage-backend/internal/services/scheduling"

	"github.com/gin-gonic/gin"
)

var statusByError = []struct {
	err    error
	status int
}{
	{scheduling.ErrAppointmentNotFound, http.StatusNotFound},
	{billing.ErrAppointmentNotFound, http.StatusNotFound},
	{billing.ErrInvoiceNotFound, http.StatusNotFound},
	{billing.ErrPackageNotFound, http.StatusNotFound},
	{repository.ErrNotFound, http.StatusNotFound},

	{scheduling.ErrInvalidInput, http.StatusBadRequest},
	{scheduling.ErrUnknownStatus, http.StatusBadRequest},
	{billing.ErrInvalidInput, http.StatusBadRequest},
	{billing.ErrInvalidAmount, http.StatusBadRequest},

	{scheduling.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{billing.ErrInvalidState, http.StatusUnprocessableEntity},
	{billing.ErrNotAPackage, http.StatusUnprocessableEntity},
	{billing.ErrEmptyPackage, http.StatusUnprocessableEntity},

	{scheduling.ErrConflict, http.StatusConflict},
	{billing.ErrAlreadyExists, http.StatusConflict},
	{billing.ErrAlreadyPaid, http.StatusConflict},
	{billing.ErrAlreadyVoid, http.StatusConflict},
	{billing.ErrOverpayment, http.StatusConflict},
	{repository.ErrDuplicate, http.StatusConflict},

	{repository.ErrUnavailable, http.StatusServiceUnavailable},
}

// StatusFor maps a service error onto an HTTP status code.
func StatusFor(err error) int {
	for _, entry := range statusByError {
		if errors.Is(err, entry.err) {
			return entry.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var conflict *scheduling.ConflictError
	if errors.As(err, &conflict) {
		body["conflicts"] = conflict.Conflicts
	}
	var transition *scheduling.TransitionError
	if errors.As(err, &transition) {
		body["from"] = transition.From
		body["to"] = transition.To
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
