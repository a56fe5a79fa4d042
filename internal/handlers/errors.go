package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/registry"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// Seconds a client should wait before retrying an unfilled ad request
const retryAfterSeconds = "30"

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNoSession), errors.Is(err, services.ErrSessionReplaced):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, registry.ErrTaskNotFound),
		errors.Is(err, services.ErrViewNotFound), errors.Is(err, mediation.ErrUnknownNetwork):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, store.ErrTaskOnCooldown), errors.Is(err, services.ErrViewNotReady):
		return http.StatusTooManyRequests
	case errors.Is(err, mediation.ErrNoActiveNetworks), errors.Is(err, mediation.ErrAllNetworksExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidKind),
		errors.Is(err, ledger.ErrBelowMinimum), errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInvalidMethod), errors.Is(err, ledger.ErrMissingAccount),
		errors.Is(err, registry.ErrInvalidTask), errors.Is(err, store.ErrInvalidIdentity),
		errors.Is(err, mediation.ErrInvalidSettings), errors.Is(err, mediation.ErrInvalidDirection):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err with the mapped status
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	switch status {
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", retryAfterSeconds)
		body["message"] = "No ad is available right now, please try again later"
	case http.StatusInternalServerError:
		slog.Error("Request failed", "error", err, "path", c.FullPath())
		body["error"] = "internal server error"
	}
	c.JSON(status, body)
}
