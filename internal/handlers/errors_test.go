package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/registry"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{store.ErrNoSession, http.StatusUnauthorized},
		{services.ErrSessionReplaced, http.StatusUnauthorized},
		{store.ErrAccountBanned, http.StatusForbidden},
		{fmt.Errorf("%w: 4", registry.ErrTaskNotFound), http.StatusNotFound},
		{ledger.ErrNotPending, http.StatusConflict},
		{store.ErrTaskOnCooldown, http.StatusTooManyRequests},
		{mediation.ErrAllNetworksExhausted, http.StatusServiceUnavailable},
		{context.Canceled, http.StatusRequestTimeout},
		{ledger.ErrInsufficientBalance, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("mongo: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	respondError(c, mediation.ErrNoActiveNetworks)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}
