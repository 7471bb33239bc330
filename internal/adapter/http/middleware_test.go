package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinusAaD/maad-makes-orders/internal/adapter/logger"
	"github.com/MartinusAaD/maad-makes-orders/internal/domain"
	"github.com/MartinusAaD/maad-makes-orders/internal/interfaces"
)

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    interfaces.Actor
	}{
		{
			name: "admin with customer number",
			headers: map[string]string{
				"X-User-Id":         "u1",
				"X-User-Email":      "admin@example.com",
				"X-Is-Admin":        "true",
				"X-Customer-Number": "42",
			},
			want: interfaces.Actor{UserID: "u1", Email: "admin@example.com", IsAdmin: true, CustomerNumber: intPtr(42)},
		},
		{
			name: "regular customer",
			headers: map[string]string{
				"X-User-Id":    "u2",
				"X-User-Email": "kari@example.com",
			},
			want: interfaces.Actor{UserID: "u2", Email: "kari@example.com"},
		},
		{
			name:    "no headers is anonymous",
			headers: nil,
			want:    interfaces.Actor{},
		},
		{
			name: "malformed customer number is dropped",
			headers: map[string]string{
				"X-User-Id":         "u3",
				"X-Customer-Number": "not-a-number",
			},
			want: interfaces.Actor{UserID: "u3"},
		},
		{
			name: "admin header must be exactly true",
			headers: map[string]string{
				"X-User-Id":  "u4",
				"X-Is-Admin": "1",
			},
			want: interfaces.Actor{UserID: "u4"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got interfaces.Actor
			handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ActorFrom(r.Context())
			}))

			r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)

			assert.Equal(t, tc.want, got)
		})
	}
}

func intPtr(n int) *int { return &n }

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "missing product", err: domain.ErrProductNotFound, wantStatus: http.StatusNotFound},
		{name: "forbidden", err: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "rate limited", err: fmt.Errorf("%w: 5 of 5 used", domain.ErrRateLimited), wantStatus: http.StatusTooManyRequests},
		{name: "validation", err: domain.ErrValidation, wantStatus: http.StatusBadRequest},
		{name: "bad transition", err: domain.ErrInvalidStatusTransition, wantStatus: http.StatusBadRequest},
		{name: "unknown error", err: errors.New("pool exhausted"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondServiceError(w, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRespondServiceError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	respondServiceError(w, errors.New("pq: relation orders does not exist"))

	assert.NotContains(t, w.Body.String(), "relation", "internal errors never leak to clients")
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logger.New("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
