package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"logocluster/pkg/controller"
	"logocluster/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogger_RequestIDAndAccessLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo", controller.RequestID(r.Context()))
		w.WriteHeader(http.StatusCreated)
	})
	handler := controller.WithLogger(next)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	req = req.WithContext(logger.WithLogger(req.Context(), zap.New(core)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "abc-123", rec.Header().Get("X-Echo"))
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "abc-123", fields["requestId"])
	require.EqualValues(t, http.StatusCreated, fields["status"])
	require.Equal(t, "/metrics", fields["path"])
	require.Equal(t, "192.0.2.1", fields["remote"])

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get("X-Echo"))
}
