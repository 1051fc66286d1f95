package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lolo20020803/ProyectoSBC/internal/logger"
)

func TestLogsHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "detector-warning.log"), []byte("queue full\n"), 0644); err != nil {
		t.Fatal(err)
	}
	handler := LogsHandler(dir, "detector", logger.Discard())

	tests := []struct {
		name     string
		method   string
		url      string
		wantCode int
		wantBody string
	}{
		{"existing level", http.MethodGet, "/api/logs?level=warning", http.StatusOK, "queue full"},
		{"missing file", http.MethodGet, "/api/logs", http.StatusNotFound, "detector-info.log"},
		{"unknown level", http.MethodGet, "/api/logs?level=debug", http.StatusBadRequest, "unknown log level"},
		{"wrong method", http.MethodPut, "/api/logs", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, nil))
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want containing %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestLogsHandler_Clear(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detector-error.log")
	if err := os.WriteFile(path, []byte("boom\n"), 0644); err != nil {
		t.Fatal(err)
	}
	handler := LogsHandler(dir, "detector", logger.Discard())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/logs?level=error", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("log size = %d, want 0", info.Size())
	}
}
