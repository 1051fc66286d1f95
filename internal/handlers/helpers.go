package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
)

// Logger is the leveled logger used by handlers.
type Logger interface {
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, logger Logger) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg}, logger)
}
