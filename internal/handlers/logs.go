package handlers

import (
	"net/http"
	"os"
	"path/filepath"
)

var logLevels = map[string]bool{"info": true, "warning": true, "error": true}

// LogsHandler serves <dir>/<name>-<level>.log as plain text on GET and
// truncates it on DELETE. The level comes from ?level= and defaults to info.
func LogsHandler(dir, name string, logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level := r.URL.Query().Get("level")
		if level == "" {
			level = "info"
		}
		if !logLevels[level] {
			writeError(w, http.StatusBadRequest, "unknown log level: "+level, logger)
			return
		}
		filePath := filepath.Join(dir, name+"-"+level+".log")

		switch r.Method {
		case http.MethodGet:
			serveLogFile(w, r, filePath)
		case http.MethodDelete:
			if err := os.Truncate(filePath, 0); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to clear %s: %v", filePath, err)
				writeError(w, http.StatusInternalServerError, "failed to clear log", logger)
				return
			}
			logger.Info("🧹 Cleared %s log", level)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", logger)
		}
	}
}

func serveLogFile(w http.ResponseWriter, r *http.Request, filePath string) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Log file not found: " + filepath.Base(filePath)))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filePath)
}
