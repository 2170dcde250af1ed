package handlers

import (
	"net/http"

	"liqwatch/internal/watcher"
)

// StatusProvider отдаёт снапшот счётчиков цикла ликвидаций
type StatusProvider interface {
	Stats() watcher.Stats
}

// StatusHandler отдаёт операционный статус движка
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler создает status handler с внедрением зависимости
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// GetStatus - GET /api/v1/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "engine not attached",
			Code:  "ENGINE_UNAVAILABLE",
		})
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Data: h.provider.Stats(),
	})
}
