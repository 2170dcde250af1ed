package handlers

import (
	"net/http"
	"time"
)

// HealthHandler отвечает на liveness-проверки
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler создает health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// healthPayload - тело ответа /health
type healthPayload struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health - GET /health
//
// Всегда 200 пока процесс жив; деталями состояния цикла занимается
// /api/v1/status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthPayload{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	})
}
