package handlers

import (
	"net/http"
	"runtime"
	"time"
)

// HealthResponse keeps a stable field order in the health JSON
type HealthResponse struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime,omitempty"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// HealthCheck reports catalog and storage health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.health.HealthCheck(r.Context())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status: status,
		Data:   details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}
	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		response.Uptime = formatUptimeHuman(time.Since(start))
	}

	RespondWithJSON(w, httpStatus, response)
}
