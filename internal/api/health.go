package api

import (
	"context"
	"net/http"
	"time"

	"github.com/consultorios/booking-chat/internal/clinics"
)

type HealthHandler struct {
	clinics            *clinics.Client
	fallbackConfigured bool
	env                string
	version            string
}

func NewHealthHandler(clinicsClient *clinics.Client, fallbackConfigured bool, env, version string) *HealthHandler {
	return &HealthHandler{
		clinics:            clinicsClient,
		fallbackConfigured: fallbackConfigured,
		env:                env,
		version:            version,
	}
}

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Env     string `json:"env,omitempty"`
}

type ReadinessResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version,omitempty"`
	Env          string            `json:"env,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: h.version,
		Env:     h.env,
	})
}

// Readiness checks the clinics API with a short deadline. The fallback
// backend exposes no health route, so it is only reported as configured
// or disabled.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	status := "ok"

	if _, err := h.clinics.ListSpecialties(ctx); err != nil {
		deps["clinics_api"] = "down"
		status = "error"
	} else {
		deps["clinics_api"] = "ok"
	}

	if h.fallbackConfigured {
		deps["fallback_chat"] = "configured"
	} else {
		deps["fallback_chat"] = "disabled"
	}

	httpStatus := http.StatusOK
	if status == "error" {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, ReadinessResponse{
		Status:       status,
		Version:      h.version,
		Env:          h.env,
		Dependencies: deps,
	})
}
