// Package handler provides HTTP handlers for the fuelsync API.
package handler

import (
	"net/http"
	"time"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
)

// ReadinessChecker reports whether a subsystem can serve traffic.
type ReadinessChecker func(r *http.Request) error

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	checks    map[string]ReadinessChecker
}

// NewOpsHandler creates a new OpsHandler. checks maps subsystem names
// to their readiness probes; nil is allowed.
func NewOpsHandler(version, buildTime string, checks map[string]ReadinessChecker) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	for _, check := range h.checks {
		if err := check(r); err != nil {
			status = models.HealthStatusFail
			break
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	code := http.StatusOK
	if status != models.HealthStatusOK {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, health)
}

// SystemStatus handles GET /v1/ops/status - per-subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := make([]models.SubsystemStatus, 0, len(h.checks))
	overall := models.HealthStatusOK
	for name, check := range h.checks {
		s := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
		if err := check(r); err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
			overall = models.HealthStatusDegraded
		}
		subsystems = append(subsystems, s)
	}

	status := models.SystemStatus{
		Status:     overall,
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
	}
	response.JSON(w, r, http.StatusOK, status)
}
