// Package handler provides HTTP handlers for the LiveCharge API.
package handler

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/livecharge/livecharge/internal/api/models"
	"github.com/livecharge/livecharge/internal/api/response"
)

// readinessTimeout bounds each dependency probe.
const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsHandler serves the liveness and readiness probes.
type OpsHandler struct {
	build  models.SubsystemStatus
	checks []ReadinessCheck
	now    func() time.Time
}

func NewOpsHandler(version, buildTime string, checks ...ReadinessCheck) *OpsHandler {
	detail := version + " (" + buildTime + ")"
	return &OpsHandler{
		build:  models.SubsystemStatus{Name: "build", Status: models.HealthStatusOK, Detail: &detail},
		checks: checks,
		now:    time.Now,
	}
}

// HealthCheck handles GET /api/health. It never touches dependencies.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{Status: models.HealthStatusOK})
}

// ReadinessCheck handles GET /api/ready. Probes run concurrently; any
// failure turns the whole response into a 503.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	results := make([]models.SubsystemStatus, len(h.checks))

	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()

			results[i] = models.SubsystemStatus{Name: c.Name, Status: models.HealthStatusOK}
			if err := c.Check(ctx); err != nil {
				msg := err.Error()
				results[i].Status = models.HealthStatusFail
				results[i].Detail = &msg
			}
			return nil
		})
	}
	_ = g.Wait()

	readiness := models.Readiness{
		Status:     models.HealthStatusOK,
		Time:       h.now().UTC(),
		Subsystems: append([]models.SubsystemStatus{h.build}, results...),
	}
	status := http.StatusOK
	for _, sub := range results {
		if sub.Status != models.HealthStatusOK {
			readiness.Status = models.HealthStatusFail
			status = http.StatusServiceUnavailable
		}
	}
	response.JSON(w, r, status, readiness)
}
