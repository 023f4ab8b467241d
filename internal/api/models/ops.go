// Package models provides request and response models shared by the
// LiveCharge HTTP handlers.
package models

import "time"

// HealthStatus is the coarse state reported by the ops endpoints.
type HealthStatus string

const (
	HealthStatusOK   HealthStatus = "ok"
	HealthStatusFail HealthStatus = "fail"
)

// Health is the liveness body. It is exactly {"status":"ok"}.
type Health struct {
	Status HealthStatus `json:"status"`
}

// SubsystemStatus reports one readiness check.
type SubsystemStatus struct {
	Name   string       `json:"name"`
	Status HealthStatus `json:"status"`
	Detail *string      `json:"detail,omitempty"`
}

// Readiness is the body of GET /api/ready.
type Readiness struct {
	Status     HealthStatus      `json:"status"`
	Time       time.Time         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
}
