// Package httpapi exposes the engine's control surface: manual trigger,
// preview, configuration, delivered-listings archive, and SSE events.
package httpapi

import (
	"internwatch/internal/events"
	"internwatch/internal/logger"
	"internwatch/internal/pipeline"
	"internwatch/internal/scheduler"
	"internwatch/internal/store"
	"internwatch/internal/tenant"
)

type Deps struct {
	Runner    *pipeline.Runner
	Scheduler *scheduler.Scheduler
	Tenants   *tenant.Store
	Archive   *store.DB
	Hub       *events.Hub
	Log       *logger.Logger
}
