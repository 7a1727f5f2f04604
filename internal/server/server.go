// Package server exposes the aggregated state over HTTP+JSON: reads go
// against the published snapshot without locking, mutations call into the
// engine, and a server-sent event stream mirrors everything the engine
// publishes.
package server

import (
	"log/slog"

	"github.com/oakhamlabs/waypost/internal/engine"
)

// Server serves the query API for one engine.
type Server struct {
	engine *engine.Engine
	hub    *EventHub
	logger *slog.Logger
}

// New returns a Server streaming events from hub. The hub is constructed by
// the caller and joined into the engine's publisher fanout, so it already
// carries events by the time the Server starts serving streams. A nil hub
// gets a fresh one, leaving the stream endpoint connected but silent.
func New(e *engine.Engine, hub *EventHub, logger *slog.Logger) *Server {
	if hub == nil {
		hub = NewEventHub()
	}
	return &Server{engine: e, hub: hub, logger: logger}
}
