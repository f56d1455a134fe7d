package state

import (
	"context"
	"time"

	"github.com/canonical/sqlmagic/internal/endpoints"
	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/internal/extensions"
	"github.com/canonical/sqlmagic/internal/metrics"
	"github.com/canonical/sqlmagic/internal/sys"
	"github.com/canonical/sqlmagic/shortcut"
)

// State is a gateway to the stateful components of the server.
type State struct {
	// Context is cancelled when the server shuts down.
	Context context.Context

	// File structure. Nil when running without a state directory.
	OS *sys.OS

	// Listeners serving the REST API. Nil outside of a running server.
	Endpoints *endpoints.Endpoints

	// Engine the shortcuts run against.
	Engine *engine.Engine

	// Dispatcher holding the registered shortcuts and the rendering config.
	Dispatcher *shortcut.Dispatcher

	// Metrics fed by the dispatcher.
	Metrics *metrics.Metrics

	// Extensions lists the API extensions reported by the server.
	Extensions extensions.Extensions

	// Version of the server.
	Version string

	// StartedAt is the time the server started.
	StartedAt time.Time
}

// Names returns the registered shortcut names.
func (s *State) Names() []string {
	names := s.Dispatcher.Names()
	result := make([]string, len(names))
	for i, name := range names {
		result[i] = string(name)
	}

	return result
}
