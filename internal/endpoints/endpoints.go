package endpoints

import (
	"context"
	"sync"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/logger"
)

// Endpoints represents all listeners serving the REST API.
type Endpoints struct {
	mu          sync.RWMutex
	shutdownCtx context.Context // Parent context for shutting down cleanly.

	listeners map[string]Endpoint // Map of supported listeners.
}

// NewEndpoints aggregates the given endpoints so we can manage them from one source.
func NewEndpoints(shutdownCtx context.Context, endpoints map[string]Endpoint) *Endpoints {
	return &Endpoints{listeners: endpoints, shutdownCtx: shutdownCtx}
}

// Up calls Serve on each of the configured listeners.
func (e *Endpoints) Up() error {
	err := e.up(e.listeners)
	if err != nil {
		// Attempt to call Down() in case something actually got brought up.
		_ = e.Down()

		return err
	}

	return nil
}

func (e *Endpoints) up(listeners map[string]Endpoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, listener := range listeners {
		err := listener.Listen()
		if err != nil {
			return err
		}

		select {
		case <-e.shutdownCtx.Done():
			logger.Infof("Received shutdown signal - aborting endpoint startup for %s", listener.Type().String())
		default:
			listener.Serve()
		}
	}

	return nil
}

// Down closes all of the configured listeners, or any for the type specifically supplied.
func (e *Endpoints) Down(types ...EndpointType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name, endpoint := range e.listeners {
		if types != nil && !shared.ValueInSlice(endpoint.Type(), types) {
			continue
		}

		err := endpoint.Close()
		if err != nil {
			return err
		}

		// Delete the stopped endpoint from the map.
		delete(e.listeners, name)
	}

	return nil
}

// List returns the endpoints of the given types.
func (e *Endpoints) List(types ...EndpointType) map[string]Endpoint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	endpoints := make(map[string]Endpoint, 0)
	for name, endpoint := range e.listeners {
		if shared.ValueInSlice(endpoint.Type(), types) {
			endpoints[name] = endpoint
		}
	}

	return endpoints
}
