package rest

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"
	"github.com/gorilla/mux"

	"github.com/canonical/sqlmagic/internal/state"
)

// EndpointAction represents an action on an API endpoint.
type EndpointAction struct {
	Handler func(state *state.State, r *http.Request) response.Response
}

// Endpoint represents a URL in our API.
type Endpoint struct {
	Name   string // Name for this endpoint.
	Path   string // Path pattern for this endpoint.
	Get    EndpointAction
	Put    EndpointAction
	Post   EndpointAction
	Delete EndpointAction
	Patch  EndpointAction

	AllowedDuringShutdown bool // Whether we should return Unavailable Error (503) if the server is shutting down.
}

func handleAPIRequest(action EndpointAction, state *state.State, r *http.Request) response.Response {
	if action.Handler == nil {
		return response.NotImplemented(nil)
	}

	return action.Handler(state, r)
}

// HandleEndpoint adds the endpoint to the mux router. A function variable is used to implement common logic
// before calling the endpoint action handler associated with the request method, if it exists.
func HandleEndpoint(state *state.State, mux *mux.Router, version string, e Endpoint) {
	url := "/" + version
	if e.Path != "" {
		url = filepath.Join(url, e.Path)
	}

	route := mux.HandleFunc(url, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Actually process the request.
		var resp response.Response

		// Return Unavailable Error (503) if the server is shutting down, except for endpoints with AllowedDuringShutdown.
		if state.Context.Err() == context.Canceled && !e.AllowedDuringShutdown {
			err := response.Unavailable(fmt.Errorf("Server is shutting down")).Render(w)
			if err != nil {
				logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
			}

			return
		}

		switch r.Method {
		case "GET":
			resp = handleAPIRequest(e.Get, state, r)
		case "PUT":
			resp = handleAPIRequest(e.Put, state, r)
		case "POST":
			resp = handleAPIRequest(e.Post, state, r)
		case "DELETE":
			resp = handleAPIRequest(e.Delete, state, r)
		case "PATCH":
			resp = handleAPIRequest(e.Patch, state, r)
		default:
			resp = response.NotFound(fmt.Errorf("Method '%s' not found", r.Method))
		}

		// Handle errors.
		err := resp.Render(w)
		if err != nil {
			err := response.InternalError(err).Render(w)
			if err != nil {
				logger.Error("Failed writing error for HTTP response", logger.Ctx{"url": url, "error": err})
			}
		}
	})

	// If the endpoint has a canonical name then record it so it can be used to build URLS
	// and accessed in the context of the request by the handler function.
	if e.Name != "" {
		route.Name(e.Name)
	}
}
