package rest

import (
	"github.com/canonical/sqlmagic/internal/rest"
)

// EndpointAction represents an action on an API endpoint.
type EndpointAction = rest.EndpointAction

// Endpoint represents a URL in our API. Extra endpoints passed to the server are served under /1.0.
type Endpoint = rest.Endpoint
