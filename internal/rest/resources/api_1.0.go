package resources

import (
	"net/http"

	"github.com/canonical/lxd/lxd/response"

	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/rest/types"
	"github.com/canonical/sqlmagic/internal/state"
)

var api10Cmd = rest.Endpoint{
	AllowedDuringShutdown: true,

	// swagger:operation GET /1.0 server server_get
	//
	//	Get the server environment
	//
	//	Shows the engine in use and the registered shortcuts.
	//
	//	---
	//	produces:
	//	  - application/json
	//	responses:
	//	  "200":
	//	    description: Server environment
	//	    schema:
	//	      type: object
	//	      description: Sync response
	//	      properties:
	//	        metadata:
	//	          $ref: "#/definitions/Server"
	Get: rest.EndpointAction{Handler: api10Get},
}

func api10Get(s *state.State, r *http.Request) response.Response {
	return response.SyncResponse(true, types.Server{
		Name:          "sqlmagic",
		Version:       s.Version,
		Driver:        s.Engine.Driver(),
		Shortcuts:     s.Names(),
		APIExtensions: s.Extensions,
		StartedAt:     s.StartedAt,
	})
}
