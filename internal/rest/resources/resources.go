package resources

import (
	"net/http"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"
	"github.com/gorilla/mux"

	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/state"
)

// Version is the API version prefix.
const Version = "1.0"

// Endpoints are the endpoints served under /1.0.
var Endpoints = []rest.Endpoint{
	api10Cmd,
	shortcutsCmd,
	shortcutCmd,
	configCmd,
	relationsCmd,
}

// Router returns a router serving the API endpoints and the metrics of the given state.
func Router(s *state.State) *mux.Router {
	router := mux.NewRouter()
	router.StrictSlash(false)
	router.SkipClean(true)
	router.UseEncodedPath()

	for _, e := range Endpoints {
		rest.HandleEndpoint(s, router, Version, e)
	}

	if s.Metrics != nil {
		router.Handle("/metrics", s.Metrics.Handler())
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := response.NotFound(nil).Render(w)
		if err != nil {
			logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
		}
	})

	return router
}
