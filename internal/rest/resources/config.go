package resources

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/rest/types"
	"github.com/canonical/sqlmagic/internal/state"
)

var configCmd = rest.Endpoint{
	Path: "config",

	Get: rest.EndpointAction{Handler: configGet},
	Put: rest.EndpointAction{Handler: configPut},
}

func configGet(s *state.State, r *http.Request) response.Response {
	current := s.Dispatcher.Config().Get()

	return response.SyncResponse(true, types.Config{
		MaxDisplayRows: &current.MaxDisplayRows,
		ExplainVerbose: &current.ExplainVerbose,
	})
}

// Update the rendering options. Fields left out of the request keep their value.
func configPut(s *state.State, r *http.Request) response.Response {
	req := types.Config{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return response.BadRequest(fmt.Errorf("Failed to parse request: %w", err))
	}

	cfg := s.Dispatcher.Config()
	update := cfg.Get()
	if req.MaxDisplayRows != nil {
		update.MaxDisplayRows = *req.MaxDisplayRows
	}

	if req.ExplainVerbose != nil {
		update.ExplainVerbose = *req.ExplainVerbose
	}

	err = cfg.Set(update)
	if err != nil {
		return response.BadRequest(err)
	}

	if cfg.Path() != "" {
		err = cfg.Write()
		if err != nil {
			return response.SmartError(err)
		}
	}

	logger.Info("Updated render config", logger.Ctx{"max_display_rows": update.MaxDisplayRows, "explain_verbose": update.ExplainVerbose})

	return response.EmptySyncResponse
}
