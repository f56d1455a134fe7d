package resources

import (
	"net/http"

	"github.com/canonical/lxd/lxd/response"

	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/rest/types"
	"github.com/canonical/sqlmagic/internal/state"
)

var relationsCmd = rest.Endpoint{
	Path: "relations",

	Get: rest.EndpointAction{Handler: relationsGet},
}

func relationsGet(s *state.State, r *http.Request) response.Response {
	relations, err := s.Engine.Relations(r.Context())
	if err != nil {
		return response.SmartError(err)
	}

	result := make([]types.Relation, len(relations))
	for i, rel := range relations {
		result[i] = types.Relation{Name: rel.Name, Columns: columns(rel.Columns), Rows: rel.Rows}
	}

	return response.SyncResponse(true, result)
}
