package resources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"
	"github.com/gorilla/mux"

	"github.com/canonical/sqlmagic/internal/render"
	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/rest/types"
	"github.com/canonical/sqlmagic/internal/state"
	"github.com/canonical/sqlmagic/shortcut"
)

// requestTimeout bounds the time spent running a single shortcut.
const requestTimeout = 30 * time.Second

var shortcutsCmd = rest.Endpoint{
	Path: "shortcuts",

	Get: rest.EndpointAction{Handler: shortcutsGet},
}

var shortcutCmd = rest.Endpoint{
	Name: "shortcut",
	Path: "shortcuts/{name}",

	Post: rest.EndpointAction{Handler: shortcutPost},
}

func shortcutsGet(s *state.State, r *http.Request) response.Response {
	return response.SyncResponse(true, s.Names())
}

// Run a shortcut. Clients accepting text/html get the rendered output as a HTML document.
func shortcutPost(s *state.State, r *http.Request) response.Response {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		return response.BadRequest(err)
	}

	req := types.ShortcutPost{}
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return response.BadRequest(fmt.Errorf("Failed to parse request: %w", err))
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	html := acceptsHTML(r)
	out := &bytes.Buffer{}
	invocation := shortcut.Request{
		Name:   shortcut.Name(name),
		Inline: req.Query,
		Block:  req.Block,
		Out:    out,
	}

	rich := &htmlRenderer{}
	if html {
		invocation.Rich = rich
	}

	output, err := s.Dispatcher.Do(ctx, invocation)
	if err != nil {
		return shortcutError(err)
	}

	if html {
		// Only a display rendered by the HTML renderer is HTML already, anything else is text.
		if !rich.rendered {
			text := out.String()
			out.Reset()
			err = render.HTML{}.RenderText(out, text)
			if err != nil {
				return response.InternalError(err)
			}
		}

		return response.ManualResponse(func(w http.ResponseWriter) error {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, err := w.Write(out.Bytes())
			return err
		})
	}

	result := types.ShortcutResult{Name: name, Output: out.String()}
	switch {
	case output.Table != nil:
		result.Columns = columns(output.Table.Columns)
		result.Rows = make([][]any, len(output.Table.Rows))
		for i, row := range output.Table.Rows {
			result.Rows[i] = row
		}

	case output.Result != nil:
		// The handle can't leave the server, so only its schema is returned.
		schema, err := output.Result.Schema(ctx)
		if err != nil {
			return shortcutError(&shortcut.Error{Name: shortcut.Name(name), Kind: shortcut.ErrExecutionFailed, Err: err})
		}

		result.Columns = columns(schema)
	}

	return response.SyncResponse(true, result)
}

// shortcutError maps a dispatch error to a response.
func shortcutError(err error) response.Response {
	switch {
	case errors.Is(err, shortcut.ErrUnknownShortcut):
		return response.NotFound(err)
	case errors.Is(err, shortcut.ErrEmptyQuery), errors.Is(err, shortcut.ErrExecutionFailed):
		return response.BadRequest(err)
	default:
		logger.Warn("Shortcut failed", logger.Ctx{"err": err})
		return response.InternalError(err)
	}
}

// htmlRenderer records whether the HTML renderer produced the output.
type htmlRenderer struct {
	rendered bool
}

func (h *htmlRenderer) Render(w io.Writer, t *render.Table) error {
	err := render.HTML{}.Render(w, t)
	if err != nil {
		return err
	}

	h.rendered = true

	return nil
}

func acceptsHTML(r *http.Request) bool {
	for _, accept := range r.Header.Values("Accept") {
		if strings.Contains(accept, "text/html") {
			return true
		}
	}

	return false
}

func columns(schema []shortcut.Column) []types.Column {
	result := make([]types.Column, len(schema))
	for i, c := range schema {
		result[i] = types.Column{Name: c.Name, Type: c.Type}
	}

	return result
}
