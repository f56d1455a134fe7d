// Package client is a Go client for the sqlmagic REST API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/canonical/lxd/shared/api"

	"github.com/canonical/sqlmagic/internal/rest/client"
	"github.com/canonical/sqlmagic/internal/rest/types"
)

// Client is a rest client for the sqlmagic server.
type Client struct {
	client.Client
}

// Types returned by the server.
type (
	Server         = types.Server
	ShortcutPost   = types.ShortcutPost
	ShortcutResult = types.ShortcutResult
	Relation       = types.Relation
	Column         = types.Column
	Config         = types.Config
)

// New returns a client for the server at the given address.
func New(address string) (*Client, error) {
	c, err := client.New(address)
	if err != nil {
		return nil, err
	}

	return &Client{Client: *c}, nil
}

// Query is a helper for initiating a request on any endpoint, including ones added to the server.
func (c *Client) Query(ctx context.Context, method string, path *api.URL, in any, out any) error {
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	return c.QueryStruct(queryCtx, method, path, in, out)
}

// GetServer returns information about the server.
func (c *Client) GetServer(ctx context.Context) (*Server, error) {
	server := &Server{}
	err := c.Query(ctx, "GET", api.NewURL().Path("1.0"), nil, server)
	if err != nil {
		return nil, fmt.Errorf("Failed to get server information: %w", err)
	}

	return server, nil
}

// GetShortcuts returns the names of the registered shortcuts.
func (c *Client) GetShortcuts(ctx context.Context) ([]string, error) {
	names := []string{}
	err := c.Query(ctx, "GET", api.NewURL().Path("1.0", "shortcuts"), nil, &names)
	if err != nil {
		return nil, fmt.Errorf("Failed to list shortcuts: %w", err)
	}

	return names, nil
}

// RunShortcut runs the named shortcut on the server.
func (c *Client) RunShortcut(ctx context.Context, name string, req ShortcutPost) (*ShortcutResult, error) {
	result := &ShortcutResult{}
	err := c.Query(ctx, "POST", api.NewURL().Path("1.0", "shortcuts", name), req, result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// RunShortcutHTML runs the named shortcut on the server and returns the HTML document it renders.
func (c *Client) RunShortcutHTML(ctx context.Context, name string, req ShortcutPost) (string, error) {
	resp, err := c.QueryStructRaw(ctx, "POST", api.NewURL().Path("1.0", "shortcuts", name), req, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		_, err := client.ParseResponse(resp)
		if err != nil {
			return "", err
		}

		return "", api.StatusErrorf(resp.StatusCode, "Unexpected status %q", resp.Status)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("Failed to read response body: %w", err)
	}

	return string(body), nil
}

// GetRelations returns the tables of the server's database.
func (c *Client) GetRelations(ctx context.Context) ([]Relation, error) {
	relations := []Relation{}
	err := c.Query(ctx, "GET", api.NewURL().Path("1.0", "relations"), nil, &relations)
	if err != nil {
		return nil, fmt.Errorf("Failed to list relations: %w", err)
	}

	return relations, nil
}

// GetConfig returns the server's rendering options.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	config := &Config{}
	err := c.Query(ctx, "GET", api.NewURL().Path("1.0", "config"), nil, config)
	if err != nil {
		return nil, fmt.Errorf("Failed to get config: %w", err)
	}

	return config, nil
}

// UpdateConfig changes the server's rendering options. Nil fields are left unchanged.
func (c *Client) UpdateConfig(ctx context.Context, config Config) error {
	err := c.Query(ctx, "PUT", api.NewURL().Path("1.0", "config"), config, nil)
	if err != nil {
		return fmt.Errorf("Failed to update config: %w", err)
	}

	return nil
}
