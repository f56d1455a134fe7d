package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// Client is a rest client for the sqlmagic server.
type Client struct {
	*http.Client
	url api.URL
}

// New returns a new client for the server at the given address. The address may be a host:port
// pair, a http(s) URL or the absolute path of a control socket.
func New(address string) (*Client, error) {
	// If the address is an absolute path to a control socket, return a client to the local unix socket.
	if strings.HasSuffix(address, ".socket") && path.IsAbs(address) {
		client, err := unixHTTPClient(address)
		if err != nil {
			return nil, err
		}

		return &Client{
			Client: client,
			url:    *api.NewURL().Scheme("http").Host(filepath.Base(address)),
		}, nil
	}

	scheme := "http"
	host := address
	if strings.Contains(address, "://") {
		var found bool
		scheme, host, found = strings.Cut(address, "://")
		if !found || host == "" {
			return nil, fmt.Errorf("Invalid server address %q", address)
		}
	}

	if host == "" {
		return nil, fmt.Errorf("Missing server address")
	}

	transport := &http.Transport{
		DisableKeepAlives: true,
		Proxy:             shared.ProxyFromEnvironment,
	}

	return &Client{
		Client: newHTTPClient(transport),
		url:    *api.NewURL().Scheme(scheme).Host(strings.TrimSuffix(host, "/")),
	}, nil
}

func unixHTTPClient(socketPath string) (*http.Client, error) {
	raddr, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("Failed to resolve control socket %q: %w", socketPath, err)
	}

	// Setup a Unix socket dialer
	unixDial := func(ctx context.Context, network string, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", raddr.String())
	}

	transport := &http.Transport{
		DialContext:       unixDial,
		DisableKeepAlives: true,
	}

	return newHTTPClient(transport), nil
}

func newHTTPClient(transport *http.Transport) *http.Client {
	// Define the http client
	client := &http.Client{Transport: transport}

	// Setup redirect policy
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		// Replicate the headers
		req.Header = via[len(via)-1].Header

		return nil
	}

	return client
}

func (c *Client) rawQuery(ctx context.Context, method string, url *api.URL, data any, headers map[string]string) (*http.Response, error) {
	var req *http.Request
	var err error

	// Assign a context timeout if we don't already have one.
	_, ok := ctx.Deadline()
	if !ok {
		timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		ctx = timeoutCtx
		defer cancel()
	}

	// Get a new HTTP request setup
	if data != nil {
		// Encode the provided data
		buf := bytes.Buffer{}
		err := json.NewEncoder(&buf).Encode(data)
		if err != nil {
			return nil, err
		}

		// Use a reader since the request body needs to be seekable
		req, err = http.NewRequestWithContext(ctx, method, url.String(), bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}

		// Set the encoding accordingly
		req.Header.Set("Content-Type", "application/json")
	} else {
		// No data to be sent along with the request
		req, err = http.NewRequestWithContext(ctx, method, url.String(), nil)
		if err != nil {
			return nil, err
		}
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// Send the request
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	// The body must be read before the context is cancelled.
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("Failed to read response body: %w", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))

	return resp, nil
}

func (c *Client) mergeURL(endpoint *api.URL) *api.URL {
	localURL := api.NewURL()
	if endpoint != nil {
		// Get a new local struct to avoid modifying the provided one.
		newURL := *endpoint
		localURL = &newURL
	}

	localURL.URL.Host = c.url.URL.Host
	localURL.URL.Scheme = c.url.URL.Scheme
	localURL.URL.Path = filepath.Join("/", localURL.URL.Path)
	if localURL.URL.RawPath != "" {
		localURL.URL.RawPath = filepath.Join("/", localURL.URL.RawPath)
	}

	return localURL
}

// QueryStruct sends a request of the specified method to the provided endpoint.
// The response gets unpacked into the target struct.
func (c *Client) QueryStruct(ctx context.Context, method string, endpoint *api.URL, data any, target any) error {
	resp, err := c.QueryStructRaw(ctx, method, endpoint, data, nil)
	if err != nil {
		return err
	}

	response, err := ParseResponse(resp)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	// Unpack into the target struct.
	return response.MetadataAsStruct(target)
}

// QueryStructRaw sends a request of the specified method to the provided endpoint with the given headers.
// The raw response is returned.
func (c *Client) QueryStructRaw(ctx context.Context, method string, endpoint *api.URL, data any, headers map[string]string) (*http.Response, error) {
	// Merge the provided URL with the one we have for the client.
	localURL := c.mergeURL(endpoint)

	// Send the actual query through.
	resp, err := c.rawQuery(ctx, method, localURL, data, headers)
	if err != nil {
		return nil, err
	}

	logger.Debug("Got raw response from sqlmagic server", logger.Ctx{"endpoint": localURL.String(), "method": method, "status": resp.StatusCode})

	return resp, nil
}

// URL returns the address used for the client.
func (c *Client) URL() api.URL {
	return c.url
}

// ParseResponse takes a http response, parses it and returns the extracted result.
func ParseResponse(resp *http.Response) (*api.Response, error) {
	defer resp.Body.Close()

	// Decode the response
	decoder := json.NewDecoder(resp.Body)
	response := api.Response{}

	err := decoder.Decode(&response)
	if err != nil {
		// Check the return value for a cleaner error
		if resp.StatusCode != http.StatusOK {
			return nil, api.StatusErrorf(resp.StatusCode, "Failed to fetch %q: %q", resp.Request.URL.String(), resp.Status)
		}

		return nil, err
	}

	// Handle errors
	if response.Type == api.ErrorResponse {
		return nil, api.StatusErrorf(resp.StatusCode, "%s", response.Error)
	}

	return &response, nil
}
