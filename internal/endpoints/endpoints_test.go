package endpoints

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type endpointsSuite struct {
	suite.Suite

	server *http.Server
}

func TestEndpointsSuite(t *testing.T) {
	suite.Run(t, new(endpointsSuite))
}

func (t *endpointsSuite) SetupTest() {
	t.server = &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})}
}

func (t *endpointsSuite) TearDownTest() {
	_ = t.server.Close()
}

func (t *endpointsSuite) Test_upDown() {
	ctx := context.Background()
	socketPath := filepath.Join(t.T().TempDir(), "control.socket")

	network := NewNetwork(ctx, t.server, "127.0.0.1:0")
	e := NewEndpoints(ctx, map[string]Endpoint{
		EndpointsNetwork: network,
		EndpointsUnix:    NewSocket(ctx, t.server, socketPath, ""),
	})

	t.Require().NoError(e.Up())

	resp, err := http.Get("http://" + network.Address())
	t.Require().NoError(err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	t.NoError(err)
	t.Equal("ok", string(body))

	info, err := os.Stat(socketPath)
	t.Require().NoError(err)
	t.Equal(os.ModeSocket, info.Mode().Type())
	t.Equal(os.FileMode(0660), info.Mode().Perm())

	t.Len(e.List(EndpointNetwork), 1)
	t.Len(e.List(EndpointControl), 1)
	t.Len(e.List(EndpointNetwork, EndpointControl), 2)

	t.NoError(e.Down(EndpointNetwork))
	t.Len(e.List(EndpointNetwork), 0)
	t.Len(e.List(EndpointControl), 1)

	_, err = net.Dial("tcp", network.Address())
	t.Error(err)

	t.NoError(e.Down())
	t.Len(e.List(EndpointNetwork, EndpointControl), 0)
}

func (t *endpointsSuite) Test_staleSocket() {
	socketPath := filepath.Join(t.T().TempDir(), "control.socket")
	t.Require().NoError(os.WriteFile(socketPath, nil, 0600))

	socket := NewSocket(context.Background(), t.server, socketPath, "")
	t.Require().NoError(socket.Listen())
	defer func() { _ = socket.Close() }()

	// A second socket cannot take over a live one.
	other := NewSocket(context.Background(), t.server, socketPath, "")
	socket.Serve()
	t.Error(other.Listen())
}

func (t *endpointsSuite) Test_listenFailure() {
	ctx := context.Background()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	t.Require().NoError(err)
	defer func() { _ = busy.Close() }()

	e := NewEndpoints(ctx, map[string]Endpoint{
		EndpointsNetwork: NewNetwork(ctx, t.server, busy.Addr().String()),
	})

	t.Error(e.Up())
	t.Len(e.List(EndpointNetwork), 0)
}

func TestEndpointTypeString(t *testing.T) {
	cases := map[EndpointType]string{
		EndpointControl: "control socket",
		EndpointNetwork: "http socket",
		EndpointType(7): "",
	}

	for endpointType, expected := range cases {
		if endpointType.String() != expected {
			t.Fatalf("Unexpected label %q for type %d", endpointType.String(), endpointType)
		}
	}
}
