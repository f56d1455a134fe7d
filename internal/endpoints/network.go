package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/canonical/lxd/lxd/util"
	"github.com/canonical/lxd/shared/logger"
)

// DefaultPort is the port used when a listen address does not name one.
const DefaultPort = 8490

// Network represents an http listener and its server.
type Network struct {
	address string

	listener net.Listener
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNetwork assigns an address and server to the Network.
func NewNetwork(ctx context.Context, server *http.Server, address string) *Network {
	ctx, cancel := context.WithCancel(ctx)

	return &Network{
		address: address,
		server:  server,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Type returns the type of the Endpoint.
func (n *Network) Type() EndpointType {
	return EndpointNetwork
}

// Listen on the given address.
func (n *Network) Listen() error {
	listenAddress := util.CanonicalNetworkAddress(n.address, DefaultPort)
	protocol := "tcp"

	if strings.HasPrefix(listenAddress, "0.0.0.0") {
		protocol = "tcp4"
	}

	listener, err := net.Listen(protocol, listenAddress)
	if err != nil {
		return fmt.Errorf("Failed to listen on http socket %q: %w", listenAddress, err)
	}

	n.listener = listener

	return nil
}

// Address returns the address the network is bound to, or the configured address before Listen.
func (n *Network) Address() string {
	if n.listener == nil {
		return n.address
	}

	return n.listener.Addr().String()
}

// Serve binds to the Network's server.
func (n *Network) Serve() {
	if n.listener == nil {
		return
	}

	logger.Info(" - binding http socket", logger.Ctx{"network": n.listener.Addr()})

	go func() {
		err := n.server.Serve(n.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case <-n.ctx.Done():
				logger.Infof("Received shutdown signal - aborting http socket server startup")
			default:
				logger.Error("Failed to start server", logger.Ctx{"err": err})
			}
		}
	}()
}

// Close the listener.
func (n *Network) Close() error {
	if n.listener == nil {
		return nil
	}

	logger.Info("Stopping REST API handler - closing http socket", logger.Ctx{"address": n.listener.Addr()})
	n.cancel()

	err := n.listener.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
