package state

import (
	"github.com/canonical/sqlmagic/internal/config"
)

// Hooks holds customizable functions that are called at varying points by the server to
// integrate with other tools.
type Hooks struct {
	// OnStart is run after the server starts listening.
	OnStart func(s *State) error

	// OnConfigReload is run after the rendering options were reloaded from the config file.
	OnConfigReload func(s *State, cfg config.RenderConfig) error
}
