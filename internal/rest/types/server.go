package types

import (
	"time"
)

// Server represents server status information.
type Server struct {
	Name          string    `json:"name"           yaml:"name"`
	Version       string    `json:"version"        yaml:"version"`
	Driver        string    `json:"driver"         yaml:"driver"`
	Shortcuts     []string  `json:"shortcuts"      yaml:"shortcuts"`
	APIExtensions []string  `json:"api_extensions" yaml:"api_extensions"`
	StartedAt     time.Time `json:"started_at"     yaml:"started_at"`
}
