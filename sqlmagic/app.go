// Package sqlmagic wires the shortcut dispatcher to an embedded SQL engine and exposes it on
// the command line, in an interactive shell and over HTTP.
package sqlmagic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/canonical/lxd/shared/logger"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/canonical/sqlmagic/internal/config"
	"github.com/canonical/sqlmagic/internal/dataset"
	"github.com/canonical/sqlmagic/internal/endpoints"
	"github.com/canonical/sqlmagic/internal/engine"
	"github.com/canonical/sqlmagic/internal/extensions"
	"github.com/canonical/sqlmagic/internal/metrics"
	"github.com/canonical/sqlmagic/internal/render"
	"github.com/canonical/sqlmagic/internal/rest"
	"github.com/canonical/sqlmagic/internal/rest/resources"
	"github.com/canonical/sqlmagic/internal/shell"
	"github.com/canonical/sqlmagic/internal/state"
	"github.com/canonical/sqlmagic/internal/sys"
	"github.com/canonical/sqlmagic/shortcut"
)

// Version of sqlmagic.
const Version = "0.1.0"

// SQLMagic holds an open engine and the dispatcher running shortcuts against it.
type SQLMagic struct {
	// FileSystem is nil when running without a state directory.
	FileSystem *sys.OS

	args       Args
	engine     *engine.Engine
	config     *config.Config
	dispatcher *shortcut.Dispatcher
	metrics    *metrics.Metrics
	extensions extensions.Extensions
	startedAt  time.Time
}

// Args contains options for configuring SQLMagic.
type Args struct {
	Verbose bool
	Debug   bool

	// StateDir holds the config file, the log file and the database. If empty, nothing is
	// persisted and the database is in memory.
	StateDir string

	// Engine selects the database. Its paths default to locations in the state directory.
	Engine engine.Args

	// Dataset is loaded into the database at startup: dataset.Demo or the path of a YAML file.
	Dataset string

	// Output receives printed shortcut output. Defaults to os.Stdout.
	Output io.Writer

	// Rich renders the display shortcut. Defaults to the text table.
	Rich render.Renderer
}

// App returns an instance of SQLMagic with an open engine and a dispatcher with the built-in shortcuts.
func App(ctx context.Context, args Args) (*SQLMagic, error) {
	m := &SQLMagic{args: args, extensions: extensions.NewExtensionRegistry(), startedAt: time.Now()}

	logFile := ""
	configPath := ""
	if args.StateDir != "" {
		stateDir, err := filepath.Abs(args.StateDir)
		if err != nil {
			return nil, fmt.Errorf("Missing absolute state directory: %w", err)
		}

		m.FileSystem, err = sys.DefaultOS(stateDir, true)
		if err != nil {
			return nil, err
		}

		logFile = m.FileSystem.LogPath()
		configPath = m.FileSystem.ConfigPath()

		if args.Engine.Driver == engine.DriverDqlite && args.Engine.DataDir == "" {
			args.Engine.DataDir = m.FileSystem.DatabaseDir
		}

		if args.Engine.Driver != engine.DriverDqlite && args.Engine.Path == "" {
			args.Engine.Path = m.FileSystem.DatabasePath()
		}
	}

	// Initialize the logger.
	err := logger.InitLogger(logFile, "", args.Verbose, args.Debug, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to initialize logger: %w", err)
	}

	m.config = config.NewConfig(configPath)
	err = m.config.Load()
	if err != nil {
		return nil, err
	}

	m.engine, err = engine.Open(ctx, args.Engine)
	if err != nil {
		return nil, err
	}

	if args.Dataset != "" {
		err = m.LoadDataset(ctx, args.Dataset)
		if err != nil {
			_ = m.engine.Close(ctx)
			return nil, err
		}
	}

	m.metrics = metrics.New()

	options := []shortcut.Option{shortcut.WithObserver(m.metrics)}
	if args.Output != nil {
		options = append(options, shortcut.WithOutput(args.Output))
	}

	if args.Rich != nil {
		options = append(options, shortcut.WithRichRenderer(args.Rich))
	}

	m.dispatcher = shortcut.NewDispatcher(m.engine, m.config, options...)

	return m, nil
}

// Engine returns the open engine.
func (m *SQLMagic) Engine() *engine.Engine {
	return m.engine
}

// Dispatcher returns the dispatcher. Extra shortcuts can be registered on it.
func (m *SQLMagic) Dispatcher() *shortcut.Dispatcher {
	return m.dispatcher
}

// Config returns the rendering options.
func (m *SQLMagic) Config() *config.Config {
	return m.config
}

// Dispatch runs the named shortcut on the inline or block query.
func (m *SQLMagic) Dispatch(ctx context.Context, name shortcut.Name, inline string, block string) (*shortcut.Output, error) {
	return m.dispatcher.Dispatch(ctx, name, inline, block)
}

// LoadDataset loads dataset.Demo or a YAML dataset file into the database.
func (m *SQLMagic) LoadDataset(ctx context.Context, source string) error {
	d, err := dataset.Read(source)
	if err != nil {
		return err
	}

	err = d.Load(ctx, m.engine)
	if err != nil {
		return fmt.Errorf("Failed to load dataset %q: %w", source, err)
	}

	logger.Info("Loaded dataset", logger.Ctx{"source": source, "relations": len(d.Relations)})

	return nil
}

// State returns the server state for the given context.
func (m *SQLMagic) State(ctx context.Context) *state.State {
	return &state.State{
		Context:    ctx,
		OS:         m.FileSystem,
		Engine:     m.engine,
		Dispatcher: m.dispatcher,
		Metrics:    m.metrics,
		Extensions: m.extensions,
		Version:    Version,
		StartedAt:  m.startedAt,
	}
}

// Watch reloads the rendering options whenever the config file changes, until the context is cancelled.
func (m *SQLMagic) Watch(ctx context.Context, hooks *state.Hooks) (*sys.Watcher, error) {
	if m.FileSystem == nil {
		return nil, fmt.Errorf("Cannot watch the config file without a state directory")
	}

	watcher, err := sys.NewWatcher(ctx, m.FileSystem.StateDir)
	if err != nil {
		return nil, err
	}

	s := m.State(ctx)
	err = watcher.Watch(m.FileSystem.StateDir, filepath.Base(m.FileSystem.ConfigPath()), func(path string, event fsnotify.Op) error {
		if path != m.config.Path() {
			return nil
		}

		err := m.config.Load()
		if err != nil {
			logger.Warn("Failed to reload config", logger.Ctx{"path": path, "err": err})
			return nil
		}

		current := m.config.Get()
		logger.Info("Reloaded config", logger.Ctx{"max_display_rows": current.MaxDisplayRows, "explain_verbose": current.ExplainVerbose})

		if hooks != nil && hooks.OnConfigReload != nil {
			return hooks.OnConfigReload(s, current)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return watcher, nil
}

// Serve serves the REST API until the context is cancelled or a termination signal is received.
// The API is served on the given network address, and on the control socket of the state directory
// if there is one. An empty address serves the control socket only.
// - `extensionsAPI` is a list of endpoints to be served over `/1.0`.
// - `apiExtensions` names the capabilities they add, reported by `GET /1.0`.
// - `hooks` are a set of functions that trigger at certain points of the server lifecycle.
func (m *SQLMagic) Serve(ctx context.Context, address string, extensionsAPI []rest.Endpoint, apiExtensions []string, hooks *state.Hooks) error {
	err := m.extensions.Register(apiExtensions)
	if err != nil {
		return err
	}

	chIgnore := make(chan os.Signal, 1)
	signal.Notify(chIgnore, unix.SIGHUP)
	defer signal.Stop(chIgnore)

	ctx, cancel := signal.NotifyContext(ctx, unix.SIGPWR, unix.SIGTERM, unix.SIGINT, unix.SIGQUIT)
	defer cancel()

	return m.serve(ctx, address, extensionsAPI, hooks)
}

func (m *SQLMagic) serve(ctx context.Context, address string, extensionsAPI []rest.Endpoint, hooks *state.Hooks) error {
	s := m.State(ctx)
	router := resources.Router(s)
	for _, e := range extensionsAPI {
		rest.HandleEndpoint(s, router, resources.Version, e)
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listeners := map[string]endpoints.Endpoint{}
	if address != "" {
		listeners[endpoints.EndpointsNetwork] = endpoints.NewNetwork(ctx, server, address)
	}

	if m.FileSystem != nil {
		listeners[endpoints.EndpointsUnix] = endpoints.NewSocket(ctx, server, m.FileSystem.ControlSocket(), "")
	}

	if len(listeners) == 0 {
		return fmt.Errorf("No address to serve the REST API on")
	}

	if m.FileSystem != nil {
		_, err := m.Watch(ctx, hooks)
		if err != nil {
			return err
		}
	}

	s.Endpoints = endpoints.NewEndpoints(ctx, listeners)
	err := s.Endpoints.Up()
	if err != nil {
		return err
	}

	logger.Info("Serving REST API", logger.Ctx{"version": Version})

	if hooks != nil && hooks.OnStart != nil {
		err := hooks.OnStart(s)
		if err != nil {
			_ = server.Close()
			_ = s.Endpoints.Down()
			return fmt.Errorf("Failed to run start hook: %w", err)
		}
	}

	<-ctx.Done()

	logger.Info("Stopping REST API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("Failed to shut down server: %w", err)
	}

	return s.Endpoints.Down()
}

// Shell runs the interactive shell on the terminal.
func (m *SQLMagic) Shell(ctx context.Context, out io.Writer) error {
	historyPath := ""
	if m.FileSystem != nil {
		historyPath = m.FileSystem.HistoryPath()
	}

	return shell.New(m.dispatcher, m.engine, out).Run(ctx, historyPath)
}

// Close closes the engine.
func (m *SQLMagic) Close(ctx context.Context) error {
	return m.engine.Close(ctx)
}
