package shortcut

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/canonical/lxd/shared/logger"

	"github.com/canonical/sqlmagic/internal/config"
	"github.com/canonical/sqlmagic/internal/render"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Observer is notified after every dispatch. Names that aren't registered are reported as Unregistered.
type Observer interface {
	Observe(name Name, elapsed time.Duration, err error)
}

// Option configures a Dispatcher.
type Option func(d *Dispatcher)

// WithOutput sets the default writer for printed output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.out = w
	}
}

// WithRichRenderer sets the default renderer used by the display shortcut.
func WithRichRenderer(r render.Renderer) Option {
	return func(d *Dispatcher) {
		d.rich = r
	}
}

// WithObserver sets an observer notified after every dispatch.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// Request is a single shortcut invocation.
type Request struct {
	Name   Name
	Inline string
	Block  string

	// Out overrides the dispatcher's default writer.
	Out io.Writer

	// Rich overrides the dispatcher's default rich renderer.
	Rich render.Renderer
}

// Dispatcher maps shortcut names to policies and runs them against an Executor.
type Dispatcher struct {
	executor Executor
	config   *config.Config
	out      io.Writer
	rich     render.Renderer
	observer Observer

	mu       sync.RWMutex
	policies map[Name]Policy
}

// NewDispatcher returns a dispatcher with the built-in shortcuts registered.
// A nil config uses the default rendering options.
func NewDispatcher(executor Executor, cfg *config.Config, opts ...Option) *Dispatcher {
	if cfg == nil {
		cfg = config.NewConfig("")
	}

	d := &Dispatcher{
		executor: executor,
		config:   cfg,
		out:      os.Stdout,
		policies: Builtins(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Config returns the rendering config read by the policies.
func (d *Dispatcher) Config() *config.Config {
	return d.config
}

// Register adds a new shortcut. Existing shortcuts can't be replaced.
func (d *Dispatcher) Register(name Name, policy Policy) error {
	name = name.normalize()
	if !nameRegex.MatchString(string(name)) {
		return fmt.Errorf("Shortcut name %q must contain only lowercase letters, digits and single underscores: %w", name, ErrInvalidShortcut)
	}

	if policy == nil {
		return fmt.Errorf("Shortcut %q has no policy: %w", name, ErrInvalidShortcut)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.policies[name]
	if ok {
		return fmt.Errorf("Shortcut %q: %w", name, ErrDuplicateShortcut)
	}

	d.policies[name] = policy

	return nil
}

// Lookup returns the policy registered under name.
func (d *Dispatcher) Lookup(name Name) (Policy, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	policy, ok := d.policies[name.normalize()]

	return policy, ok
}

// Names returns the registered shortcut names in sorted order.
func (d *Dispatcher) Names() []Name {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]Name, 0, len(d.policies))
	for name := range d.policies {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// Dispatch runs the named shortcut on the inline or block query, printing to the default writer.
func (d *Dispatcher) Dispatch(ctx context.Context, name Name, inline string, block string) (*Output, error) {
	return d.Do(ctx, Request{Name: name, Inline: inline, Block: block})
}

// Do runs a shortcut invocation. Every error returned is a *Error.
func (d *Dispatcher) Do(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()
	name := req.Name.normalize()

	out, err := d.do(ctx, name, req)
	if d.observer != nil {
		observed := name
		_, ok := d.Lookup(name)
		if !ok {
			observed = Unregistered
		}

		d.observer.Observe(observed, time.Since(start), err)
	}

	return out, err
}

func (d *Dispatcher) do(ctx context.Context, name Name, req Request) (*Output, error) {
	query, err := Normalize(req.Inline, req.Block)
	if err != nil {
		return nil, &Error{Name: name, Kind: ErrEmptyQuery}
	}

	policy, ok := d.Lookup(name)
	if !ok {
		return nil, &Error{Name: name, Query: query, Kind: ErrUnknownShortcut}
	}

	logger.Debug("Dispatching shortcut", logger.Ctx{"shortcut": name, "query": query})

	result, err := d.executor.Execute(ctx, query)
	if err != nil {
		return nil, &Error{Name: name, Query: query, Kind: ErrExecutionFailed, Err: err}
	}

	inv := &Invocation{
		Name:     name,
		Query:    query,
		Result:   result,
		Executor: d.executor,
		Config:   d.config.Get(),
		Out:      d.out,
		Rich:     d.rich,
	}

	if req.Out != nil {
		inv.Out = req.Out
	}

	if req.Rich != nil {
		inv.Rich = req.Rich
	}

	out, err := policy.Apply(ctx, inv)
	if err != nil {
		kind, cause := classify(err)
		return nil, &Error{Name: name, Query: query, Kind: kind, Err: cause}
	}

	if out == nil {
		out = &Output{}
	}

	return out, nil
}
