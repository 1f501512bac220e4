// Package catalog is the profile/tool CRUD flow around fnguard: every write is
// validated first, then handed to a Store. It has no transport of its own.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/skosovsky/fnguard"
)

// Catalog validates and stores profiles and tools, manages tool/profile associations
// and checks model-produced tool calls against stored tool definitions.
// Safe for concurrent use.
type Catalog struct {
	store     Store
	validator *fnguard.Validator
	logger    *slog.Logger

	mu      sync.Mutex
	done    chan struct{}
	running sync.WaitGroup
	args    map[string]*fnguard.ArgumentSchema // compiled per tool name, dropped on write
	gens    map[string]uint64                  // bumped by forget; a compile only caches if unchanged

	closeOnce sync.Once
	closeErr  error
}

// New creates a Catalog over store. store must not be nil.
func New(store Store, opts ...Option) (*Catalog, error) {
	if store == nil {
		return nil, errors.New("catalog: store must not be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.validator == nil {
		o.validator = fnguard.NewValidator()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		store:     store,
		validator: o.validator,
		logger:    o.logger,
		done:      make(chan struct{}),
		args:      make(map[string]*fnguard.ArgumentSchema),
		gens:      make(map[string]uint64),
	}, nil
}

// Profile returns the named profile with its associated tools attached.
func (c *Catalog) Profile(ctx context.Context, name string) (*fnguard.Profile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.running.Done()
	p, err := c.store.GetProfile(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	tools, err := c.store.ProfileTools(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	p.Tools = tools
	return p, nil
}

// Profiles returns every profile sorted by name, without tools. An empty catalog
// returns ErrNotFound.
func (c *Catalog) Profiles(ctx context.Context) ([]fnguard.Profile, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.running.Done()
	profiles, err := c.store.ListProfiles(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles exist: %w", ErrNotFound)
	}
	return profiles, nil
}

// UpsertProfile validates p and stores it. Attached tools are stored as tools and
// p.Tools becomes the profile's complete tool set: tools associated with an earlier
// version but missing from p.Tools are dissociated. Nothing is written when
// validation fails; the validation error is returned unchanged.
func (c *Catalog) UpsertProfile(ctx context.Context, p *fnguard.Profile) error {
	if err := c.validator.ValidateProfile(p); err != nil {
		c.logger.InfoContext(ctx, "profile rejected", "error", err)
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	previous, err := c.store.ProfileTools(ctx, p.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return storeError(err)
	}
	for _, t := range p.Tools {
		if err := c.store.UpsertTool(ctx, t); err != nil {
			return storeError(err)
		}
		c.forget(t.Function.Name)
	}
	if err := c.store.UpsertProfile(ctx, *p); err != nil {
		return storeError(err)
	}
	for _, old := range previous {
		if hasTool(p.Tools, old.Function.Name) {
			continue
		}
		err := c.store.RemoveAssociations(ctx, old.Function.Name, []string{p.Name})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return storeError(err)
		}
	}
	for _, t := range p.Tools {
		if err := c.store.AddAssociations(ctx, t.Function.Name, []string{p.Name}); err != nil {
			return storeError(err)
		}
	}
	c.logger.InfoContext(ctx, "profile upserted", "profile", p.Name, "tools", len(p.Tools))
	return nil
}

// DeleteProfile removes the named profile and its associations.
func (c *Catalog) DeleteProfile(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	if err := c.store.DeleteProfile(ctx, name); err != nil {
		return storeError(err)
	}
	c.logger.InfoContext(ctx, "profile deleted", "profile", name)
	return nil
}

// Tool returns the named tool.
func (c *Catalog) Tool(ctx context.Context, name string) (*fnguard.Tool, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.running.Done()
	t, err := c.store.GetTool(ctx, name)
	if err != nil {
		return nil, storeError(err)
	}
	return t, nil
}

// Tools returns every tool sorted by name. An empty catalog returns ErrNotFound.
func (c *Catalog) Tools(ctx context.Context) ([]fnguard.Tool, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.running.Done()
	tools, err := c.store.ListTools(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("no tools exist: %w", ErrNotFound)
	}
	return tools, nil
}

// UpsertTools validates every tool and then stores them all. One invalid tool
// rejects the whole batch before anything is written.
func (c *Catalog) UpsertTools(ctx context.Context, tools []fnguard.Tool) error {
	if len(tools) == 0 {
		return ErrEmptyBatch
	}
	if err := c.validator.ValidateTools(tools); err != nil {
		c.logger.InfoContext(ctx, "tools rejected", "error", err)
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	for _, t := range tools {
		if err := c.store.UpsertTool(ctx, t); err != nil {
			return storeError(err)
		}
		c.forget(t.Function.Name)
	}
	c.logger.InfoContext(ctx, "tools upserted", "count", len(tools))
	return nil
}

// DeleteTool removes the named tool and its associations.
func (c *Catalog) DeleteTool(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	if err := c.store.DeleteTool(ctx, name); err != nil {
		return storeError(err)
	}
	c.forget(name)
	c.logger.InfoContext(ctx, "tool deleted", "tool", name)
	return nil
}

// Associate attaches tool to each of profiles. The tool and every profile must exist.
func (c *Catalog) Associate(ctx context.Context, tool string, profiles []string) error {
	if err := checkAssociation(tool, profiles); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	if err := c.store.AddAssociations(ctx, tool, profiles); err != nil {
		return storeError(err)
	}
	c.logger.InfoContext(ctx, "tool associated", "tool", tool, "profiles", profiles)
	return nil
}

// Dissociate detaches tool from each of profiles. Profiles not associated are ignored.
func (c *Catalog) Dissociate(ctx context.Context, tool string, profiles []string) error {
	if err := checkAssociation(tool, profiles); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	if err := c.store.RemoveAssociations(ctx, tool, profiles); err != nil {
		return storeError(err)
	}
	c.logger.InfoContext(ctx, "tool dissociated", "tool", tool, "profiles", profiles)
	return nil
}

// ToolProfiles returns the names of the profiles tool is associated with. A tool
// with no associations returns ErrNotFound.
func (c *Catalog) ToolProfiles(ctx context.Context, tool string) ([]string, error) {
	if err := checkName(tool); err != nil {
		return nil, err
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.running.Done()
	profiles, err := c.store.ToolProfiles(ctx, tool)
	if err != nil {
		return nil, storeError(err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("tool %q is not associated with any profiles: %w", tool, ErrNotFound)
	}
	return profiles, nil
}

// CheckCall looks up the tool named by call and checks its arguments against the
// tool's parameter schema. Unknown tools return ErrToolNotFound; argument problems
// return *fnguard.ClientError.
func (c *Catalog) CheckCall(ctx context.Context, call fnguard.ToolCall) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.running.Done()
	args, err := c.argumentSchema(ctx, call.ToolName)
	if err != nil {
		return err
	}
	if err := args.Validate(call.Args); err != nil {
		c.logger.InfoContext(ctx, "tool call rejected", "call", call.ID, "tool", call.ToolName, "error", err)
		return err
	}
	return nil
}

func (c *Catalog) argumentSchema(ctx context.Context, name string) (*fnguard.ArgumentSchema, error) {
	c.mu.Lock()
	args, ok := c.args[name]
	gen := c.gens[name]
	c.mu.Unlock()
	if ok {
		return args, nil
	}
	t, err := c.store.GetTool(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%q: %w", name, ErrToolNotFound)
	}
	if err != nil {
		return nil, storeError(err)
	}
	args, err = fnguard.CompileArguments(t)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gens[name] == gen {
		c.args[name] = args
	}
	c.mu.Unlock()
	return args, nil
}

// forget drops the cached schema of tool. Callers invoke it after the store write, so
// a compile that read the old definition sees a new generation and does not cache.
func (c *Catalog) forget(tool string) {
	c.mu.Lock()
	delete(c.args, tool)
	c.gens[tool]++
	c.mu.Unlock()
}

// begin registers an in-flight operation; callers must call c.running.Done.
func (c *Catalog) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return ErrShutdown
	default:
	}
	c.running.Add(1)
	return nil
}

// Shutdown rejects new operations and waits for in-flight ones or ctx to cancel.
// Once they have drained the store is closed; a Shutdown that timed out may be
// called again to finish the job.
func (c *Catalog) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.mu.Unlock()
	idle := make(chan struct{})
	go func() {
		c.running.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		c.closeOnce.Do(func() { c.closeErr = c.store.Close() })
		return c.closeErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hasTool(tools []fnguard.Tool, name string) bool {
	for _, t := range tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must not be blank: %w", ErrInvalidName)
	}
	return nil
}

func checkAssociation(tool string, profiles []string) error {
	if err := checkName(tool); err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("profiles must not be empty: %w", ErrInvalidName)
	}
	for _, p := range profiles {
		if err := checkName(p); err != nil {
			return err
		}
	}
	return nil
}

// storeError passes ErrNotFound through and hides everything else behind SystemError.
func storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &fnguard.SystemError{Err: err}
}
