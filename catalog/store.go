package catalog

import (
	"context"
	"errors"

	"github.com/skosovsky/fnguard"
)

// Sentinel errors for catalog. Use errors.Is to check.
var (
	ErrNotFound     = errors.New("not found")
	ErrToolNotFound = errors.New("tool not found")
	ErrInvalidName  = errors.New("invalid name")
	ErrEmptyBatch   = errors.New("at least one tool is required")
	ErrShutdown     = errors.New("catalog is shutting down")
)

// Store persists profiles, tools and the tool/profile associations. Implementations
// never validate; Catalog does that before any write. Names are case-sensitive keys.
//
// Profiles are stored without their Tools; attached tools are kept as tools plus
// associations and returned by ProfileTools.
//
// Get*, Delete*, ToolProfiles and RemoveAssociations return an error wrapping
// ErrNotFound when the named object does not exist. AddAssociations does the same
// when the tool or any of the profiles is missing, and then writes nothing.
type Store interface {
	GetProfile(ctx context.Context, name string) (*fnguard.Profile, error)
	// ListProfiles returns every profile sorted by name.
	ListProfiles(ctx context.Context) ([]fnguard.Profile, error)
	UpsertProfile(ctx context.Context, p fnguard.Profile) error
	DeleteProfile(ctx context.Context, name string) error

	GetTool(ctx context.Context, name string) (*fnguard.Tool, error)
	// ListTools returns every tool sorted by function name.
	ListTools(ctx context.Context) ([]fnguard.Tool, error)
	UpsertTool(ctx context.Context, t fnguard.Tool) error
	DeleteTool(ctx context.Context, name string) error

	AddAssociations(ctx context.Context, tool string, profiles []string) error
	RemoveAssociations(ctx context.Context, tool string, profiles []string) error
	// ToolProfiles returns the profile names tool is associated with, sorted.
	ToolProfiles(ctx context.Context, tool string) ([]string, error)
	// ProfileTools returns the tools associated with profile, sorted by function name.
	ProfileTools(ctx context.Context, profile string) ([]fnguard.Tool, error)

	Close() error
}
