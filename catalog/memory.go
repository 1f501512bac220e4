package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/skosovsky/fnguard"
)

// MemoryStore is an in-process Store. Values are deep-copied on the way in and out
// so callers cannot mutate stored state.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]fnguard.Profile
	tools    map[string]fnguard.Tool
	assoc    map[string]map[string]struct{} // tool -> profiles
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]fnguard.Profile),
		tools:    make(map[string]fnguard.Tool),
		assoc:    make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) GetProfile(_ context.Context, name string) (*fnguard.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	out, err := clone(p)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]fnguard.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fnguard.Profile, 0, len(s.profiles))
	for _, name := range sortedKeys(s.profiles) {
		p, err := clone(s.profiles[name])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) UpsertProfile(_ context.Context, p fnguard.Profile) error {
	p.Tools = nil
	stored, err := clone(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Name] = stored
	return nil
}

func (s *MemoryStore) DeleteProfile(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return fmt.Errorf("profile %q: %w", name, ErrNotFound)
	}
	delete(s.profiles, name)
	for _, profiles := range s.assoc {
		delete(profiles, name)
	}
	return nil
}

func (s *MemoryStore) GetTool(_ context.Context, name string) (*fnguard.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("tool %q: %w", name, ErrNotFound)
	}
	out, err := clone(t)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemoryStore) ListTools(_ context.Context) ([]fnguard.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloneTools(sortedKeys(s.tools))
}

func (s *MemoryStore) UpsertTool(_ context.Context, t fnguard.Tool) error {
	stored, err := clone(t)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[t.Function.Name] = stored
	return nil
}

func (s *MemoryStore) DeleteTool(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[name]; !ok {
		return fmt.Errorf("tool %q: %w", name, ErrNotFound)
	}
	delete(s.tools, name)
	delete(s.assoc, name)
	return nil
}

func (s *MemoryStore) AddAssociations(_ context.Context, tool string, profiles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[tool]; !ok {
		return fmt.Errorf("tool %q: %w", tool, ErrNotFound)
	}
	for _, p := range profiles {
		if _, ok := s.profiles[p]; !ok {
			return fmt.Errorf("profile %q: %w", p, ErrNotFound)
		}
	}
	set, ok := s.assoc[tool]
	if !ok {
		set = make(map[string]struct{}, len(profiles))
		s.assoc[tool] = set
	}
	for _, p := range profiles {
		set[p] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) RemoveAssociations(_ context.Context, tool string, profiles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[tool]; !ok {
		return fmt.Errorf("tool %q: %w", tool, ErrNotFound)
	}
	for _, p := range profiles {
		delete(s.assoc[tool], p)
	}
	return nil
}

func (s *MemoryStore) ToolProfiles(_ context.Context, tool string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tools[tool]; !ok {
		return nil, fmt.Errorf("tool %q: %w", tool, ErrNotFound)
	}
	return sortedKeys(s.assoc[tool]), nil
}

func (s *MemoryStore) ProfileTools(_ context.Context, profile string) ([]fnguard.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile]; !ok {
		return nil, fmt.Errorf("profile %q: %w", profile, ErrNotFound)
	}
	var names []string
	for tool, profiles := range s.assoc {
		if _, ok := profiles[profile]; ok {
			names = append(names, tool)
		}
	}
	slices.Sort(names)
	return s.cloneTools(names)
}

// Close is a no-op; MemoryStore holds no external resources.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) cloneTools(names []string) ([]fnguard.Tool, error) {
	out := make([]fnguard.Tool, 0, len(names))
	for _, name := range names {
		t, err := clone(s.tools[name])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// clone deep-copies v through its JSON form; property order survives the round trip.
func clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("copy: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("copy: %w", err)
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
