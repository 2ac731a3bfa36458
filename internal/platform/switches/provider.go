// Package switches implements named runtime boolean switches and the gate that
// completion writes check before touching storage.
package switches

import (
	"context"
	"os"
	"strings"
	"sync"
)

// Provider answers whether a named switch is on. found=false means the backend
// has no opinion and the gate falls back to its default.
type Provider interface {
	Lookup(ctx context.Context, name string) (active bool, found bool, err error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, name string) (bool, bool, error)

func (f ProviderFunc) Lookup(ctx context.Context, name string) (bool, bool, error) {
	return f(ctx, name)
}

// Static holds switch values in memory. Safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	values map[string]bool
}

func NewStatic(values map[string]bool) *Static {
	s := &Static{values: make(map[string]bool, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *Static) Set(name string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = active
}

func (s *Static) Lookup(_ context.Context, name string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok, nil
}

// Env maps a switch name onto an environment variable.
type Env struct {
	Vars map[string]string
}

func (e Env) Lookup(_ context.Context, name string) (bool, bool, error) {
	envName, ok := e.Vars[name]
	if !ok {
		return false, false, nil
	}
	raw, ok := os.LookupEnv(envName)
	if !ok || strings.TrimSpace(raw) == "" {
		return false, false, nil
	}
	return Truthy(raw), true, nil
}

// Truthy parses the usual on/off spellings. Unknown values are off.
func Truthy(raw string) bool {
	active, _ := ParseState(raw)
	return active
}

// ParseState parses an on/off spelling. ok is false for anything unrecognised.
func ParseState(raw string) (active bool, ok bool) {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
