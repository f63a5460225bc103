package kem

import (
	"fmt"
	"sync"
)

// ResourceHint describes an execution constraint of a backend.
type ResourceHint uint8

const (
	HintNone ResourceHint = iota
	// HintLargeStack marks backends whose working set may exceed the stack
	// of a freshly spawned thread; they are run on the caller.
	HintLargeStack
)

func (h ResourceHint) String() string {
	switch h {
	case HintNone:
		return "none"
	case HintLargeStack:
		return "large-stack"
	default:
		return fmt.Sprintf("ResourceHint(%d)", uint8(h))
	}
}

// ParseResourceHint is the inverse of ResourceHint.String.
func ParseResourceHint(s string) (ResourceHint, error) {
	switch s {
	case "none", "":
		return HintNone, nil
	case "large-stack":
		return HintLargeStack, nil
	default:
		return HintNone, errorf("unknown resource hint %q", s)
	}
}

// Entry is one algorithm in a Registry.
type Entry struct {
	Name    string
	Enabled bool
	Hint    ResourceHint
	New     func() Scheme
}

// Registry is an ordered, read-only catalogue of algorithms. It is safe for
// concurrent use.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry builds a registry keeping the order of entries. It panics on
// duplicate or empty names.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{
		entries: make([]Entry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	copy(r.entries, entries)
	for i, e := range r.entries {
		if e.Name == "" {
			panic("kem: registry entry without a name")
		}
		if _, exists := r.index[e.Name]; exists {
			panic(fmt.Sprintf("kem: duplicate registry entry %q", e.Name))
		}
		if e.New == nil {
			panic(fmt.Sprintf("kem: registry entry %q has no constructor", e.Name))
		}
		r.index[e.Name] = i
	}
	return r
}

// List returns every compiled-in algorithm, enabled or not.
func (r *Registry) List() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// ListEnabled returns the enabled algorithms in registration order.
func (r *Registry) ListEnabled() []string {
	var names []string
	for _, e := range r.entries {
		if e.Enabled {
			names = append(names, e.Name)
		}
	}
	return names
}

func (r *Registry) IsEnabled(name string) bool {
	e, ok := r.entry(name)
	return ok && e.Enabled
}

// Contains reports whether name is compiled in, enabled or not.
func (r *Registry) Contains(name string) bool {
	_, ok := r.entry(name)
	return ok
}

// ResourceHint returns the hint for name, HintNone if it is unknown.
func (r *Registry) ResourceHint(name string) ResourceHint {
	e, _ := r.entry(name)
	return e.Hint
}

// Lookup returns a backend for an enabled algorithm.
func (r *Registry) Lookup(name string) (Scheme, error) {
	e, ok := r.entry(name)
	if !ok || !e.Enabled {
		return nil, &UnsupportedAlgorithmError{Name: name}
	}
	return e.New(), nil
}

// WithHints returns a copy of r with the hints of the named algorithms
// replaced. Names not in r are ignored.
func (r *Registry) WithHints(hints map[string]ResourceHint) *Registry {
	entries := r.Entries()
	for i := range entries {
		if h, ok := hints[entries[i].Name]; ok {
			entries[i].Hint = h
		}
	}
	return NewRegistry(entries...)
}

// WithDisabled returns a copy of r with the named algorithms disabled.
func (r *Registry) WithDisabled(names ...string) *Registry {
	off := make(map[string]bool, len(names))
	for _, n := range names {
		off[n] = true
	}
	entries := r.Entries()
	for i := range entries {
		if off[entries[i].Name] {
			entries[i].Enabled = false
		}
	}
	return NewRegistry(entries...)
}

// Only returns a copy of r in which only the named algorithms stay enabled.
func (r *Registry) Only(names ...string) *Registry {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	entries := r.Entries()
	for i := range entries {
		entries[i].Enabled = entries[i].Enabled && keep[entries[i].Name]
	}
	return NewRegistry(entries...)
}

// Entries returns a copy of the registry's entries.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

func (r *Registry) entry(name string) (Entry, bool) {
	i, ok := r.index[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry built from the compiled-in
// catalogue.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(catalogue()...)
	})
	return defaultRegistry
}
