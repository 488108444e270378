package features

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Constructor builds an extractor from the mapping form of its configuration.
// Nil or empty params mean the default configuration.
type Constructor func(params map[string]any, opts ...Option) (Extractor, error)

// Registry maps extractor names to constructors. Names are registered once
// and never removed. The name is the extractor's own Name, which recipes and
// stored features record to rebuild it. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// Register adds a constructor under name. Registering a name twice fails
// with ErrDuplicateExtractor instead of shadowing the first entry.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" {
		return errors.New("register extractor: empty name")
	}
	if ctor == nil {
		return fmt.Errorf("register extractor %q: nil constructor", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateExtractor, name)
	}
	r.constructors[name] = ctor
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrExtractorNotFound, name)
	}
	return ctor, nil
}

// New looks up name and builds an extractor from params. The built
// extractor must report name as its Name, otherwise ErrNameMismatch.
func (r *Registry) New(name string, params map[string]any, opts ...Option) (Extractor, error) {
	ctor, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	ext, err := ctor(params, opts...)
	if err != nil {
		return nil, fmt.Errorf("create extractor %q: %w", name, err)
	}
	if got := ext.Name(); got != name {
		return nil, fmt.Errorf("create extractor %q: %w: built %q", name, ErrNameMismatch, got)
	}
	return ext, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.MustRegister(SpectrogramName, newSpectrogramFromParams)
	defaultRegistry.MustRegister(FbankName, newFbankFromParams)
}

// DefaultRegistry returns the process-wide registry holding the built-in extractors.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a constructor to the default registry.
func Register(name string, ctor Constructor) error {
	return defaultRegistry.Register(name, ctor)
}

// Lookup finds a constructor in the default registry.
func Lookup(name string) (Constructor, error) {
	return defaultRegistry.Lookup(name)
}

// New builds an extractor from the default registry.
func New(name string, params map[string]any, opts ...Option) (Extractor, error) {
	return defaultRegistry.New(name, params, opts...)
}

// Names lists the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
