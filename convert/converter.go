package convert

import (
	"sort"
	"sync"
)

// Converter translates between a wire payload and an Object of one class.
// Conversions are all-or-nothing: on error no partial object is returned.
type Converter interface {
	Name() string
	ToObject(data []byte, class *ClassDescriptor) (Object, error)
	FromObject(obj Object, class *ClassDescriptor) ([]byte, error)
}

// Registry holds converters by name.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry returns a registry holding cs.
func NewRegistry(cs ...Converter) *Registry {
	r := &Registry{converters: map[string]Converter{}}
	for _, c := range cs {
		r.Register(c)
	}
	return r
}

// Register installs c under its name, replacing any previous converter.
func (r *Registry) Register(c Converter) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[c.Name()] = c
}

// Get returns the converter registered under name.
func (r *Registry) Get(name string) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[name]
	return c, ok
}

// Names lists registered converter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.converters))
	for n := range r.converters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
