package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ModuleConfig selects a registered implementation by name and carries its
// raw settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds an implementation of T. Env carries runtime collaborators
// that cannot come from configuration, such as loggers or other modules.
type Factory[E, T any] func(env E, conf map[string]any) (T, error)

// Registry stores factories keyed by module type.
type Registry[E, T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[E, T]
}

// NewRegistry returns an empty factory registry.
func NewRegistry[E, T any]() *Registry[E, T] {
	return &Registry[E, T]{factories: make(map[string]Factory[E, T])}
}

// Register adds a factory for the given type name.
func (r *Registry[E, T]) Register(name string, f Factory[E, T]) error {
	if f == nil {
		return fmt.Errorf("factory nil for %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("factory already registered for %s", name)
	}
	r.factories[name] = f
	return nil
}

// Names lists the registered type names in sorted order.
func (r *Registry[E, T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Create instantiates the module named by cfg.Type.
func (r *Registry[E, T]) Create(env E, cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown module type %s", cfg.Type)
	}
	return f(env, cfg.Conf)
}

// Decode fills out using json tags and rejects keys out does not declare.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
