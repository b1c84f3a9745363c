package jobx

import (
	"context"
	"sync"
)

// Handler executes one job function.
type Handler interface {
	Execute(ctx context.Context, args []string, kwargs map[string]string) (string, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, args []string, kwargs map[string]string) (string, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, args []string, kwargs map[string]string) (string, error) {
	return f(ctx, args, kwargs)
}

// Registry maps function identifiers to handlers. Dispatch is by exact match;
// unregistered identifiers fail fast at execution time.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for a function identifier. Duplicate registrations
// are rejected so that two handlers can never race for one function name.
func (r *Registry) Register(function string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[function]; exists {
		return jobErrors.New(ErrDuplicateHandler).WithDetail("function", function)
	}
	r.handlers[function] = h
	return nil
}

// Lookup returns the handler for a function identifier.
func (r *Registry) Lookup(function string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[function]
	return h, ok
}

// Functions returns the registered identifiers.
func (r *Registry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	return out
}
