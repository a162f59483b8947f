package scheduler

import (
	"fmt"
	"sync"
)

// HandlerFunc is a job callback. Arguments round-trip through JSON, so
// handlers see strings and float64 numbers.
type HandlerFunc func(args ...any) error

type handlerRegistry struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: make(map[string]HandlerFunc),
	}
}

func (h *handlerRegistry) register(name string, fn HandlerFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.handlers[name]; exists {
		return fmt.Errorf("handler '%s' already registered", name)
	}
	h.handlers[name] = fn
	return nil
}

func (h *handlerRegistry) get(name string) (HandlerFunc, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn, exists := h.handlers[name]
	if !exists {
		return nil, fmt.Errorf("handler not found: %s", name)
	}
	return fn, nil
}

func (h *handlerRegistry) list() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	return names
}
