package stack

import (
	"fmt"
	"sort"
	"sync"
)

// Definition declares the constructs of a stack.
type Definition func(s *Stack) error

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Definition)
)

// Register makes a stack definition available by name. It panics if the name
// is empty or already registered, like database/sql.Register.
func Register(name string, def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || def == nil {
		panic("stack: Register called with empty name or nil definition")
	}
	if _, exists := registry[name]; exists {
		panic("stack: Register called twice for " + name)
	}
	registry[name] = def
}

// Lookup returns the definition registered under name.
func Lookup(name string) (Definition, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStack, name)
	}
	return def, nil
}

// Names returns the registered stack names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build looks up a definition and runs it against a new stack.
func Build(name string, opts ...Option) (*Stack, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	s := New(name, opts...)
	if err := def(s); err != nil {
		return nil, fmt.Errorf("stack %s: %w", name, err)
	}
	return s, nil
}
