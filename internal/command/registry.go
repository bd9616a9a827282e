package command

import (
	"fmt"
	"sort"
)

// Registry holds the available commands by name.
type Registry struct {
	commands map[string]Command
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd, replacing any command of the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get returns the command called name.
func (r *Registry) Get(name string) (Command, error) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, nil
	}
	return nil, fmt.Errorf("command not found: %s", name)
}

// Has reports whether a command called name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// ListBuiltin returns the sorted command names.
func (r *Registry) ListBuiltin() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
