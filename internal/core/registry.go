package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Snapshot is one load of table data from a source.
type Snapshot struct {
	Rows     []Row
	Revision string // Changes whenever the source data changes
}

// LoadFunc fetches the current rows of a registered table.
type LoadFunc func(ctx context.Context) (Snapshot, error)

// TableDefinition describes a table that hosts can open.
type TableDefinition struct {
	Info    TableInfo
	Columns []Column
	Options Options
	Load    LoadFunc

	// Listener, if set, receives the changes of every table opened from
	// this definition, after the per-table listener.
	Listener ChangeListener
}

// NewTable opens a fresh Table for this definition, seeded from Load.
func (d TableDefinition) NewTable(ctx context.Context, cfg Config) (*Table, error) {
	snap, err := d.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", d.Info.Key, err)
	}
	cfg.Columns = d.Columns
	cfg.Options = d.Options
	if d.Listener != nil {
		cfg.Listener = Listeners{cfg.Listener, d.Listener}
	}
	cfg.Rows = snap.Rows
	cfg.Revision = snap.Revision
	return NewTable(cfg), nil
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Register adds a table definition to the registry.
// Returns ErrTableExists if the key is taken.
func Register(def TableDefinition) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		return fmt.Errorf("%w: %s", ErrTableExists, def.Info.Key)
	}
	if def.Load == nil {
		return fmt.Errorf("table %s: no loader", def.Info.Key)
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}

	registry[def.Info.Key] = def
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(def TableDefinition) {
	if err := Register(def); err != nil {
		panic(err)
	}
}

// Get returns a table definition by key.
// Returns false if not found.
func Get(key string) (TableDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered table definitions.
// Sorted by group then by key for consistent ordering.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all table definitions for a specific group.
func ByGroup(group string) []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []TableDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// TableCount returns the number of registered tables.
func TableCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered tables.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]TableDefinition)
}
