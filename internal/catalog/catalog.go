// Package catalog holds the fixed table of built-in commands.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
)

// BuiltIn is one compiled-in command: display metadata, invocation
// constraints, required capabilities and the handler itself.
type BuiltIn struct {
	Key                 string
	Label               string
	IconName            string
	Group               command.SelectionGroup
	KeyShortcut         string
	RequiresSelection   bool
	MultiSelect         bool
	MinSelection        int
	MaxSelection        int
	RefreshAfter        bool
	SuccessMessage      string
	ConfirmationMessage string
	Capabilities        []string

	Run func(ctx context.Context, ec *command.ExecutionContext) error
}

// Catalog is the fixed, case-insensitive lookup table of built-ins.
type Catalog struct {
	commands map[string]*BuiltIn
}

// New builds the catalog. Handlers close over the backend adapter so they
// go through the same host surface as dispatched custom commands.
func New(be dispatch.Backend) *Catalog {
	c := &Catalog{commands: make(map[string]*BuiltIn)}
	for _, b := range builtins(be) {
		c.commands[strings.ToLower(b.Key)] = b
	}
	return c
}

// Get returns the built-in for key, matched case-insensitively, or nil.
func (c *Catalog) Get(key string) *BuiltIn {
	return c.commands[strings.ToLower(key)]
}

// GetMany returns the built-ins for the given keys in order, silently
// skipping keys that are not in the table.
func (c *Catalog) GetMany(keys []string) []*BuiltIn {
	out := make([]*BuiltIn, 0, len(keys))
	for _, k := range keys {
		if b := c.Get(k); b != nil {
			out = append(out, b)
		}
	}
	return out
}

// Keys returns all built-in keys, sorted.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.commands))
	for k := range c.commands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
