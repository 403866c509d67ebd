// Package resolver combines the catalog and the configuration store into
// the ordered list of commands available for a record type.
package resolver

import (
	"context"
	"strings"

	"github.com/gyaneshwarpardhi/gridcmd/internal/catalog"
	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
	"github.com/gyaneshwarpardhi/gridcmd/internal/metrics"
)

// Command is the resolved, invocable form of a built-in or custom command.
// Instances are built fresh on every Resolve call and owned by the caller
// for one render cycle.
type Command struct {
	Key         string
	Label       string
	IconName    string
	Group       command.SelectionGroup
	KeyShortcut string
	Enabled     bool

	RequiresSelection   bool
	MultiSelect         bool
	MinSelection        int
	MaxSelection        int
	RefreshAfter        bool
	SuccessMessage      string
	ConfirmationMessage string

	// Exactly one of the two is set: Run for built-ins, Descriptor for
	// dispatch-backed custom commands.
	Run        func(ctx context.Context, ec *command.ExecutionContext) error
	Descriptor *command.Descriptor
}

// Resolver produces command lists from the store and the catalog.
type Resolver struct {
	store   *config.Store
	catalog *catalog.Catalog
}

// New creates a Resolver.
func New(store *config.Store, cat *catalog.Catalog) *Resolver {
	return &Resolver{store: store, catalog: cat}
}

// Resolve returns the commands enabled for the record type, in document
// order, filtered by the capability set. Keys that resolve to neither a
// built-in nor a custom command are skipped silently; a built-in always wins
// over a custom command sharing its key.
func (r *Resolver) Resolve(recordTypeName string, caps command.CapabilitySet) []*Command {
	rc := r.store.Resolve(recordTypeName)
	metrics.CommandsResolved.WithLabelValues(strings.ToLower(recordTypeName)).Inc()

	out := make([]*Command, 0, len(rc.EnabledCommandKeys))
	for _, key := range rc.EnabledCommandKeys {
		lk := strings.ToLower(key)
		if b := r.catalog.Get(lk); b != nil {
			if !caps.HasAll(b.Capabilities) {
				continue
			}
			out = append(out, fromBuiltIn(lk, b))
			continue
		}
		desc, ok := rc.CustomCommands[lk]
		if !ok {
			continue
		}
		if !caps.HasAll(requiredFor(desc.ActionType)) {
			continue
		}
		out = append(out, fromDescriptor(lk, desc))
	}
	return out
}

// requiredFor derives the capability a custom command needs from its action
// semantics: reads need "read", everything else mutates records.
func requiredFor(t command.ActionType) []string {
	if t == command.ActionQuery {
		return []string{"read"}
	}
	return []string{"update"}
}

func fromBuiltIn(key string, b *catalog.BuiltIn) *Command {
	return &Command{
		Key:                 key,
		Label:               b.Label,
		IconName:            b.IconName,
		Group:               b.Group,
		KeyShortcut:         b.KeyShortcut,
		Enabled:             true,
		RequiresSelection:   b.RequiresSelection,
		MultiSelect:         b.MultiSelect,
		MinSelection:        b.MinSelection,
		MaxSelection:        b.MaxSelection,
		RefreshAfter:        b.RefreshAfter,
		SuccessMessage:      b.SuccessMessage,
		ConfirmationMessage: b.ConfirmationMessage,
		Run:                 b.Run,
	}
}

func fromDescriptor(key string, desc command.Descriptor) *Command {
	d := desc
	return &Command{
		Key:                 key,
		Label:               d.Label,
		IconName:            d.IconName,
		Group:               d.SelectionGroup,
		KeyShortcut:         d.KeyShortcut,
		Enabled:             true,
		RequiresSelection:   d.RequiresSelection,
		MultiSelect:         d.MultiSelect,
		MinSelection:        d.MinSelection,
		MaxSelection:        d.MaxSelection,
		RefreshAfter:        d.RefreshAfter,
		SuccessMessage:      d.SuccessMessage,
		ConfirmationMessage: d.ConfirmationMessage,
		Descriptor:          &d,
	}
}
