package command

import "strings"

// ActionType discriminates the four backend invocation shapes.
type ActionType string

const (
	ActionRemoteProcedure ActionType = "RemoteProcedure"
	ActionBoundOperation  ActionType = "BoundOperation"
	ActionQuery           ActionType = "Query"
	ActionWorkflowTrigger ActionType = "WorkflowTrigger"
)

// Valid reports whether t is one of the four known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionRemoteProcedure, ActionBoundOperation, ActionQuery, ActionWorkflowTrigger:
		return true
	}
	return false
}

// SelectionGroup places a command in one of the toolbar's button groups.
type SelectionGroup string

const (
	GroupPrimary   SelectionGroup = "primary"
	GroupSecondary SelectionGroup = "secondary"
	GroupOverflow  SelectionGroup = "overflow"
)

// RecordRef identifies one record in the grid.
type RecordRef struct {
	ID       string `json:"id"`
	TypeName string `json:"typeName"`
}

// ExecutionContext carries everything the host supplies for one invocation.
// The engine never mutates it.
type ExecutionContext struct {
	SelectedRecords []RecordRef
	RecordTypeName  string
	Capabilities    CapabilitySet
	ParentRecord    *RecordRef
	Refresh         func()
}

// CapabilitySet holds the permission flags held by the current context,
// e.g. "create", "read", "update", "delete".
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a set from a list of capability names.
func NewCapabilitySet(caps ...string) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		if c = strings.TrimSpace(c); c != "" {
			s[c] = struct{}{}
		}
	}
	return s
}

// Has reports whether the capability is held.
func (s CapabilitySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAll reports whether every listed capability is held.
func (s CapabilitySet) HasAll(caps []string) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Descriptor is the materialized, declarative specification of one custom
// command. It is data only; execution happens in the dispatcher.
type Descriptor struct {
	Label               string         `json:"label"`
	IconName            string         `json:"iconName,omitempty"`
	ActionType          ActionType     `json:"actionType"`
	Target              string         `json:"target"`
	RequiresSelection   bool           `json:"requiresSelection"`
	SelectionGroup      SelectionGroup `json:"selectionGroup"`
	Parameters          map[string]any `json:"parameters,omitempty"`
	MinSelection        int            `json:"minSelection,omitempty"` // 0 = no lower bound
	MaxSelection        int            `json:"maxSelection,omitempty"` // 0 = no upper bound
	MultiSelect         bool           `json:"multiSelect"`
	RefreshAfter        bool           `json:"refreshAfter"`
	SuccessMessage      string         `json:"successMessage,omitempty"`
	ConfirmationMessage string         `json:"confirmationMessage,omitempty"`
	KeyShortcut         string         `json:"keyShortcut,omitempty"`
}
