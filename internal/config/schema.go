package config

import (
	"fmt"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
)

// SchemaVersion is the single command-document version this engine accepts.
const SchemaVersion = "1.0"

// Document is the top-level command-document structure.
type Document struct {
	SchemaVersion string                `json:"schemaVersion"`
	DefaultConfig TypeConfig            `json:"defaultConfig"`
	TypeConfigs   map[string]TypeConfig `json:"typeConfigs"`
}

// TypeConfig configures the toolbar for one record type. All fields are
// optional; absent fields fall back to the next merge layer.
type TypeConfig struct {
	EnabledCommandKeys []string                  `json:"enabledCommandKeys"`
	ViewHint           string                    `json:"viewHint"`
	ToolbarDensity     string                    `json:"toolbarDensity"`
	CustomCommands     map[string]DescriptorConf `json:"customCommands"`
}

// DescriptorConf is the on-the-wire form of an action descriptor. Every
// field is a pointer so that a type-level entry can override a document-level
// entry field by field: only fields actually present in the JSON win.
type DescriptorConf struct {
	Label               *string        `json:"label"`
	IconName            *string        `json:"iconName"`
	ActionType          *string        `json:"actionType"`
	Target              *string        `json:"target"`
	RequiresSelection   *bool          `json:"requiresSelection"`
	SelectionGroup      *string        `json:"selectionGroup"`
	Parameters          map[string]any `json:"parameters"`
	MinSelection        *int           `json:"minSelection"`
	MaxSelection        *int           `json:"maxSelection"`
	MultiSelect         *bool          `json:"multiSelect"`
	RefreshAfter        *bool          `json:"refreshAfter"`
	SuccessMessage      *string        `json:"successMessage"`
	ConfirmationMessage *string        `json:"confirmationMessage"`
	KeyShortcut         *string        `json:"keyShortcut"`
}

// merge overlays over on top of d, field by field. Parameters merge as a
// key union with over winning on shared keys.
func (d DescriptorConf) merge(over DescriptorConf) DescriptorConf {
	out := d
	if over.Label != nil {
		out.Label = over.Label
	}
	if over.IconName != nil {
		out.IconName = over.IconName
	}
	if over.ActionType != nil {
		out.ActionType = over.ActionType
	}
	if over.Target != nil {
		out.Target = over.Target
	}
	if over.RequiresSelection != nil {
		out.RequiresSelection = over.RequiresSelection
	}
	if over.SelectionGroup != nil {
		out.SelectionGroup = over.SelectionGroup
	}
	if len(over.Parameters) > 0 {
		merged := make(map[string]any, len(d.Parameters)+len(over.Parameters))
		for k, v := range d.Parameters {
			merged[k] = v
		}
		for k, v := range over.Parameters {
			merged[k] = v
		}
		out.Parameters = merged
	}
	if over.MinSelection != nil {
		out.MinSelection = over.MinSelection
	}
	if over.MaxSelection != nil {
		out.MaxSelection = over.MaxSelection
	}
	if over.MultiSelect != nil {
		out.MultiSelect = over.MultiSelect
	}
	if over.RefreshAfter != nil {
		out.RefreshAfter = over.RefreshAfter
	}
	if over.SuccessMessage != nil {
		out.SuccessMessage = over.SuccessMessage
	}
	if over.ConfirmationMessage != nil {
		out.ConfirmationMessage = over.ConfirmationMessage
	}
	if over.KeyShortcut != nil {
		out.KeyShortcut = over.KeyShortcut
	}
	return out
}

// materialize turns a merged conf into an executable descriptor, applying
// defaults and checking the required fields.
func (d DescriptorConf) materialize(key string) (command.Descriptor, error) {
	var zero command.Descriptor
	if d.Label == nil || *d.Label == "" {
		return zero, fmt.Errorf("custom command %q: label is required", key)
	}
	if d.ActionType == nil {
		return zero, fmt.Errorf("custom command %q: actionType is required", key)
	}
	at := command.ActionType(*d.ActionType)
	if !at.Valid() {
		return zero, fmt.Errorf("custom command %q: unknown actionType %q", key, *d.ActionType)
	}
	if d.Target == nil || *d.Target == "" {
		return zero, fmt.Errorf("custom command %q: target is required", key)
	}

	out := command.Descriptor{
		Label:          *d.Label,
		ActionType:     at,
		Target:         *d.Target,
		SelectionGroup: command.GroupOverflow,
		MultiSelect:    true,
		Parameters:     d.Parameters,
	}
	if d.IconName != nil {
		out.IconName = *d.IconName
	}
	if d.RequiresSelection != nil {
		out.RequiresSelection = *d.RequiresSelection
	}
	if d.SelectionGroup != nil {
		switch g := command.SelectionGroup(*d.SelectionGroup); g {
		case command.GroupPrimary, command.GroupSecondary, command.GroupOverflow:
			out.SelectionGroup = g
		default:
			return zero, fmt.Errorf("custom command %q: unknown selectionGroup %q", key, *d.SelectionGroup)
		}
	}
	if d.MinSelection != nil {
		out.MinSelection = *d.MinSelection
	}
	if d.MaxSelection != nil {
		out.MaxSelection = *d.MaxSelection
	}
	if out.MinSelection > 0 && out.MaxSelection > 0 && out.MinSelection > out.MaxSelection {
		return zero, fmt.Errorf("custom command %q: minSelection %d > maxSelection %d", key, out.MinSelection, out.MaxSelection)
	}
	if d.MultiSelect != nil {
		out.MultiSelect = *d.MultiSelect
	}
	if d.RefreshAfter != nil {
		out.RefreshAfter = *d.RefreshAfter
	}
	if d.SuccessMessage != nil {
		out.SuccessMessage = *d.SuccessMessage
	}
	if d.ConfirmationMessage != nil {
		out.ConfirmationMessage = *d.ConfirmationMessage
	}
	if d.KeyShortcut != nil {
		out.KeyShortcut = *d.KeyShortcut
	}
	return out, nil
}
