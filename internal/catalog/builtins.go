package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
)

func builtins(be dispatch.Backend) []*BuiltIn {
	return []*BuiltIn{
		{
			Key:          "create",
			Label:        "New",
			IconName:     "Add",
			Group:        command.GroupPrimary,
			KeyShortcut:  "Ctrl+N",
			MultiSelect:  true,
			Capabilities: []string{"create"},
			RefreshAfter: true,
			Run: func(ctx context.Context, ec *command.ExecutionContext) error {
				params := map[string]any{"recordTypeName": ec.RecordTypeName}
				if ec.ParentRecord != nil {
					params["parentRecordId"] = ec.ParentRecord.ID
					params["parentTypeName"] = ec.ParentRecord.TypeName
				}
				return be.CallProcedure(ctx, "CreateRecord", params)
			},
		},
		{
			Key:               "open",
			Label:             "Open",
			IconName:          "OpenFile",
			Group:             command.GroupPrimary,
			KeyShortcut:       "Enter",
			RequiresSelection: true,
			MultiSelect:       false,
			Capabilities:      []string{"read"},
			Run: func(ctx context.Context, ec *command.ExecutionContext) error {
				rec := ec.SelectedRecords[0]
				q := fmt.Sprintf("%s?id=%s", url.PathEscape(rec.TypeName), url.QueryEscape(rec.ID))
				return be.RunQuery(ctx, q)
			},
		},
		{
			Key:                 "delete",
			Label:               "Delete",
			IconName:            "Delete",
			Group:               command.GroupSecondary,
			KeyShortcut:         "Del",
			RequiresSelection:   true,
			MultiSelect:         true,
			Capabilities:        []string{"delete"},
			RefreshAfter:        true,
			ConfirmationMessage: "Delete {selectedCount} selected record(s)?",
			SuccessMessage:      "{selectedCount} record(s) deleted",
			Run: func(ctx context.Context, ec *command.ExecutionContext) error {
				// Sequential in selection order, first failure halts the rest.
				for _, rec := range ec.SelectedRecords {
					if err := be.ExecuteBound(ctx, "delete", rec, nil); err != nil {
						return fmt.Errorf("delete record %s: %w", rec.ID, err)
					}
				}
				return nil
			},
		},
		{
			Key:          "refresh",
			Label:        "Refresh",
			IconName:     "Refresh",
			Group:        command.GroupSecondary,
			KeyShortcut:  "F5",
			MultiSelect:  true,
			Capabilities: []string{"read"},
			Run: func(ctx context.Context, ec *command.ExecutionContext) error {
				if ec.Refresh != nil {
					ec.Refresh()
				}
				return nil
			},
		},
		{
			Key:            "upload",
			Label:          "Upload",
			IconName:       "Upload",
			Group:          command.GroupOverflow,
			MultiSelect:    true,
			Capabilities:   []string{"create"},
			RefreshAfter:   true,
			SuccessMessage: "Upload complete",
			Run: func(ctx context.Context, ec *command.ExecutionContext) error {
				params := map[string]any{"recordTypeName": ec.RecordTypeName}
				if ec.ParentRecord != nil {
					params["parentRecordId"] = ec.ParentRecord.ID
				}
				return be.CallProcedure(ctx, "UploadAttachment", params)
			},
		},
	}
}
