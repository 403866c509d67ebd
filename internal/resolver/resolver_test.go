package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/gridcmd/internal/catalog"
	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
	"github.com/gyaneshwarpardhi/gridcmd/internal/resolver"
)

type nopBackend struct{}

func (nopBackend) CallProcedure(context.Context, string, map[string]any) error { return nil }
func (nopBackend) ExecuteBound(context.Context, string, command.RecordRef, map[string]any) error {
	return nil
}
func (nopBackend) RunQuery(context.Context, string) error                  { return nil }
func (nopBackend) TriggerWorkflow(context.Context, string, map[string]any) error { return nil }

func newResolver(t *testing.T, doc string) *resolver.Resolver {
	t.Helper()
	store := config.NewStore()
	store.Load([]byte(doc))
	return resolver.New(store, catalog.New(nopBackend{}))
}

func keys(cmds []*resolver.Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Key
	}
	return out
}

const accountDoc = `{
  "schemaVersion": "1.0",
  "defaultConfig": {"enabledCommandKeys": ["open", "refresh"]},
  "typeConfigs": {
    "account": {
      "enabledCommandKeys": ["open", "refresh", "archive"],
      "customCommands": {
        "archive": {
          "label": "Archive",
          "actionType": "RemoteProcedure",
          "target": "ArchiveAccount",
          "requiresSelection": true,
          "minSelection": 1
        }
      }
    }
  }
}`

func TestResolve_EndToEnd(t *testing.T) {
	r := newResolver(t, accountDoc)

	// With read only, archive (a mutating remote procedure) is filtered out.
	got := r.Resolve("account", command.NewCapabilitySet("read"))
	assert.Equal(t, []string{"open", "refresh"}, keys(got))

	// With update held, archive survives.
	got = r.Resolve("account", command.NewCapabilitySet("read", "update"))
	assert.Equal(t, []string{"open", "refresh", "archive"}, keys(got))

	// Other record types see the document default list.
	got = r.Resolve("contact", command.NewCapabilitySet("read"))
	assert.Equal(t, []string{"open", "refresh"}, keys(got))
}

func TestResolve_OrderPreserved(t *testing.T) {
	doc := `{
	  "schemaVersion": "1.0",
	  "typeConfigs": {
	    "task": {"enabledCommandKeys": ["refresh", "delete", "open", "create"]}
	  }
	}`
	r := newResolver(t, doc)
	got := r.Resolve("task", command.NewCapabilitySet("create", "read", "update", "delete"))
	assert.Equal(t, []string{"refresh", "delete", "open", "create"}, keys(got))
}

func TestResolve_UnknownKeysSkippedSilently(t *testing.T) {
	doc := `{
	  "schemaVersion": "1.0",
	  "typeConfigs": {
	    "task": {"enabledCommandKeys": ["open", "doesnotexist", "refresh"]}
	  }
	}`
	r := newResolver(t, doc)
	got := r.Resolve("task", command.NewCapabilitySet("read"))
	assert.Equal(t, []string{"open", "refresh"}, keys(got))
}

func TestResolve_BuiltInWinsOverCustom(t *testing.T) {
	doc := `{
	  "schemaVersion": "1.0",
	  "typeConfigs": {
	    "task": {
	      "enabledCommandKeys": ["delete"],
	      "customCommands": {
	        "delete": {
	          "label": "Custom delete",
	          "actionType": "RemoteProcedure",
	          "target": "CustomDelete"
	        }
	      }
	    }
	  }
	}`
	r := newResolver(t, doc)
	got := r.Resolve("task", command.NewCapabilitySet("delete", "update"))
	require.Len(t, got, 1)
	assert.Equal(t, "Delete", got[0].Label, "the built-in must shadow the custom command")
	assert.NotNil(t, got[0].Run)
	assert.Nil(t, got[0].Descriptor)
}

func TestResolve_CapabilityFilterOnBuiltIns(t *testing.T) {
	r := newResolver(t, `{"schemaVersion":"1.0"}`)

	got := r.Resolve("account", command.NewCapabilitySet("read"))
	assert.Equal(t, []string{"open", "refresh"}, keys(got), "create and delete need unheld capabilities")

	got = r.Resolve("account", command.NewCapabilitySet("create", "read", "delete"))
	assert.Equal(t, []string{"create", "open", "delete", "refresh"}, keys(got))
}

func TestResolve_QueryCommandsNeedRead(t *testing.T) {
	doc := `{
	  "schemaVersion": "1.0",
	  "typeConfigs": {
	    "report": {
	      "enabledCommandKeys": ["export"],
	      "customCommands": {
	        "export": {"label": "Export", "actionType": "Query", "target": "reports"}
	      }
	    }
	  }
	}`
	r := newResolver(t, doc)
	assert.Empty(t, r.Resolve("report", command.NewCapabilitySet("update")))
	assert.Equal(t, []string{"export"}, keys(r.Resolve("report", command.NewCapabilitySet("read"))))
}

func TestResolve_FreshInstancesPerCall(t *testing.T) {
	r := newResolver(t, accountDoc)
	caps := command.NewCapabilitySet("read", "update")
	a := r.Resolve("account", caps)
	b := r.Resolve("account", caps)
	require.Equal(t, keys(a), keys(b))
	for i := range a {
		assert.NotSame(t, a[i], b[i], "resolved commands are created fresh on every call")
	}
}

func TestResolve_CustomCommandMetadata(t *testing.T) {
	r := newResolver(t, accountDoc)
	got := r.Resolve("account", command.NewCapabilitySet("update"))
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, "archive", c.Key)
	assert.True(t, c.RequiresSelection)
	assert.Equal(t, 1, c.MinSelection)
	assert.True(t, c.Enabled)
	require.NotNil(t, c.Descriptor)
	assert.Equal(t, command.ActionRemoteProcedure, c.Descriptor.ActionType)
}
