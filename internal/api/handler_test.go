package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/gridcmd/internal/api"
	"github.com/gyaneshwarpardhi/gridcmd/internal/catalog"
	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
	"github.com/gyaneshwarpardhi/gridcmd/internal/executor"
	"github.com/gyaneshwarpardhi/gridcmd/internal/resolver"
)

type recordingBackend struct {
	calls int
	err   error
}

func (b *recordingBackend) CallProcedure(context.Context, string, map[string]any) error {
	b.calls++
	return b.err
}

func (b *recordingBackend) ExecuteBound(context.Context, string, command.RecordRef, map[string]any) error {
	b.calls++
	return b.err
}

func (b *recordingBackend) RunQuery(context.Context, string) error { b.calls++; return b.err }

func (b *recordingBackend) TriggerWorkflow(context.Context, string, map[string]any) error {
	b.calls++
	return b.err
}

const testDoc = `{
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
          "confirmationMessage": "Archive {selectedCount} account(s)?"
        }
      }
    }
  }
}`

func newHandler(t *testing.T, be dispatch.Backend) http.Handler {
	t.Helper()
	store := config.NewStore()
	store.Load([]byte(testDoc))
	cat := catalog.New(be)
	res := resolver.New(store, cat)
	exec := executor.New(dispatch.New(be), nil)
	return api.New(store, nil, cat, res, exec)
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestListCommands(t *testing.T) {
	h := newHandler(t, &recordingBackend{})
	w, body := doJSON(t, h, http.MethodGet, "/v1/commands?recordType=Account&capabilities=read,update", "")
	require.Equal(t, http.StatusOK, w.Code)

	cmds := body["commands"].([]any)
	var got []string
	for _, c := range cmds {
		got = append(got, c.(map[string]any)["key"].(string))
	}
	assert.Equal(t, []string{"open", "refresh", "archive"}, got)
	assert.Equal(t, "grid", body["viewHint"])
}

func TestListCommands_MissingRecordType(t *testing.T) {
	h := newHandler(t, &recordingBackend{})
	w, _ := doJSON(t, h, http.MethodGet, "/v1/commands", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecute_UnknownCommand(t *testing.T) {
	h := newHandler(t, &recordingBackend{})
	w, body := doJSON(t, h, http.MethodPost, "/v1/commands/teleport/execute",
		`{"recordTypeName":"account","capabilities":["read","update"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "create, delete, open, refresh, upload")
}

func TestExecute_ValidationFailureMapsTo422(t *testing.T) {
	be := &recordingBackend{}
	h := newHandler(t, be)
	// archive requires a selection; none supplied.
	w, _ := doJSON(t, h, http.MethodPost, "/v1/commands/archive/execute",
		`{"recordTypeName":"account","capabilities":["update"],"confirmed":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, be.calls)
}

func TestExecute_InvalidInvocationGetsNoConfirmationPrompt(t *testing.T) {
	be := &recordingBackend{}
	h := newHandler(t, be)
	// Unconfirmed and invalid: the arity failure wins over the prompt.
	w, body := doJSON(t, h, http.MethodPost, "/v1/commands/archive/execute",
		`{"recordTypeName":"account","capabilities":["update"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotContains(t, body, "confirmationRequired")
	assert.Zero(t, be.calls)
}

func TestExecute_ConfirmationRoundTrip(t *testing.T) {
	be := &recordingBackend{}
	h := newHandler(t, be)
	reqBody := `{
	  "recordTypeName": "account",
	  "capabilities": ["update"],
	  "selectedRecords": [{"id":"a1","typeName":"account"},{"id":"a2","typeName":"account"}]
	}`

	// First call: not confirmed, nothing executes.
	w, body := doJSON(t, h, http.MethodPost, "/v1/commands/archive/execute", reqBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["executed"])
	assert.Equal(t, "Archive 2 account(s)?", body["confirmationRequired"])
	assert.Zero(t, be.calls)

	// Second call: confirmed.
	confirmed := strings.Replace(reqBody, `"capabilities"`, `"confirmed": true, "capabilities"`, 1)
	w, body = doJSON(t, h, http.MethodPost, "/v1/commands/archive/execute", confirmed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["executed"])
	assert.Equal(t, 1, be.calls, "a remote procedure dispatches once regardless of selection size")
}

func TestExecute_BackendFailureMapsTo502(t *testing.T) {
	be := &recordingBackend{err: assert.AnError}
	h := newHandler(t, be)
	w, _ := doJSON(t, h, http.MethodPost, "/v1/commands/archive/execute",
		`{"recordTypeName":"account","capabilities":["update"],"confirmed":true,
		  "selectedRecords":[{"id":"a1","typeName":"account"}]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthz(t *testing.T) {
	h := newHandler(t, &recordingBackend{})
	w, body := doJSON(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}
