package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/pkg/dispatch"
	"toolgate/pkg/history"
	"toolgate/pkg/permission"
	"toolgate/pkg/schema"
	"toolgate/pkg/tool"
)

func newServerFixture(t *testing.T) (*Server, *dispatch.Registry) {
	t.Helper()

	reg := dispatch.New(dispatch.Config{})
	err := reg.Register(tool.Definition{
		Name:         "echo",
		DisplayName:  "Echo",
		Description:  "Echoes its message back.",
		Aliases:      []string{"say"},
		Category:     tool.CategoryGeneral,
		Capabilities: []string{permission.CapFileRead},
		Parameters: []schema.ParamSpec{
			{Name: "message", Type: "string", Required: true},
		},
		Active: true,
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			return tool.Ok(params["message"].(string)), nil
		}),
	})
	require.NoError(t, err)

	err = reg.Register(tool.Definition{
		Name:         "locked",
		DisplayName:  "Locked",
		Description:  "Requires admin.",
		Category:     tool.CategoryGeneral,
		Capabilities: []string{permission.CapSystemExecute},
		Active:       true,
		Executor: tool.ExecutorFunc(func(ctx context.Context, params map[string]interface{}, callCtx *tool.CallContext) (*tool.Result, error) {
			return tool.Ok("unlocked"), nil
		}),
	})
	require.NoError(t, err)

	return NewServer(ServerConfig{Host: "127.0.0.1", Port: 0, Registry: reg}), reg
}

func postExecute(t *testing.T, ts *httptest.Server, body string) *tool.Call {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/execute", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var call tool.Call
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&call))
	return &call
}

func TestHandleExecute(t *testing.T) {
	s, _ := newServerFixture(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	t.Run("completed via alias", func(t *testing.T) {
		call := postExecute(t, ts, `{
			"tool": "say",
			"arguments": {"message": "hello"},
			"context": {"user_id": "u1", "permission_level": "basic"}
		}`)

		assert.Equal(t, tool.StatusCompleted, call.Status)
		assert.Equal(t, "echo", call.CanonicalName)
		assert.Equal(t, "hello", call.Result.Output)
	})

	t.Run("permission denial stays in the call", func(t *testing.T) {
		call := postExecute(t, ts, `{
			"tool": "locked",
			"arguments": {},
			"context": {"user_id": "u1", "permission_level": "basic"}
		}`)

		assert.Equal(t, tool.StatusFailed, call.Status)
		assert.Contains(t, call.Error, permission.CapSystemExecute)
	})

	t.Run("unknown level degrades to basic", func(t *testing.T) {
		call := postExecute(t, ts, `{
			"tool": "locked",
			"arguments": {},
			"context": {"user_id": "u1", "permission_level": "superuser"}
		}`)

		assert.Equal(t, tool.StatusFailed, call.Status)
	})

	t.Run("missing tool is a bad request", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/v1/execute", "application/json", bytes.NewBufferString(`{"arguments": {}}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get is rejected", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/execute")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHandleTools(t *testing.T) {
	s, _ := newServerFixture(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	type listing struct {
		Tools []struct {
			Name         string   `json:"name"`
			Capabilities []string `json:"capabilities"`
		} `json:"tools"`
	}

	t.Run("all tools", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/tools")
		require.NoError(t, err)
		defer resp.Body.Close()

		var out listing
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out.Tools, 2)
	})

	t.Run("filtered by level", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/tools?level=basic")
		require.NoError(t, err)
		defer resp.Body.Close()

		var out listing
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Tools, 1)
		assert.Equal(t, "echo", out.Tools[0].Name)
	})

	t.Run("bad level", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/tools?level=root")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleHistoryAndStats(t *testing.T) {
	s, _ := newServerFixture(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	postExecute(t, ts, `{
		"tool": "echo",
		"arguments": {"message": "a"},
		"context": {"user_id": "u1", "permission_level": "basic"}
	}`)
	postExecute(t, ts, `{
		"tool": "nosuch",
		"arguments": {},
		"context": {"user_id": "u2", "permission_level": "basic"}
	}`)

	t.Run("history lists both attempts", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/history")
		require.NoError(t, err)
		defer resp.Body.Close()

		var out struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, 2, out.Count)
	})

	t.Run("history filters by user", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/history?user=u2")
		require.NoError(t, err)
		defer resp.Body.Close()

		var out struct {
			Count   int             `json:"count"`
			Entries []history.Entry `json:"entries"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Equal(t, 1, out.Count)
		assert.Equal(t, "nosuch", out.Entries[0].Call.RequestedName)
	})

	t.Run("stats for one tool", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/stats?tool=echo")
		require.NoError(t, err)
		defer resp.Body.Close()

		var out struct {
			Total      int64 `json:"total"`
			Successful int64 `json:"successful"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, int64(1), out.Total)
		assert.Equal(t, int64(1), out.Successful)
	})

	t.Run("stats for unknown tool", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/v1/stats?tool=nosuch")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestEventsStream(t *testing.T) {
	s, _ := newServerFixture(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/v1/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Give the server a moment to register the client.
	time.Sleep(50 * time.Millisecond)

	postExecute(t, ts, `{
		"tool": "echo",
		"arguments": {"message": "ping"},
		"context": {"user_id": "u1", "permission_level": "basic"}
	}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var entry history.Entry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "echo", entry.Call.CanonicalName)
	assert.Equal(t, tool.StatusCompleted, entry.Call.Status)
}
