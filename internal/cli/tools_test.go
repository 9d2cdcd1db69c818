package cli

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/config"
)

// pointCLIAt writes a config file targeting the given test server and
// makes the package-level --config flag use it for the duration of the test.
func pointCLIAt(t *testing.T, ts *httptest.Server) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(ts.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Server.Host = host
	cfg.Server.Port = port

	path := filepath.Join(t.TempDir(), "toolgate.json")
	require.NoError(t, config.NewLoader(path).Save(cfg))

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
}

func TestToolsCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/tools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"file-reader","aliases":["Read","read_file"],"category":"filesystem","capabilities":["file:read"],"active":true},
			{"name":"command-executor","category":"system","capabilities":["system:execute"],"active":false}
		]`))
	}))
	defer ts.Close()
	pointCLIAt(t, ts)

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"tools"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)

	err := cmd.Execute()
	require.NoError(t, err)

	out := output.String()
	assert.Contains(t, out, "file-reader")
	assert.Contains(t, out, "aliases: Read, read_file")
	assert.Contains(t, out, "command-executor (disabled)")
}

func TestToolsCommandLevelFilter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "basic", r.URL.Query().Get("level"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()
	pointCLIAt(t, ts)

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"tools", "--level", "basic"})

	output := &bytes.Buffer{}
	cmd.SetOut(output)

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, output.String(), "No tools registered")
}

func TestStatsCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("tool") == "file-reader" {
			w.Write([]byte(`{"total":3,"successful":2,"failed":1,"total_cost":0,"average_execution_time":1500000}`))
			return
		}
		w.Write([]byte(`{"file-reader":{"total":3,"successful":2,"failed":1,"total_cost":0,"average_execution_time":1500000}}`))
	}))
	defer ts.Close()
	pointCLIAt(t, ts)

	t.Run("single tool", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"stats", "file-reader"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)

		out := output.String()
		assert.Contains(t, out, "file-reader")
		assert.Contains(t, out, "total: 3  successful: 2  failed: 1")
	})

	t.Run("all tools", func(t *testing.T) {
		cmd := GetRootCmd()
		cmd.SetArgs([]string{"stats"})

		output := &bytes.Buffer{}
		cmd.SetOut(output)

		err := cmd.Execute()
		require.NoError(t, err)
		assert.Contains(t, output.String(), "file-reader")
	})
}

func TestStatsCommandDaemonDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	pointCLIAt(t, ts)
	ts.Close()

	cmd := GetRootCmd()
	cmd.SetArgs([]string{"stats"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon unreachable")
}
