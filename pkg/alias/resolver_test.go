package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_ResolveAliasAndCanonical(t *testing.T) {
	r := NewResolver()
	r.Register("file-reader", "File Reader", []string{"Read", "read_file"})

	c, ok := r.Resolve("Read")
	assert.True(t, ok)
	assert.Equal(t, "file-reader", c)

	c, ok = r.Resolve("read_file")
	assert.True(t, ok)
	assert.Equal(t, "file-reader", c)

	// Canonical ids are valid aliases of themselves.
	c, ok = r.Resolve("file-reader")
	assert.True(t, ok)
	assert.Equal(t, "file-reader", c)
}

func TestResolver_UnknownName(t *testing.T) {
	r := NewResolver()

	_, ok := r.Resolve("nonexistent-tool")
	assert.False(t, ok)
}

func TestResolver_ManyAliasesOneTool(t *testing.T) {
	r := NewResolver()
	r.Register("command-executor", "Command Executor", []string{"Bash", "Shell", "exec", "run_command"})

	for _, name := range []string{"Bash", "Shell", "exec", "run_command"} {
		c, ok := r.Resolve(name)
		assert.True(t, ok, name)
		assert.Equal(t, "command-executor", c)
	}
	assert.ElementsMatch(t, []string{"Bash", "Shell", "exec", "run_command"}, r.Aliases("command-executor"))
}

func TestResolver_DisplayName(t *testing.T) {
	r := NewResolver()
	r.Register("file-reader", "File Reader", []string{"Read"})

	assert.Equal(t, "File Reader", r.DisplayName("Read"))
	assert.Equal(t, "File Reader", r.DisplayName("file-reader"))

	// Unmapped names fall back to the original string.
	assert.Equal(t, "mystery", r.DisplayName("mystery"))
}

func TestResolver_Unregister(t *testing.T) {
	r := NewResolver()
	r.Register("file-reader", "File Reader", []string{"Read", "read_file"})
	r.Unregister("file-reader")

	_, ok := r.Resolve("Read")
	assert.False(t, ok)
	_, ok = r.Resolve("file-reader")
	assert.False(t, ok)
}

func TestResolver_AliasRebound(t *testing.T) {
	r := NewResolver()
	r.Register("old-tool", "Old", []string{"run"})
	r.Register("new-tool", "New", []string{"run"})

	c, ok := r.Resolve("run")
	assert.True(t, ok)
	assert.Equal(t, "new-tool", c)
}
