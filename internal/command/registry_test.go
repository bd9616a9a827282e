package command

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommand struct {
	*BaseCommand
	got []string
}

func newStubCommand(name string) *stubCommand {
	return &stubCommand{BaseCommand: NewBaseCommand(name, name+" description", name+" [args]")}
}

func (c *stubCommand) Execute(args []string, stdout, stderr io.Writer) error {
	c.got = args
	return nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register(newStubCommand("zeta"))
	r.Register(newStubCommand("alpha"))

	cmd, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", cmd.Name())
	assert.Equal(t, "alpha description", cmd.Description())
	assert.Equal(t, "alpha [args]", cmd.Usage())

	assert.True(t, r.Has("zeta"))
	assert.False(t, r.Has("demo.txt"))

	_, err = r.Get("missing")
	assert.EqualError(t, err, "command not found: missing")

	assert.Equal(t, []string{"alpha", "zeta"}, r.ListBuiltin())

	replacement := newStubCommand("alpha")
	r.Register(replacement)
	cmd, err = r.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, replacement, cmd)
}
