package command

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand(t *testing.T) {
	t.Parallel()
	good := writeScript(t, "good.txt", "[username]demo\n[00.00.000]hi\n[00.02.500][newline]\n")
	warned := writeScript(t, "warned.txt", "[username]demo\n[00.00.000][mv 0 0]hi\n")
	broken := writeScript(t, "broken.txt", "[username]demo\n[00.01.000]a\n[00.00.500]b\n")

	var stdout, stderr bytes.Buffer
	cmd := NewCheckCommand()
	err := cmd.Execute([]string{good, warned, broken}, &stdout, &stderr)
	require.EqualError(t, err, "1 of 3 scripts failed")

	out := stdout.String()
	assert.Contains(t, out, good+`: ok ("demo", 2 actions, 00.02.500, 0 warnings)`)
	assert.Contains(t, out, warned+`: ok ("demo", 1 actions, 00.00.000, 1 warnings)`)
	assert.Contains(t, out, broken+": FAILED (0 warnings, line 3:")

	assert.Contains(t, stderr.String(), warned+`:2: warning: mv row and column must be positive integers, command ignored "[mv 0 0]"`)
	assert.Contains(t, stderr.String(), broken+":3: error:")
}

func TestCheckCommand_Strict(t *testing.T) {
	t.Parallel()
	warned := writeScript(t, "warned.txt", "[username]demo\n[00.00.000][size 80 24]hi\n")

	var stdout, stderr bytes.Buffer
	cmd := NewCheckCommand()
	cmd.strict = true
	require.EqualError(t, cmd.Execute([]string{warned}, &stdout, &stderr), "1 of 1 scripts failed")
	assert.Contains(t, stdout.String(), warned+`: FAILED ("demo", 1 actions, 00.00.000, 1 warnings)`)
}

func TestCheckCommand_Errors(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	cmd := NewCheckCommand()
	assert.Error(t, cmd.Execute(nil, &stdout, &stderr))

	require.Error(t, cmd.Execute([]string{"missing.txt"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "missing.txt: FAILED (")
}
