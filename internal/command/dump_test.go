package command

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const dumpSource = "[username]demo\n" +
	"[00.00.000]hi[space][mv 2 3]\n" +
	"[00.01.000][color ff8000][background 000000ff][color default]\n"

var dumpWant = dumpDocument{
	Name:     "demo",
	Duration: "00.01.000",
	Actions: []dumpAction{
		{Line: 2, At: "00.00.000", Kind: "print", Text: "hi"},
		{Line: 2, At: "00.00.000", Kind: "space"},
		{Line: 2, At: "00.00.000", Kind: "mv", Row: 2, Col: 3},
		{Line: 3, At: "00.01.000", Kind: "color", Color: "ff8000"},
		{Line: 3, At: "00.01.000", Kind: "background", Color: "000000ff"},
		{Line: 3, At: "00.01.000", Kind: "reset"},
	},
}

func TestDumpCommand_YAML(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", dumpSource)

	var stdout, stderr bytes.Buffer
	require.NoError(t, NewDumpCommand().Execute([]string{path}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "name: demo\n")

	var got dumpDocument
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, dumpWant, got)
}

func TestDumpCommand_JSON(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", dumpSource)
	cmd := NewDumpCommand()
	cmd.format = "json"

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute([]string{path}, &stdout, &stderr))
	var got dumpDocument
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, dumpWant, got)
}

func TestDumpCommand_Errors(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", dumpSource)

	var stdout, stderr bytes.Buffer
	cmd := NewDumpCommand()
	cmd.format = "xml"
	assert.EqualError(t, cmd.Execute([]string{path}, &stdout, &stderr), `unknown format "xml": expected yaml or json`)

	cmd.format = "yaml"
	assert.Error(t, cmd.Execute(nil, &stdout, &stderr))

	bad := writeScript(t, "bad.txt", "[username]demo\n[00.00.000][color red]\n")
	require.Error(t, cmd.Execute([]string{bad}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), bad+":2: error:")
	assert.Empty(t, stdout.String())
}
