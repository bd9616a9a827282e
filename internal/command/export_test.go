package command

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/cliplay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportSource = "[username]demo\n[00.00.000]hello world\n[00.00.020][newline]\n"

func newTestExport(cfg *config.Config, cols, rows int, sizeErr error) *ExportCommand {
	cmd := NewExportCommand(cfg)
	cmd.termSize = func() (int, int, error) { return cols, rows, sizeErr }
	cmd.now = func() time.Time { return time.Unix(1700000000, 0) }
	return cmd
}

func TestExportCommand_Stdout(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", exportSource)
	cmd := newTestExport(nil, 120, 40, nil)

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute([]string{path}, &stdout, &stderr))
	assert.Equal(t,
		`{"version":2,"width":120,"height":40,"timestamp":1700000000,"title":"demo","env":{"TERM":"xterm-256color"}}`+"\n"+
			`[0,"o","\u001b[2J\u001b[1;1H\u001b[0mdemo> hello world"]`+"\n"+
			`[0.02,"o","\ndemo> \u001b[0m"]`+"\n",
		stdout.String())
}

func TestExportCommand_NoClear(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", exportSource)
	cmd := newTestExport(nil, 80, 24, nil)
	cmd.noClear = true

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute([]string{path}, &stdout, &stderr))
	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `[0,"o","hello world"]`, lines[1])
	assert.Equal(t, `[0.02,"o","\ndemo> "]`, lines[2])
}

func TestExportCommand_File(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", exportSource)
	out := filepath.Join(t.TempDir(), "casts", "demo.cast")
	cmd := newTestExport(nil, 80, 24, nil)
	cmd.output = out

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute([]string{path}, &stdout, &stderr))
	assert.Equal(t, "Exported "+path+" to "+out+" (80x24, 00.00.020)\n", stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"version":2,"width":80,"height":24,`))
}

func TestExportCommand_FailureLeavesNoFile(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "bad.txt", "[username]demo\n[00.00.000][background 00]\n")
	out := filepath.Join(t.TempDir(), "demo.cast")
	cmd := newTestExport(nil, 80, 24, nil)
	cmd.output = out

	var stdout, stderr bytes.Buffer
	require.Error(t, cmd.Execute([]string{path}, &stdout, &stderr))
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestExportCommand_Size(t *testing.T) {
	t.Parallel()
	noTerm := errors.New("not a terminal")

	configured := config.NewConfig()
	configured.SetSectionOption(config.SectionExport, config.KeyExportCols, "132")

	for _, tc := range []struct {
		name       string
		cfg        *config.Config
		flagCols   int
		flagRows   int
		termErr    error
		cols, rows int
	}{
		{name: "terminal", cols: 100, rows: 50},
		{name: "default without terminal", termErr: noTerm, cols: 80, rows: 24},
		{name: "flags win", flagCols: 10, flagRows: 5, cols: 10, rows: 5},
		{name: "config beats terminal", cfg: configured, cols: 132, rows: 50},
		{name: "flag beats config", cfg: configured, flagCols: 90, cols: 90, rows: 50},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cmd := newTestExport(tc.cfg, 100, 50, tc.termErr)
			cmd.cols, cmd.rows = tc.flagCols, tc.flagRows
			cols, rows := cmd.size(config.DefaultSchema())
			assert.Equal(t, tc.cols, cols)
			assert.Equal(t, tc.rows, rows)
		})
	}
}

func TestExportCommand_Errors(t *testing.T) {
	t.Parallel()
	path := writeScript(t, "demo.txt", exportSource)

	var stdout, stderr bytes.Buffer
	cmd := newTestExport(nil, 80, 24, nil)
	assert.Error(t, cmd.Execute(nil, &stdout, &stderr))

	cmd.profile = "sepia"
	assert.Error(t, cmd.Execute([]string{path}, &stdout, &stderr))

	cmd = newTestExport(nil, 80, 24, nil)
	cmd.cols = -1
	cfg := config.NewConfig()
	cfg.SetSectionOption(config.SectionExport, config.KeyExportCols, "0")
	cmd.config = cfg
	assert.EqualError(t, cmd.Execute([]string{path}, &stdout, &stderr), "invalid recording size 0x24")
}
