//go:build unix

package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/joeycumines/cliplay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayCommand_ClosedStdout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()

	var src strings.Builder
	src.WriteString("[username]demo\n")
	for i := range 200 {
		fmt.Fprintf(&src, "[00.%02d.%03d]line %d[newline]\n", i*10/1000, i*10%1000, i)
	}
	path := filepath.Join(dir, "long.txt")
	require.NoError(t, os.WriteFile(path, []byte(src.String()), 0o644))
	music := filepath.Join(dir, "track.mp3")
	require.NoError(t, os.WriteFile(music, nil, 0o644))
	pidFile := music + ".pid"

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	var stderr bytes.Buffer
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(),
		helperEnv+"=play",
		"CLIPLAY_TEST_SCRIPT="+path,
		"CLIPLAY_TEST_MUSIC="+music,
		`CLIPLAY_AUDIO_COMMAND=sh -c 'echo $$ > "$0.pid"; exec sleep 30' {file}`,
		"CLIPLAY_LOG_FILE=",
		"CLIPLAY_LOG_LEVEL=",
	)
	cmd.Stdout = w
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Start())
	require.NoError(t, w.Close())

	ctx := context.Background()
	require.NoError(t, testutil.Poll(ctx, func() bool {
		data, err := os.ReadFile(pidFile)
		return err == nil && strings.HasSuffix(string(data), "\n")
	}, 5*time.Second, 5*time.Millisecond), "audio never started")

	_, err = io.ReadFull(r, make([]byte, 10))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	err = cmd.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode(), "stderr: %s", &stderr)
	assert.Contains(t, stderr.String(), "output closed")
	assert.Contains(t, stderr.String(), "broken pipe")

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	assert.NoError(t, testutil.Poll(ctx, func() bool {
		return syscall.Kill(pid, 0) == syscall.ESRCH
	}, 5*time.Second, 10*time.Millisecond), "audio process %d outlived playback", pid)
}
