package cast

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	At   float64
	Type EventType
	Data string
}

func decode(t *testing.T, s string) (Header, []event) {
	t.Helper()
	sc := bufio.NewScanner(strings.NewReader(s))
	require.True(t, sc.Scan())
	var h Header
	require.NoError(t, json.Unmarshal(sc.Bytes(), &h))
	var events []event
	for sc.Scan() {
		var raw []json.RawMessage
		require.NoError(t, json.Unmarshal(sc.Bytes(), &raw))
		require.Len(t, raw, 3)
		var ev event
		require.NoError(t, json.Unmarshal(raw[0], &ev.At))
		require.NoError(t, json.Unmarshal(raw[1], &ev.Type))
		require.NoError(t, json.Unmarshal(raw[2], &ev.Data))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return h, events
}

func TestEncoder(t *testing.T) {
	t.Parallel()
	var (
		buf bytes.Buffer
		now time.Duration
	)
	enc, err := NewEncoder(&buf, Header{Width: 80, Height: 24, Timestamp: 1700000000, Title: "demo"}, func() time.Duration { return now })
	require.NoError(t, err)

	for _, s := range []string{"\x1b[2J", "demo> "} {
		_, err := enc.Write([]byte(s))
		require.NoError(t, err)
	}
	now = 1500 * time.Millisecond
	_, err = enc.Write([]byte("héllo \"quoted\""))
	require.NoError(t, err)
	now = 2*time.Second + 1234567*time.Nanosecond
	_, err = enc.Write([]byte("\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	assert.True(t, strings.HasPrefix(buf.String(), `{"version":2,"width":80,"height":24,"timestamp":1700000000,"title":"demo"}`+"\n"))

	assert.Contains(t, buf.String(), `[0,"o","\u001b[2Jdemo> "]`)

	h, events := decode(t, buf.String())
	assert.Equal(t, Header{Version: 2, Width: 80, Height: 24, Timestamp: 1700000000, Title: "demo"}, h)
	assert.Equal(t, []event{
		{0, Output, "\x1b[2Jdemo> "},
		{1.5, Output, "héllo \"quoted\""},
		{2.001235, Output, "\n"},
	}, events)
}

func TestEncoder_NoEvents(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, Header{Width: 10, Height: 5}, func() time.Duration { return 0 })
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	assert.Equal(t, `{"version":2,"width":10,"height":5}`+"\n", buf.String())
}

func TestEncoder_InvalidSize(t *testing.T) {
	t.Parallel()
	_, err := NewEncoder(&bytes.Buffer{}, Header{Width: 0, Height: 24}, nil)
	assert.Error(t, err)
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncoder_WriteErrorIsReported(t *testing.T) {
	t.Parallel()
	enc, err := NewEncoder(errWriter{}, Header{Width: 1, Height: 1}, func() time.Duration { return 0 })
	require.NoError(t, err, "header is buffered")
	_, err = enc.Write([]byte("x"))
	require.NoError(t, err)
	err = enc.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, err = enc.Write([]byte("y"))
	assert.Error(t, err)
}
