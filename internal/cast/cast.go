// Package cast writes asciicast v2 recordings.
//
// A recording is a JSON header line followed by one JSON array per event:
// [seconds, "o", data].
package cast

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"
)

// Version is the asciicast format version produced.
const Version = 2

// Header is the first line of a recording.
type Header struct {
	Version   int               `json:"version"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Title     string            `json:"title,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// EventType is the second element of an event line.
type EventType string

const (
	// Output is data written to the terminal.
	Output EventType = "o"
)

// Encoder is an io.Writer that turns terminal output into output events.
// Consecutive writes made at the same elapsed time become one event.
type Encoder struct {
	w       *bufio.Writer
	elapsed func() time.Duration
	pending []byte
	at      time.Duration
	err     error
}

// NewEncoder writes h to w and returns an Encoder that stamps each write
// with elapsed(). A zero h.Version is set to Version.
func NewEncoder(w io.Writer, h Header, elapsed func() time.Duration) (*Encoder, error) {
	if h.Version == 0 {
		h.Version = Version
	}
	if h.Width <= 0 || h.Height <= 0 {
		return nil, fmt.Errorf("cast: invalid size %dx%d", h.Width, h.Height)
	}
	e := &Encoder{w: bufio.NewWriter(w), elapsed: elapsed}
	b, err := marshal(h)
	if err != nil {
		return nil, fmt.Errorf("cast: encoding header: %w", err)
	}
	if err := e.line(b); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Encoder) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	t := e.elapsed()
	if len(e.pending) != 0 && t != e.at {
		if err := e.flushEvent(); err != nil {
			return 0, err
		}
	}
	e.at = t
	e.pending = append(e.pending, p...)
	return len(p), nil
}

// Close writes any pending event and flushes the underlying writer. It does
// not close that writer.
func (e *Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	if err := e.flushEvent(); err != nil {
		return err
	}
	if err := e.w.Flush(); err != nil {
		e.err = fmt.Errorf("cast: %w", err)
	}
	return e.err
}

func (e *Encoder) flushEvent() error {
	if len(e.pending) == 0 {
		return nil
	}
	b, err := marshal([]any{seconds(e.at), Output, string(e.pending)})
	if err != nil {
		e.err = fmt.Errorf("cast: encoding event: %w", err)
		return e.err
	}
	e.pending = e.pending[:0]
	return e.line(b)
}

func (e *Encoder) line(b []byte) error {
	if _, err := e.w.Write(b); err != nil {
		e.err = fmt.Errorf("cast: %w", err)
		return e.err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		e.err = fmt.Errorf("cast: %w", err)
		return e.err
	}
	return nil
}

// seconds rounds d to microseconds.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e6) / 1e6
}

// marshal is json.Marshal without HTML escaping, so prompts such as "> "
// stay readable in the recording.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
