//go:build unix

package termtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/joeycumines/cliplay/internal/testutil"
	"golang.org/x/term"
)

// Console is a pseudo-terminal pair. Code under test writes to TTY and
// everything that reaches the master side is captured.
type Console struct {
	ptm, tty  *os.File
	mu        sync.Mutex
	out       bytes.Buffer
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open allocates a pseudo-terminal of the given size and starts capturing
// its output.
func Open(cols, rows int) (*Console, error) {
	ptm, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("termtest: open pty: %w", err)
	}
	if err := pty.Setsize(ptm, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		_ = tty.Close()
		_ = ptm.Close()
		return nil, fmt.Errorf("termtest: set size: %w", err)
	}
	c := &Console{ptm: ptm, tty: tty, done: make(chan struct{})}
	go c.capture()
	return c, nil
}

// TTY is the terminal side, for use as a program's stdout.
func (c *Console) TTY() *os.File { return c.tty }

// Raw switches the terminal to raw mode, so output bytes arrive unchanged.
// In the default cooked mode the line discipline turns "\n" into "\r\n".
func (c *Console) Raw() error {
	if _, err := term.MakeRaw(int(c.tty.Fd())); err != nil {
		return fmt.Errorf("termtest: raw mode: %w", err)
	}
	return nil
}

// Size reports the window size as seen from the terminal side.
func (c *Console) Size() (cols, rows int, err error) {
	return term.GetSize(int(c.tty.Fd()))
}

// Output returns everything captured so far.
func (c *Console) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

// WaitFor blocks until the captured output contains s.
func (c *Console) WaitFor(ctx context.Context, s string, timeout time.Duration) error {
	err := testutil.Poll(ctx, func() bool { return strings.Contains(c.Output(), s) }, timeout, 5*time.Millisecond)
	if err != nil {
		return fmt.Errorf("termtest: waiting for %q: %w (output: %q)", s, err, c.Output())
	}
	return nil
}

// Close releases both ends and stops capturing. Output remains readable.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		// The pending master read returns once the terminal side is gone.
		c.closeErr = c.tty.Close()
		<-c.done
		c.closeErr = errors.Join(c.closeErr, c.ptm.Close())
	})
	return c.closeErr
}

func (c *Console) capture() {
	defer close(c.done)
	buf := make([]byte, 4096)
	for {
		n, err := c.ptm.Read(buf)
		if n > 0 {
			c.mu.Lock()
			c.out.Write(buf[:n])
			c.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}
