package player

import (
	"fmt"
	"time"

	"github.com/joeycumines/cliplay/internal/script"
)

// OverrunError reports an action whose execution took longer than the gap
// before the next action. Playback stops at the offending action.
type OverrunError struct {
	Line   int
	Kind   script.Kind
	Cost   time.Duration
	Budget time.Duration
}

// Overrun is how far the action went past its budget.
func (e *OverrunError) Overrun() time.Duration { return e.Cost - e.Budget }

func (e *OverrunError) Error() string {
	return fmt.Sprintf("action %s at line %d overran its time budget: took %s, next action was due after %s (over by %s)",
		e.Kind, e.Line, e.Cost, e.Budget, e.Overrun())
}

// SinkError wraps a failure of the sink while dispatching an action.
type SinkError struct {
	Line int
	Kind script.Kind
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("action %s at line %d: %v", e.Kind, e.Line, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
