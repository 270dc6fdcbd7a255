package selfplay

import (
	"fmt"
	"io"
	"time"
)

// Checkpointer records completed training iterations. The only
// implementation here is an append-only text log; a real deployment would
// also persist model weights, but that belongs to the Oracle side of the
// boundary (spec.md §4.8) and not to this package.
type Checkpointer interface {
	Checkpoint(res IterationResult) error
}

// LogCheckpointer appends one line per iteration to an io.Writer, in the
// teacher's plain key=value log-line style (see internal/server's request
// logging).
type LogCheckpointer struct {
	W io.Writer
}

func (c *LogCheckpointer) Checkpoint(res IterationResult) error {
	_, err := fmt.Fprintf(c.W, "iteration=%d run=%s time=%s games=%d examples=%d\n",
		res.Iteration, res.RunID, time.Now().UTC().Format(time.RFC3339), res.GamesPlayed, res.ExamplesSeen)
	return err
}
