package llm

import (
	"context"
	"iter"
	"strings"
)

// Accumulate turns a sequence of deltas into cumulative snapshots.
// Empty deltas produce no snapshot.
func Accumulate(deltas iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var buf strings.Builder
		for delta, err := range deltas {
			if err != nil {
				yield("", err)
				return
			}
			if delta == "" {
				continue
			}
			buf.WriteString(delta)
			if !yield(buf.String(), nil) {
				return
			}
		}
	}
}

// Emit hands one chunk to the consumer. It returns an error once the
// consumer has gone away; producers should stop on it.
type Emit func(chunk string) error

// FromCallback adapts a push-style producer into a pull sequence of deltas.
// run is executed on its own goroutine with a context that is cancelled
// when the consumer stops early; the sequence does not return until run has.
func FromCallback(ctx context.Context, run func(ctx context.Context, emit Emit) error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		chunks := make(chan string)
		done := make(chan error, 1)

		go func() {
			defer close(chunks)
			done <- run(ctx, func(chunk string) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				select {
				case chunks <- chunk:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		for chunk := range chunks {
			if !yield(chunk, nil) {
				cancel()
				for range chunks {
				}
				return
			}
		}

		if err := <-done; err != nil {
			yield("", err)
		}
	}
}

// Snapshots is a convenience for tests and offline providers: a fixed list
// of cumulative snapshots.
func Snapshots(snaps ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, s := range snaps {
			if !yield(s, nil) {
				return
			}
		}
	}
}
