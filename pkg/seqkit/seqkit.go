// Package seqkit adds context aware sources to iterkit.
//
// Sources in this package follow the failable sequence convention of iterkit.SeqE:
// a non-nil error is the last element of the sequence, and a sequence that returns without
// yielding an error has been exhausted normally.
// When their context is done, they end as exhausted, without an error.
package seqkit

import (
	"bufio"
	"context"
	"io"
	"iter"

	"go.llib.dev/frameless/pkg/iterkit"
	"golang.org/x/time/rate"
)

// FailAfter returns a SeqE that yields vs and then fails with err.
// When err is nil, the sequence is exhausted normally after the last value.
func FailAfter[T any](err error, vs ...T) iterkit.SeqE[T] {
	return iterkit.From(func(yield func(T) bool) error {
		for _, v := range vs {
			if !yield(v) {
				return nil
			}
		}
		return err
	})
}

// Chan returns a SeqE that receives from ch until it is closed or ctx is done.
func Chan[T any](ctx context.Context, ch <-chan T) iterkit.SeqE[T] {
	return func(yield func(T, error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// Lines returns a single use SeqE that yields the lines of r.
// Reading errors end the sequence as its failure.
//
// r is read on a separate goroutine, so a done ctx ends the sequence
// even while a Read blocks. That goroutine exits once the blocked Read returns.
func Lines(ctx context.Context, r io.Reader) iterkit.SingleUseSeqE[string] {
	return iterkit.OnceE(func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		type line struct {
			text string
			err  error
		}
		lines := make(chan line)
		go func() {
			defer close(lines)
			for text, err := range iterkit.BufioScanner[string](bufio.NewScanner(r), nil) {
				select {
				case lines <- line{text: text, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()

		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case l, ok := <-lines:
				if !ok || ctx.Err() != nil {
					return
				}
				if !yield(l.text, l.err) || l.err != nil {
					return
				}
			}
		}
	})
}

// Throttle paces the pulls from i with lim.
// Every element of i waits for a token before it is pulled,
// and a done ctx ends the sequence as exhausted.
func Throttle[T any](ctx context.Context, i iterkit.SeqE[T], lim *rate.Limiter) iterkit.SeqE[T] {
	if lim == nil {
		return i
	}
	return func(yield func(T, error) bool) {
		next, stop := iter.Pull2(i)
		defer stop()
		for {
			if err := lim.Wait(ctx); err != nil {
				return
			}
			v, err, ok := next()
			if !ok {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}
