// Package materialize turns the implicit endings of a sequence into explicit values.
//
// A failable sequence (iter.Seq2[T, error]) tells its consumer about its end out-of-band:
// it either stops yielding, or it yields an error.
// Materialize folds both outcomes into the element stream,
// so a consumer can assert on how a sequence ended by looking at ordinary values:
//
//	for event := range materialize.Materialize[error](iterkit.FromSliceE([]int{1, 2, 3})) {
//		fmt.Println(event)
//	}
//
//	// .value(1)
//	// .value(2)
//	// .value(3)
//	// .completed(.finished)
//
// The error type parameter E declares which errors the source may fail with.
// An error outside of E is a broken contract, and the materialized sequence panics with ErrUndeclaredFailure.
// With E as error, every error is accepted.
//
// Materialize has no cancellation logic of its own.
// A source that honours a context ends as exhausted when the context is cancelled,
// and this is reported the same way as any other normal exhaustion, with a Finished completion.
package materialize

import (
	"errors"
	"iter"
	"reflect"

	"go.llib.dev/frameless/pkg/errorkit"
)

const ErrUndeclaredFailure errorkit.Error = "ErrUndeclaredFailure"

// Materialize creates a sequence that iterates over the events of seq.
//
// The result yields a Value event for each value of seq in the same order,
// followed by exactly one Completed event.
// Iterating the result starts a new iteration of seq each time,
// thus a single use seq makes the result single use too.
func Materialize[E error, T any](seq iter.Seq2[T, error]) iter.Seq[Event[T, E]] {
	return func(yield func(Event[T, E]) bool) {
		for v, err := range seq {
			if err != nil {
				yield(Completed[T](Failure(declared[E](err))))
				return
			}
			if !yield(Value[T, E](v)) {
				return
			}
		}
		yield(Completed[T](Finished[E]()))
	}
}

// MaterializeSeq is Materialize for sequences that can't fail.
func MaterializeSeq[T any](seq iter.Seq[T]) iter.Seq[Event[T, error]] {
	return func(yield func(Event[T, error]) bool) {
		for v := range seq {
			if !yield(Value[T, error](v)) {
				return
			}
		}
		yield(Completed[T](Finished[error]()))
	}
}

// declared returns err as the declared error type.
// When err itself is not an E, the first E from its chain is used.
func declared[E error](err error) E {
	var e E
	if errors.As(err, &e) {
		return e
	}
	panic(ErrUndeclaredFailure.F("%s was declared, but the source failed with %T: %w",
		reflect.TypeFor[E]().String(), err, err))
}
