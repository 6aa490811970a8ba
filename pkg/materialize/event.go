package materialize

import "fmt"

// Completion is the terminal outcome of a sequence.
// The zero value is a finished completion.
type Completion[E error] struct {
	err    E
	failed bool
}

// Finished is the completion of a sequence that got exhausted without an error.
func Finished[E error]() Completion[E] {
	return Completion[E]{}
}

// Failure is the completion of a sequence that ended with err.
func Failure[E error](err E) Completion[E] {
	return Completion[E]{err: err, failed: true}
}

func (c Completion[E]) IsFinished() bool { return !c.failed }

func (c Completion[E]) IsFailure() bool { return c.failed }

// Err returns the error of a failed completion.
func (c Completion[E]) Err() (E, bool) {
	return c.err, c.failed
}

func (c Completion[E]) String() string {
	if !c.failed {
		return ".finished"
	}
	if any(c.err) == nil {
		return ".failure(<nil>)"
	}
	return fmt.Sprintf(".failure(%s)", c.err.Error())
}

// Event is an element of a materialized sequence.
// It either carries a value of the source sequence, or its terminal Completion.
type Event[T any, E error] struct {
	value      T
	completion Completion[E]
	completed  bool
}

// Value is an Event which forwards a value produced by the source sequence.
func Value[T any, E error](v T) Event[T, E] {
	return Event[T, E]{value: v}
}

// Completed is the terminal Event of a materialized sequence.
func Completed[T any, E error](c Completion[E]) Event[T, E] {
	return Event[T, E]{completion: c, completed: true}
}

func (e Event[T, E]) IsValue() bool { return !e.completed }

func (e Event[T, E]) IsCompleted() bool { return e.completed }

func (e Event[T, E]) Value() (T, bool) {
	return e.value, !e.completed
}

func (e Event[T, E]) Completion() (Completion[E], bool) {
	return e.completion, e.completed
}

func (e Event[T, E]) String() string {
	if e.completed {
		return fmt.Sprintf(".completed(%s)", e.completion.String())
	}
	return fmt.Sprintf(".value(%v)", e.value)
}
