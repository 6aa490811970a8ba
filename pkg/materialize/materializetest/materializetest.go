// Package materializetest helps to assert on how a sequence ends.
package materializetest

import (
	"errors"
	"iter"
	"sync"
	"testing"

	"go.llib.dev/testcase/assert"

	"go.llib.dev/materialize/pkg/materialize"
)

// Recorder records events for tests and diagnostics.
//
// Recorder is safe under concurrent Record calls.
type Recorder[T any, E error] struct {
	events []materialize.Event[T, E]
	mu     sync.Mutex
}

// Record appends the event to the recorder.
func (r *Recorder[T, E]) Record(ev materialize.Event[T, E]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Drain records every event of the sequence until it ends.
func (r *Recorder[T, E]) Drain(events iter.Seq[materialize.Event[T, E]]) {
	for ev := range events {
		r.Record(ev)
	}
}

// Events returns a snapshot copy of the recorded events.
func (r *Recorder[T, E]) Events() []materialize.Event[T, E] {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]materialize.Event[T, E], len(r.events))
	copy(cp, r.events)
	return cp
}

// Values returns the values of the recorded Value events in recorded order.
func (r *Recorder[T, E]) Values() []T {
	var vs []T
	for _, ev := range r.Events() {
		if v, ok := ev.Value(); ok {
			vs = append(vs, v)
		}
	}
	return vs
}

// Completion returns the last recorded Completion.
func (r *Recorder[T, E]) Completion() (materialize.Completion[E], bool) {
	evs := r.Events()
	for i := len(evs) - 1; 0 <= i; i-- {
		if c, ok := evs[i].Completion(); ok {
			return c, true
		}
	}
	return materialize.Completion[E]{}, false
}

// Reset clears the recorder.
func (r *Recorder[T, E]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// AssertTerminated asserts that events has exactly one Completed event and that it is the last one.
func AssertTerminated[T any, E error](tb testing.TB, events []materialize.Event[T, E]) materialize.Completion[E] {
	tb.Helper()
	assert.NotEmpty(tb, events, "expected a Completed event, but there were no events at all")
	var count int
	for _, ev := range events {
		if ev.IsCompleted() {
			count++
		}
	}
	assert.Equal(tb, 1, count, assert.MessageF("expected exactly one Completed event, got %d", count))
	last := events[len(events)-1]
	c, ok := last.Completion()
	assert.True(tb, ok, assert.MessageF("expected the last event to be Completed, got %s", last))
	return c
}

// AssertFinished asserts that events are the values of vs followed by a Finished completion.
func AssertFinished[T any, E error](tb testing.TB, events []materialize.Event[T, E], vs ...T) {
	tb.Helper()
	c := AssertTerminated(tb, events)
	assert.True(tb, c.IsFinished(), assert.MessageF("expected Finished completion, got %s", c))
	assertValues(tb, events, vs)
}

// AssertFailure asserts that events are the values of vs followed by a Failure completion,
// which holds an error that matches expErr with errors.Is.
func AssertFailure[T any, E error](tb testing.TB, events []materialize.Event[T, E], expErr error, vs ...T) E {
	tb.Helper()
	c := AssertTerminated(tb, events)
	err, ok := c.Err()
	assert.True(tb, ok, assert.MessageF("expected Failure completion, got %s", c))
	assert.True(tb, errors.Is(err, expErr), assert.MessageF("expected %v to be the failure, got %v", expErr, err))
	assertValues(tb, events, vs)
	return err
}

// AssertExhausted asserts that the Iterator reports the end of its events for every further pull.
func AssertExhausted[T any, E error](tb testing.TB, itr *materialize.Iterator[T, E], pulls int) {
	tb.Helper()
	for n := 0; n < pulls; n++ {
		ev, ok := itr.Next()
		assert.False(tb, ok, assert.MessageF("expected no more events after the end, got %s", ev))
	}
}

func assertValues[T any, E error](tb testing.TB, events []materialize.Event[T, E], vs []T) {
	tb.Helper()
	var got []T
	for _, ev := range events {
		if v, ok := ev.Value(); ok {
			got = append(got, v)
		}
	}
	if len(vs) == 0 && len(got) == 0 {
		return
	}
	assert.Equal(tb, vs, got)
}
