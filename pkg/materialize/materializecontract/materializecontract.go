package materializecontract

import (
	"iter"

	"go.llib.dev/frameless/port/contract"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/materialize/pkg/materialize"
	"go.llib.dev/materialize/pkg/materialize/materializetest"
)

// Subject describes a source sequence and how it is expected to end.
type Subject[T any] struct {
	// Seq is the source sequence under test.
	Seq iter.Seq2[T, error]
	// Values are the values Seq is expected to yield, in order.
	Values []T
	// Err is the error Seq is expected to fail with.
	// When nil, Seq is expected to be exhausted normally.
	Err error
	// SingleUse tells that Seq can't be iterated more than once.
	SingleUse bool
}

// Source is a contract about the materialized events of a source sequence.
func Source[T any](mk contract.Make[Subject[T]]) contract.Contract {
	s := testcase.NewSpec(nil)

	subject := testcase.Let(s, func(t *testcase.T) Subject[T] {
		return mk(t)
	})

	assertEnding := func(t *testcase.T, events []materialize.Event[T, error]) {
		t.Helper()
		sub := subject.Get(t)
		if sub.Err == nil {
			materializetest.AssertFinished(t, events, sub.Values...)
		} else {
			materializetest.AssertFailure(t, events, sub.Err, sub.Values...)
		}
	}

	s.Describe("Materialize", func(s *testcase.Spec) {
		act := func(t *testcase.T) []materialize.Event[T, error] {
			var rec materializetest.Recorder[T, error]
			rec.Drain(materialize.Materialize[error](subject.Get(t).Seq))
			return rec.Events()
		}

		s.Then("values are forwarded in order and followed by exactly one Completed event", func(t *testcase.T) {
			assertEnding(t, act(t))
		})

		s.Then("iterating again starts a new iteration with its own Completed event", func(t *testcase.T) {
			if subject.Get(t).SingleUse {
				t.Skip("single use source")
			}
			assertEnding(t, act(t))
			assertEnding(t, act(t))
		})

		s.Then("breaking out from the iteration early is respected", func(t *testcase.T) {
			var got int
			for range materialize.Materialize[error](subject.Get(t).Seq) {
				got++
				break
			}
			assert.Equal(t, 1, got)
		})
	})

	s.Describe("Pull", func(s *testcase.Spec) {
		itr := testcase.Let(s, func(t *testcase.T) *materialize.Iterator[T, error] {
			i := materialize.Pull[error](subject.Get(t).Seq)
			t.Defer(i.Stop)
			return i
		})

		drain := func(t *testcase.T) []materialize.Event[T, error] {
			var events []materialize.Event[T, error]
			for {
				ev, ok := itr.Get(t).Next()
				if !ok {
					return events
				}
				events = append(events, ev)
			}
		}

		s.Then("events are the same as with Materialize", func(t *testcase.T) {
			assertEnding(t, drain(t))
		})

		s.Then("pulling after the Completed event reports the end without touching the source", func(t *testcase.T) {
			drain(t)
			materializetest.AssertExhausted(t, itr.Get(t), t.Random.IntBetween(1, 7))
		})

		s.Then("stopping the iterator ends the events", func(t *testcase.T) {
			itr.Get(t).Stop()
			materializetest.AssertExhausted(t, itr.Get(t), 1)
		})
	})

	return s.AsSuite("materialize.Source")
}
