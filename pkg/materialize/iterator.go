package materialize

import (
	"iter"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/iterkit"
)

// Iterator is a pull cursor over the events of a source sequence.
//
// An Iterator owns the source cursor it wraps, and it must not be used from multiple goroutines at the same time.
// When the consumer abandons the Iterator before its end, Stop releases the source cursor.
type Iterator[T any, E error] struct {
	src        cursor[T]
	terminated bool
}

// Pull starts a new iteration over seq and returns an Iterator for its events.
func Pull[E error, T any](seq iter.Seq2[T, error]) *Iterator[T, E] {
	next, stop := iter.Pull2(seq)
	return &Iterator[T, E]{src: &pullCursor[T]{pull: next, release: stop}}
}

// FromPullIter wraps an already started pull cursor.
// The Iterator takes over the ownership of itr, and closes it once the events are exhausted or Stop is called.
//
// A Next that succeeds while Err is already set is read as the failure of itr,
// which is how iterkit.ToPullIter reports the error element of a SeqE.
func FromPullIter[E error, T any](itr iterkit.PullIter[T]) *Iterator[T, E] {
	return &Iterator[T, E]{src: &pullIterCursor[T]{itr: itr}}
}

// Next pulls the next event.
//
// It pulls exactly once from the source cursor, and blocks for as long as the source does.
// The Completed event is returned exactly once; every call after it reports ok as false
// without touching the source.
func (i *Iterator[T, E]) Next() (Event[T, E], bool) {
	if i.terminated {
		return Event[T, E]{}, false
	}
	v, err, ok := i.src.next()
	if !ok {
		i.terminate()
		return Completed[T](Finished[E]()), true
	}
	if err != nil {
		i.terminate()
		return Completed[T](Failure(declared[E](err))), true
	}
	return Value[T, E](v), true
}

// Stop releases the source cursor.
// After Stop, Next reports the end of the events.
func (i *Iterator[T, E]) Stop() {
	if i.terminated {
		return
	}
	i.terminate()
}

func (i *Iterator[T, E]) terminate() {
	i.terminated = true
	i.src.stop()
}

type cursor[T any] interface {
	next() (T, error, bool)
	stop()
}

type pullCursor[T any] struct {
	pull    func() (T, error, bool)
	release func()
}

func (c *pullCursor[T]) next() (T, error, bool) { return c.pull() }

func (c *pullCursor[T]) stop() { c.release() }

type pullIterCursor[T any] struct {
	itr    iterkit.PullIter[T]
	closed bool
}

func (c *pullIterCursor[T]) next() (T, error, bool) {
	var zero T
	if c.itr.Next() {
		if err := c.itr.Err(); err != nil {
			return zero, errorkit.Merge(err, c.close()), true
		}
		return c.itr.Value(), nil, true
	}
	err := errorkit.Merge(c.itr.Err(), c.close())
	return zero, err, err != nil
}

func (c *pullIterCursor[T]) stop() { _ = c.close() }

func (c *pullIterCursor[T]) close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.itr.Close()
}
