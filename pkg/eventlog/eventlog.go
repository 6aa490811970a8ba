// Package eventlog logs the events of a materialized sequence as they pass through.
package eventlog

import (
	"context"
	"fmt"
	"iter"

	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/frameless/port/option"

	"go.llib.dev/materialize/pkg/materialize"
)

type Config struct {
	// Message is the logging message of every logged event.
	//
	// Default: "sequence event"
	Message string
	// ValueLevel is the logging level of the Value events.
	//
	// Default: logging.LevelDebug
	ValueLevel logging.Level
}

func (c Config) message() string {
	if c.Message == "" {
		return "sequence event"
	}
	return c.Message
}

func (c Config) valueLevel() logging.Level {
	if c.ValueLevel == "" {
		return logging.LevelDebug
	}
	return c.ValueLevel
}

type Option option.Option[Config]

func Message(msg string) Option {
	return option.Func[Config](func(c *Config) { c.Message = msg })
}

func ValueLevel(lvl logging.Level) Option {
	return option.Func[Config](func(c *Config) { c.ValueLevel = lvl })
}

// Observe passes events through unchanged, and logs each of them with l.
//
// Values are logged at the configured ValueLevel,
// a Finished completion at info and a Failure completion at error level.
func Observe[T any, E error](ctx context.Context, l *logging.Logger, events iter.Seq[materialize.Event[T, E]], opts ...Option) iter.Seq[materialize.Event[T, E]] {
	c := option.ToConfig[Config](opts)
	return func(yield func(materialize.Event[T, E]) bool) {
		var count int
		for ev := range events {
			if v, ok := ev.Value(); ok {
				count++
				l.Log(ctx, c.valueLevel(), c.message(),
					logging.Field("event", "value"),
					logging.Field("index", count-1),
					logging.Field("value", fmt.Sprintf("%v", v)))
			}
			if comp, ok := ev.Completion(); ok {
				logCompletion(ctx, l, c, comp, count)
			}
			if !yield(ev) {
				return
			}
		}
	}
}

func logCompletion[E error](ctx context.Context, l *logging.Logger, c Config, comp materialize.Completion[E], count int) {
	if err, ok := comp.Err(); ok {
		l.Error(ctx, c.message(),
			logging.Field("event", "completed"),
			logging.Field("completion", "failure"),
			logging.Field("values", count),
			logging.ErrField(err))
		return
	}
	l.Info(ctx, c.message(),
		logging.Field("event", "completed"),
		logging.Field("completion", "finished"),
		logging.Field("values", count))
}
