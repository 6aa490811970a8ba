// Package evdump implements the evdump command,
// which prints the materialized events of a line based input.
package evdump

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.llib.dev/frameless/pkg/cli"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/iterkit"
	"go.llib.dev/frameless/pkg/logging"
	"golang.org/x/time/rate"

	"go.llib.dev/materialize/internal/config"
	"go.llib.dev/materialize/pkg/eventlog"
	"go.llib.dev/materialize/pkg/materialize"
	"go.llib.dev/materialize/pkg/seqkit"
)

const ErrUnknownFormat errorkit.Error = "ErrUnknownFormat"

type Command struct {
	Limit  int     `flag:"limit,n" desc:"stop after the first n events, 0 means no limit"`
	Rate   float64 `flag:"rate" desc:"maximum number of lines read per second, 0 means no limit"`
	Format string  `flag:"format" desc:"output format (text or json), EVDUMP_FORMAT is used when omitted"`
	File   string  `arg:"0" desc:"input file, STDIN is read when omitted or when it is -"`

	// DefaultFormat is used when the Format flag is not given.
	DefaultFormat string
	// Logger receives the diagnostic logs of the events.
	Logger *logging.Logger
}

func (cmd Command) Summary() string {
	return "Prints the materialized events of a line based input."
}

func (cmd Command) ServeCLI(w cli.ResponseWriter, r *cli.Request) {
	ctx := r.Context()

	enc, err := cmd.encoder(w)
	if err != nil {
		w.ExitCode(cli.ExitCodeBadRequest)
		fmt.Fprintln(stderr(w), err.Error())
		return
	}

	in, err := cmd.input(r)
	if err != nil {
		fail(w, err)
		return
	}
	defer in.Close()

	lines := seqkit.Lines(ctx, in)
	if 0 < cmd.Rate {
		lines = seqkit.Throttle(ctx, lines, rate.NewLimiter(rate.Limit(cmd.Rate), 1))
	}

	events := materialize.Materialize[error](lines)
	events = eventlog.Observe(ctx, cmd.logger(), events)
	if 0 < cmd.Limit {
		events = iterkit.Head(events, cmd.Limit)
	}

	for ev := range events {
		if err := enc(ev); err != nil {
			fail(w, err)
			return
		}
		if c, ok := ev.Completion(); ok && c.IsFailure() {
			w.ExitCode(cli.ExitCodeError)
		}
	}
}

type encodeFunc func(materialize.Event[string, error]) error

func (cmd Command) encoder(w io.Writer) (encodeFunc, error) {
	format := cmd.Format
	if format == "" {
		format = cmd.DefaultFormat
	}
	switch format {
	case config.FormatText, "":
		return func(ev materialize.Event[string, error]) error {
			_, err := fmt.Fprintln(w, ev.String())
			return err
		}, nil
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		return func(ev materialize.Event[string, error]) error {
			return enc.Encode(toDTO(ev))
		}, nil
	default:
		return nil, ErrUnknownFormat.F("%q", format)
	}
}

func (cmd Command) input(r *cli.Request) (io.ReadCloser, error) {
	if cmd.File == "" || cmd.File == "-" {
		if r.Body == nil {
			return io.NopCloser(os.Stdin), nil
		}
		return io.NopCloser(r.Body), nil
	}
	return os.Open(cmd.File)
}

func (cmd Command) logger() *logging.Logger {
	if cmd.Logger != nil {
		return cmd.Logger
	}
	return &logging.Logger{Out: os.Stderr}
}

func fail(w cli.ResponseWriter, err error) {
	w.ExitCode(cli.ExitCodeError)
	fmt.Fprintln(w, err.Error())
}

func stderr(w cli.ResponseWriter) io.Writer {
	if ew, ok := w.(cli.ErrorWriter); ok {
		return ew.Stderr()
	}
	return w
}

type eventDTO struct {
	Type       string  `json:"type"`
	Value      *string `json:"value,omitempty"`
	Completion string  `json:"completion,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func toDTO(ev materialize.Event[string, error]) eventDTO {
	if v, ok := ev.Value(); ok {
		return eventDTO{Type: "value", Value: &v}
	}
	c, _ := ev.Completion()
	if err, ok := c.Err(); ok {
		return eventDTO{Type: "completed", Completion: "failure", Error: err.Error()}
	}
	return eventDTO{Type: "completed", Completion: "finished"}
}
