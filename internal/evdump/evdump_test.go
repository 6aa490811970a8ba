package evdump_test

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"go.llib.dev/frameless/pkg/cli"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/logging"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/materialize/internal/config"
	"go.llib.dev/materialize/internal/evdump"
)

const errBoom errorkit.Error = "boom"

func TestCommand(t *testing.T) {
	s := testcase.NewSpec(t)

	var (
		args = testcase.Let(s, func(t *testcase.T) []string { return []string{} })
		body = testcase.Let(s, func(t *testcase.T) io.Reader {
			return strings.NewReader("foo\nbar\nbaz\n")
		})
		defaultFormat = testcase.Let(s, func(t *testcase.T) string { return config.FormatText })
	)
	logger, logs := testcase.Let2(s, func(t *testcase.T) (*logging.Logger, logging.StubOutput) {
		return logging.Stub(t)
	})
	act := func(t *testcase.T) *cli.ResponseRecorder {
		cmd := evdump.Command{
			DefaultFormat: defaultFormat.Get(t),
			Logger:        logger.Get(t),
		}
		w := &cli.ResponseRecorder{}
		cli.ServeCLI(cmd, w, &cli.Request{Args: args.Get(t), Body: body.Get(t)})
		return w
	}

	s.Then("every line is printed as a value event followed by the completion", func(t *testcase.T) {
		w := act(t)
		assert.Equal(t, cli.ExitCodeOK, w.Code)
		assert.Equal(t, ".value(foo)\n.value(bar)\n.value(baz)\n.completed(.finished)\n", w.Out.String())
	})

	s.Then("the events are logged", func(t *testcase.T) {
		act(t)
		assert.Contains(t, logs.Get(t).String(), `"completion":"finished"`)
		assert.Contains(t, logs.Get(t).String(), `"value":"bar"`)
	})

	s.When("the input is empty", func(s *testcase.Spec) {
		body.Let(s, func(t *testcase.T) io.Reader {
			return strings.NewReader("")
		})

		s.Then("only the completion is printed", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeOK, w.Code)
			assert.Equal(t, ".completed(.finished)\n", w.Out.String())
		})
	})

	s.When("reading the input fails", func(s *testcase.Spec) {
		body.Let(s, func(t *testcase.T) io.Reader {
			return iotest.ErrReader(errBoom)
		})

		s.Then("the failure is printed and the exit code reports the error", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeError, w.Code)
			assert.Equal(t, ".completed(.failure(boom))\n", w.Out.String())
			assert.Contains(t, logs.Get(t).String(), `"level":"error"`)
		})
	})

	s.When("limit is given", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-limit", "2"}
		})

		s.Then("only the first n events are printed", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeOK, w.Code)
			assert.Equal(t, ".value(foo)\n.value(bar)\n", w.Out.String())
		})

		s.Then("the rest of the input is not logged", func(t *testcase.T) {
			act(t)
			assert.NotContains(t, logs.Get(t).String(), `"value":"baz"`)
		})
	})

	s.When("rate is given", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-rate", "1000"}
		})

		s.Then("every line is still printed", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeOK, w.Code)
			assert.Equal(t, ".value(foo)\n.value(bar)\n.value(baz)\n.completed(.finished)\n", w.Out.String())
		})
	})

	s.When("json format is requested with the flag", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-format", "json"}
		})
		body.Let(s, func(t *testcase.T) io.Reader {
			return strings.NewReader("foo\n")
		})

		s.Then("events are printed as JSON lines", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeOK, w.Code)

			lines := strings.Split(strings.TrimSpace(w.Out.String()), "\n")
			assert.Equal(t, 2, len(lines))

			var value map[string]any
			assert.NoError(t, json.Unmarshal([]byte(lines[0]), &value))
			assert.Equal(t, map[string]any{"type": "value", "value": "foo"}, value)

			var completed map[string]any
			assert.NoError(t, json.Unmarshal([]byte(lines[1]), &completed))
			assert.Equal(t, map[string]any{"type": "completed", "completion": "finished"}, completed)
		})
	})

	s.When("json is the default format", func(s *testcase.Spec) {
		defaultFormat.Let(s, func(t *testcase.T) string { return config.FormatJSON })

		s.Then("events are printed as JSON", func(t *testcase.T) {
			w := act(t)
			assert.Contains(t, w.Out.String(), `{"type":"value","value":"foo"}`)
		})

		s.And("the flag asks for text", func(s *testcase.Spec) {
			args.Let(s, func(t *testcase.T) []string {
				return []string{"-format", "text"}
			})

			s.Then("the flag wins", func(t *testcase.T) {
				w := act(t)
				assert.Contains(t, w.Out.String(), ".value(foo)\n")
			})
		})
	})

	s.When("json output of a failure", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-format", "json"}
		})
		body.Let(s, func(t *testcase.T) io.Reader {
			return iotest.ErrReader(errBoom)
		})

		s.Then("the error message is part of the completion", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeError, w.Code)
			assert.Contains(t, w.Out.String(), `{"type":"completed","completion":"failure","error":"boom"}`)
		})
	})

	s.When("the format is unknown", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-format", "yaml"}
		})

		s.Then("it is a bad request", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeBadRequest, w.Code)
			assert.Empty(t, w.Out.String())
			assert.Contains(t, w.Err.String(), "ErrUnknownFormat")
		})
	})

	s.When("a file is given as argument", func(s *testcase.Spec) {
		path := testcase.Let(s, func(t *testcase.T) string {
			p := filepath.Join(t.TempDir(), "input.txt")
			assert.NoError(t, os.WriteFile(p, []byte("from\nfile\n"), 0600))
			return p
		})
		args.Let(s, func(t *testcase.T) []string {
			return []string{path.Get(t)}
		})

		s.Then("the file is read instead of the body", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, cli.ExitCodeOK, w.Code)
			assert.Equal(t, ".value(from)\n.value(file)\n.completed(.finished)\n", w.Out.String())
		})

		s.And("the file does not exist", func(s *testcase.Spec) {
			path.Let(s, func(t *testcase.T) string {
				return filepath.Join(t.TempDir(), "missing.txt")
			})

			s.Then("the error is reported", func(t *testcase.T) {
				w := act(t)
				assert.Equal(t, cli.ExitCodeError, w.Code)
				assert.Contains(t, w.Out.String(), "missing.txt")
			})
		})
	})

	s.When("the file argument is a dash", func(s *testcase.Spec) {
		args.Let(s, func(t *testcase.T) []string {
			return []string{"-"}
		})

		s.Then("the body is read", func(t *testcase.T) {
			w := act(t)
			assert.Equal(t, ".value(foo)\n.value(bar)\n.value(baz)\n.completed(.finished)\n", w.Out.String())
		})
	})

	s.When("the context is cancelled while the input is idle", func(s *testcase.Spec) {
		body.Let(s, func(t *testcase.T) io.Reader {
			pr, pw := io.Pipe()
			t.Defer(pw.Close)
			go pw.Write([]byte("foo\n"))
			return pr
		})

		s.Then("the command returns with the events read so far", func(t *testcase.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			logger.Get(t).Hijack = func(_ context.Context, _ logging.Level, _ string, fields logging.Fields) {
				if fields["event"] == "value" {
					cancel()
				}
			}

			w := &cli.ResponseRecorder{}
			r := (&cli.Request{Args: args.Get(t), Body: body.Get(t)}).WithContext(ctx)
			assert.Within(t, time.Second, func(context.Context) {
				cli.ServeCLI(evdump.Command{Logger: logger.Get(t)}, w, r)
			})
			assert.Equal(t, cli.ExitCodeOK, w.Code)
			assert.Equal(t, ".value(foo)\n.completed(.finished)\n", w.Out.String())
		})
	})
}
