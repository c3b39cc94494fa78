package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/format"
)

// Prompt is printed before every line read.
const Prompt = "codd> "

// IDGenerator produces session IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator produces time-ordered UUIDv7 session IDs.
type UUIDGenerator struct{}

// Generate returns a new UUIDv7, falling back to a random UUID if the
// clock cannot be read.
func (UUIDGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Session is one interactive shell over an environment.
//
// LastSavePath is the path of the most recent \save or workspace \load;
// a bare \save writes there again.
type Session struct {
	Env          *engine.Environment
	Out          io.Writer
	LastSavePath string
	ID           string

	interp   *engine.Interpreter
	errColor *color.Color
	log      *slog.Logger
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	ids        IDGenerator
	color      *bool
	engineOpts []engine.Option
}

// WithIDGenerator sets the session ID source. Defaults to UUIDGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *sessionConfig) {
		c.ids = g
	}
}

// WithColor forces colored error output on or off. By default color
// follows whether stdout is a terminal.
func WithColor(enabled bool) Option {
	return func(c *sessionConfig) {
		c.color = &enabled
	}
}

// WithEngineOptions passes options to the session's executor.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *sessionConfig) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// NewSession creates a session evaluating against env and writing to out.
// A nil env starts empty.
func NewSession(env *engine.Environment, out io.Writer, opts ...Option) *Session {
	cfg := sessionConfig{ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if env == nil {
		env = engine.NewEnvironment()
	}

	errColor := color.New(color.FgRed)
	if cfg.color != nil {
		if *cfg.color {
			errColor.EnableColor()
		} else {
			errColor.DisableColor()
		}
	}

	id := cfg.ids.Generate()
	return &Session{
		Env:      env,
		Out:      out,
		ID:       id,
		interp:   engine.NewInterpreter(env, cfg.engineOpts...),
		errColor: errColor,
		log:      slog.Default().With("session", id),
	}
}

// HandleLine evaluates one line of input: a meta-command starting with a
// backslash, or a statement. It reports whether the session should end.
func (s *Session) HandleLine(line string) bool {
	return s.HandleLineContext(context.Background(), line)
}

// HandleLineContext is HandleLine with a context for file and database
// access.
func (s *Session) HandleLineContext(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, `\`) {
		return s.command(ctx, line)
	}

	s.log.Debug("evaluating", "source", line)
	res, err := s.interp.Eval(line)
	if err != nil {
		s.printError(err)
	} else {
		fmt.Fprintln(s.Out, format.Result(res))
	}
	fmt.Fprintln(s.Out)
	return false
}

func (s *Session) printf(msg string, args ...any) {
	fmt.Fprintf(s.Out, msg, args...)
}

func (s *Session) printError(err error) {
	s.log.Debug("command failed", "error", err)
	s.errColor.Fprintf(s.Out, "Error: %v\n", err)
}

func (s *Session) errorf(msg string, args ...any) {
	s.printError(fmt.Errorf(msg, args...))
}
