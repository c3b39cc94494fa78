package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Banner is printed when Run starts, followed by the session ID.
const Banner = "Codd relational algebra REPL\nType \\help for commands, \\quit to exit.\n"

// Run reads lines from in until \quit, end of input or ctx is done.
//
// When in is a terminal it is switched to raw mode and read through
// term.Terminal, which gives line editing and history. Any other reader
// is scanned line by line.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.log.Info("session started")
	defer s.log.Info("session ended")

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return s.runTerminal(ctx, f)
	}
	return s.runScanner(ctx, in)
}

func (s *Session) runTerminal(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	out := s.Out
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, out}, Prompt)
	// Raw mode needs \r\n line endings, which the terminal writer adds.
	s.Out = t
	defer func() { s.Out = out }()

	s.banner(t)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := t.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(t)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		if s.HandleLineContext(ctx, line) {
			return nil
		}
	}
}

func (s *Session) runScanner(ctx context.Context, in io.Reader) error {
	s.banner(s.Out)
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.Out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.Out)
			return scanner.Err()
		}
		if s.HandleLineContext(ctx, scanner.Text()) {
			return nil
		}
	}
}

func (s *Session) banner(w io.Writer) {
	fmt.Fprint(w, Banner)
	fmt.Fprintf(w, "Session %s\n", s.ID)
}
