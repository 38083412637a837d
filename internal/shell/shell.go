package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/gradebook/internal/app"
)

const prompt = "gradebook> "

// Shell reads commands line by line and renders results as text. It owns no
// state beyond the service it drives.
type Shell struct {
	service *app.Service
	out     io.Writer
	prompt  bool
}

type Option func(*Shell)

// WithPrompt prints a prompt before each line. Off by default so scripted
// runs produce clean output.
func WithPrompt() Option {
	return func(s *Shell) {
		s.prompt = true
	}
}

func New(service *app.Service, out io.Writer, opts ...Option) *Shell {
	s := &Shell{service: service, out: out}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes in until EOF, quit, or ctx is cancelled. Command failures are
// printed and do not stop the loop.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.prompt {
			fmt.Fprint(s.out, prompt)
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		quit, err := s.Execute(ctx, line)
		if err != nil {
			logger.Debug.Printf("Command %q failed: %v", line, err)
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// Execute runs a single command line. quit is true for quit and exit.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool, err error) {
	args, err := Split(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd := strings.ToLower(args[0])
	switch cmd {
	case "quit", "exit":
		return true, nil
	}

	handler, ok := s.routeCommands(cmd)
	if !ok {
		return false, fmt.Errorf("unknown command %q, type help for the list of commands", args[0])
	}
	return false, handler(ctx, args[1:])
}
