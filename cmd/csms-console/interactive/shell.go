package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
)

// Shell is the interactive read-eval loop around a Console.
type Shell struct {
	console *Console
	rl      *readline.Instance
}

// NewShell creates a shell for console. The console's output is redirected
// through the line editor.
func NewShell(console *Console, historyFile string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "csms> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	console.SetOutput(rl.Stdout())
	return &Shell{console: console, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run reads and executes commands until quit, end of input or ctx is done.
// It calls cancel on exit.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()
	defer cancel()

	_ = s.console.Execute(ctx, []string{"help"})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		err = s.console.ExecuteLine(ctx, input)
		if errors.Is(err, ErrQuit) {
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}
		if err != nil {
			fmt.Fprintf(s.rl.Stderr(), "Error: %s\n", Describe(err))
		}
	}
}

// completer completes command names, reboot types, availability words and
// method names for call.
func completer() *readline.PrefixCompleter {
	methods := make([]readline.PrefixCompleterInterface, 0, len(csms.Methods()))
	for _, m := range csms.Methods() {
		methods = append(methods, readline.PcItem(m.Name))
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, cmd := range commands {
		switch cmd.name {
		case "call":
			items = append(items, readline.PcItem(cmd.name, methods...))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}
