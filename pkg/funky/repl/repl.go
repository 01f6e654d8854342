package repl

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/pool"
	"github.com/sambeau/funky/pkg/funky/script"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const FUNKY_LOGO = `
█▀▀ █░█ █▄░█ █▄▀ █▄█
█▀░ █▄█ █░▀█ █░█ ░█░ `

// Config controls a REPL session. Options configures the runtime every
// entry runs in; its Logger and Reporter default to Out.
type Config struct {
	Version     string
	HistoryFile string
	Out         io.Writer
	Options     script.Options
}

// Start starts the REPL with line editing, history, and tab completion.
// It returns when the user quits, or with the pool error when a value
// pool runs out.
func Start(cfg Config) error {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	out := cfg.Out

	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(cfg.HistoryFile); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}()
	}

	session := NewSession(out, cfg.Options)
	defer session.Close()

	fmt.Fprintf(out, "%s", FUNKY_LOGO)
	fmt.Fprintln(out, "v", cfg.Version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type ':quit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			if !session.Command(trimmed) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}
		line.AppendHistory(fullInput)
		inputBuffer.Reset()

		if err := session.Eval(fullInput); err != nil {
			fmt.Fprintf(out, "[FATAL] %v\n", err)
			return err
		}
	}
}

// Session is the state one REPL keeps between entries: a runtime, the
// top-level scope bindings live in, and every script entered so far.
// Scripts stay loaded because functions defined by an entry point into
// its call tree.
type Session struct {
	out     io.Writer
	opts    script.Options
	rt      *evaluator.Runtime
	scope   *evaluator.Scope
	scripts []*script.Script
}

// NewSession creates a session writing results to out.
func NewSession(out io.Writer, opts script.Options) *Session {
	if opts.Logger == nil {
		opts.Logger = script.WriterLogger(out)
	}
	if opts.Reporter == nil {
		opts.Reporter = script.WriterReporter(out)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	s := &Session{out: out, opts: opts}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.rt = script.NewRuntime(s.opts)
	s.scope = s.rt.NewScope()
}

// Runtime returns the runtime entries run in.
func (s *Session) Runtime() *evaluator.Runtime { return s.rt }

// Eval loads and runs one entry. A value produced by the entry is printed.
// Only pool exhaustion is returned; other problems are printed and the
// session carries on.
func (s *Session) Eval(input string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var pe *pool.ExhaustedError
			if e, ok := r.(error); ok && stderrors.As(e, &pe) {
				err = pe
				return
			}
			panic(r)
		}
	}()

	opts := s.opts
	opts.Runtime = s.rt
	sc, lerr := script.LoadString("<repl>", input, opts)
	if lerr != nil {
		printLoadError(s.out, lerr)
		return nil
	}
	s.scripts = append(s.scripts, sc)

	if res := sc.EvalIn(s.scope); res != nil {
		fmt.Fprintln(s.out, evaluator.Inspect(res))
		res.Free()
	}
	return nil
}

// Command handles REPL meta-commands that start with ':'. It returns false
// when the session should end.
func (s *Session) Command(cmd string) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :env            Show variables in scope")
		fmt.Fprintln(s.out, "  :clear          Clear all variables")
		fmt.Fprintln(s.out, "  :builtins       List builtin functions")
		fmt.Fprintln(s.out, "  :quit, :q       Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "Each entry is one call, e.g. set_copy(\"x\" 1) or add(get(\"x\") 2)")
	case ":env":
		s.printEnvironment()
	case ":clear":
		s.Close()
		s.reset()
		fmt.Fprintln(s.out, "Environment cleared")
	case ":builtins":
		fmt.Fprintln(s.out, strings.Join(evaluator.BuiltinNames(), " "))
	case ":quit", ":q", ":exit":
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return true
}

// Close frees the scope and every loaded entry.
func (s *Session) Close() {
	s.scope.Close()
	for _, sc := range s.scripts {
		sc.Close()
	}
	s.scripts = nil
}

// printEnvironment displays all variables bound in the session scope
func (s *Session) printEnvironment() {
	names := s.scope.Names()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "(no variables)")
		return
	}
	sort.Strings(names)

	for _, name := range names {
		d, _ := s.scope.Get(name)
		value := evaluator.Inspect(d)
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		fmt.Fprintf(s.out, "  %s: %s = %s\n", name, d.Kind(), value)
	}
}

func printLoadError(out io.Writer, err error) {
	var se *errors.ScriptError
	if stderrors.As(err, &se) {
		fmt.Fprintf(out, "[ERROR] %s\n", se.Diagnostic())
		return
	}
	fmt.Fprintf(out, "[ERROR] %v\n", err)
}

// filterCompletions completes the builtin name being typed at the end of
// line. liner replaces the whole line, so each candidate carries the text
// before the word.
func filterCompletions(line string) []string {
	if strings.Count(line, `"`)%2 == 1 {
		return nil
	}

	start := len(line)
	for start > 0 && isNameChar(line[start-1]) {
		start--
	}
	word := line[start:]
	if word == "" {
		return nil
	}

	var matches []string
	for _, name := range evaluator.BuiltinNames() {
		if strings.HasPrefix(name, word) {
			matches = append(matches, line[:start]+name)
		}
	}
	return matches
}

func isNameChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// needsMoreInput checks if the input has unclosed parentheses, strings or
// block comments
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	parenCount := 0
	for i := 0; i < len(input); i++ {
		switch {
		case input[i] == '"':
			end := strings.IndexByte(input[i+1:], '"')
			if end < 0 {
				return true
			}
			i += end + 1
		case strings.HasPrefix(input[i:], "//"):
			end := strings.IndexByte(input[i:], '\n')
			if end < 0 {
				return parenCount > 0
			}
			i += end
		case strings.HasPrefix(input[i:], "/*"):
			end := strings.Index(input[i+2:], "*/")
			if end < 0 {
				return true
			}
			i += end + 3
		case input[i] == '(':
			parenCount++
		case input[i] == ')':
			parenCount--
		}
	}
	return parenCount > 0
}
