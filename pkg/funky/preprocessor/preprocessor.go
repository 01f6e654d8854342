// Package preprocessor expands funky source text before parsing.
//
// The passes run in a fixed order:
//
//  1. a leading #log_expanded directive is read and removed
//  2. #include "file" directives are replaced by the file's contents
//  3. string literals are hidden behind @N@ placeholders
//  4. comments are removed
//  5. #macro directives rewrite the text that follows them
//  6. hidden strings are restored
//  7. the expanded text is logged if requested
//  8. \n and \t escapes become newline and tab characters
package preprocessor

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// DefaultMaxIncludeDepth bounds nested #include expansion.
const DefaultMaxIncludeDepth = 64

const (
	logDirective     = "#log_expanded"
	includeDirective = "#include"
	macroDirective   = "#macro"
)

var (
	commentsRe = regexp.MustCompile(`(?://.*)|(?:/\*[\S\s]*?\*/)`)
	groupRe    = regexp.MustCompile(`\$\$(\d+)`)
)

// Options configures a preprocessing run.
type Options struct {
	// Dir is the working directory: includes resolve against it and the
	// #log_expanded file is written into it.
	Dir string

	// FS serves included files. Nil means the OS file system, with
	// relative paths joined to Dir.
	FS fs.FS

	// Info receives [INFO] lines. Nil means stdout.
	Info io.Writer

	MaxIncludeDepth int
}

// Preprocessor runs the passes over one source file.
type Preprocessor struct {
	opts   Options
	hidden []string
}

// New creates a preprocessor, filling in option defaults.
func New(opts Options) *Preprocessor {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Info == nil {
		opts.Info = os.Stdout
	}
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	return &Preprocessor{opts: opts}
}

// Process expands text read from file name and returns the source the
// parser should see.
func Process(name, text string, opts Options) (string, error) {
	out, err := New(opts).Process(name, text)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Process runs every pass over text. name is used only in diagnostics.
func (p *Preprocessor) Process(name, text string) (string, *errors.ScriptError) {
	p.hidden = p.hidden[:0]

	text, logExpanded, logFile := readLogDirective(text)

	text, err := p.applyIncludes(name, text, 0)
	if err != nil {
		return "", err
	}

	text = p.hideStrings(text)
	text = commentsRe.ReplaceAllString(text, "")

	text, err = p.applyMacros(name, text)
	if err != nil {
		return "", err
	}

	text = p.showStrings(text)

	if logExpanded {
		if err := p.logExpanded(text, logFile); err != nil {
			return "", err
		}
	}

	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, `\t`, "\t")
	return text, nil
}

// readLogDirective strips a first-line #log_expanded directive, returning
// the optional quoted file name that follows it.
func readLogDirective(text string) (string, bool, string) {
	if !strings.HasPrefix(text, logDirective) {
		return text, false, ""
	}

	line := text
	rest := ""
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line, rest = text[:i], text[i+1:]
	}

	var file string
	if open := strings.IndexByte(line, '"'); open >= 0 {
		file = line[open+1:]
		if end := strings.IndexByte(file, '"'); end >= 0 {
			file = file[:end]
		}
	}
	return rest, true, file
}

func (p *Preprocessor) logExpanded(text, file string) *errors.ScriptError {
	if file == "" {
		fmt.Fprintf(p.opts.Info, "[INFO] preprocessed code:\n%s\n", text)
		return nil
	}

	target := filepath.Join(p.opts.Dir, file)
	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return errors.New("IO-0004", map[string]any{"Path": target, "Reason": err.Error()})
	}
	fmt.Fprintf(p.opts.Info, "[INFO] preprocessed code logged to %s\n", target)
	return nil
}

// locate positions err at byte index i of text.
func locate(name, text string, i int, err *errors.ScriptError) *errors.ScriptError {
	src := lexer.NewSource(name, text)
	src.MoveAlong(i)
	return src.Token().Locate(err)
}

// skipComment returns the index just past a comment starting at i, or i when
// there is none.
func skipComment(text string, i int) int {
	rest := text[i:]
	switch {
	case strings.HasPrefix(rest, "//"):
		if end := strings.IndexByte(rest, '\n'); end >= 0 {
			return i + end
		}
		return len(text)
	case strings.HasPrefix(rest, "/*"):
		if end := strings.Index(rest[2:], "*/"); end >= 0 {
			return i + 2 + end + 2
		}
		return len(text)
	}
	return i
}

// stringEnd returns the index of the quote closing the literal opened at i,
// or -1.
func stringEnd(text string, i int) int {
	if end := strings.IndexByte(text[i+1:], '"'); end >= 0 {
		return i + 1 + end
	}
	return -1
}

// applyIncludes splices in the contents of every #include outside comments
// and strings. Included text is itself expanded, resolved against the same
// working directory.
func (p *Preprocessor) applyIncludes(name, text string, depth int) (string, *errors.ScriptError) {
	if !strings.Contains(text, includeDirective) {
		return text, nil
	}

	var sb strings.Builder
	i := 0
	for i < len(text) {
		if next := skipComment(text, i); next != i {
			sb.WriteString(text[i:next])
			i = next
			continue
		}

		switch {
		case text[i] == '"':
			end := stringEnd(text, i)
			if end < 0 {
				sb.WriteString(text[i:])
				return sb.String(), nil
			}
			sb.WriteString(text[i : end+1])
			i = end + 1

		case strings.HasPrefix(text[i:], includeDirective):
			file, next, ok := includeTarget(text, i+len(includeDirective))
			if !ok {
				return "", locate(name, text, i, errors.New("SYNTAX-0010", nil))
			}
			if depth >= p.opts.MaxIncludeDepth {
				return "", locate(name, text, i, errors.New("RESOURCE-0002", map[string]any{"Limit": p.opts.MaxIncludeDepth}))
			}

			contents, err := p.readInclude(file)
			if err != nil {
				se := errors.New("IO-0001", nil)
				se.Hints = append(se.Hints, err.Error())
				return "", locate(name, text, i, se)
			}

			expanded, serr := p.applyIncludes(file, string(contents), depth+1)
			if serr != nil {
				return "", serr
			}
			sb.WriteString(expanded)
			i = next

		default:
			sb.WriteByte(text[i])
			i++
		}
	}
	return sb.String(), nil
}

// readInclude reads an included file. Without an injected FS the path is
// joined to the working directory, so parent-relative and absolute paths
// work as well.
func (p *Preprocessor) readInclude(file string) ([]byte, error) {
	if p.opts.FS != nil {
		return fs.ReadFile(p.opts.FS, path.Clean(filepath.ToSlash(file)))
	}
	if filepath.IsAbs(file) {
		return os.ReadFile(file)
	}
	return os.ReadFile(filepath.Join(p.opts.Dir, file))
}

// includeTarget reads the quoted path after an #include directive. It
// returns the path and the index after the closing quote.
func includeTarget(text string, i int) (string, int, bool) {
	open := strings.IndexByte(text[i:], '"')
	if open < 0 {
		return "", 0, false
	}
	start := i + open + 1
	end := strings.IndexByte(text[start:], '"')
	if end < 0 {
		return "", 0, false
	}
	return text[start : start+end], start + end + 1, true
}

// hideStrings replaces every string literal outside comments and #macro lines
// with a placeholder so that later passes cannot touch its contents.
func (p *Preprocessor) hideStrings(text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if next := skipComment(text, i); next != i {
			sb.WriteString(text[i:next])
			i = next
			continue
		}

		switch {
		case strings.HasPrefix(text[i:], macroDirective):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				sb.WriteString(text[i:])
				return sb.String()
			}
			sb.WriteString(text[i : i+end])
			i += end

		case text[i] == '"':
			end := stringEnd(text, i)
			if end < 0 {
				sb.WriteString(text[i:])
				return sb.String()
			}
			sb.WriteString("@" + strconv.Itoa(len(p.hidden)) + "@")
			p.hidden = append(p.hidden, text[i:end+1])
			i = end + 1

		default:
			sb.WriteByte(text[i])
			i++
		}
	}
	return sb.String()
}

func (p *Preprocessor) showStrings(text string) string {
	if len(p.hidden) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(p.hidden))
	for i, s := range p.hidden {
		pairs = append(pairs, "@"+strconv.Itoa(i)+"@", s)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// applyMacros handles each #macro directive in turn. The pattern is the word
// after the directive, with $name and $any as shorthands, and the rest of the
// line is the replacement. It rewrites only the text after the directive
// line, and the directive itself is removed.
func (p *Preprocessor) applyMacros(name, text string) (string, *errors.ScriptError) {
	from := 0
	for {
		idx := strings.Index(text[from:], macroDirective)
		if idx < 0 {
			return text, nil
		}
		start := from + idx

		patternStart := start + len(macroDirective) + 1
		if patternStart > len(text) {
			return "", locate(name, text, len(text), errors.New("SYNTAX-0011", nil))
		}
		patternLen := strings.IndexAny(text[patternStart:], " \t\r\n")
		if patternLen < 0 {
			return "", locate(name, text, len(text), errors.New("SYNTAX-0011", nil))
		}
		pattern := text[patternStart : patternStart+patternLen]

		expansionStart := patternStart + patternLen + 1
		expansion, rest := text[expansionStart:], ""
		if text[patternStart+patternLen] == '\n' {
			expansion, rest = "", text[expansionStart:]
		} else if nl := strings.IndexByte(expansion, '\n'); nl >= 0 {
			expansion, rest = expansion[:nl], expansion[nl+1:]
		}

		pattern = strings.ReplaceAll(pattern, "$name", "[a-zA-Z_][a-zA-Z0-9_]*")
		pattern = strings.ReplaceAll(pattern, "$any", `[\S\s]*?`)

		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", locate(name, text, start, errors.New("SYNTAX-0012", map[string]any{
				"Pattern": pattern,
				"Reason":  err.Error(),
			}))
		}

		// every '$' is literal except group references; $1 followed by a
		// letter still means group 1
		expansion = strings.ReplaceAll(expansion, "$", "$$")
		expansion = groupRe.ReplaceAllString(expansion, "$${${1}}")

		text = text[:start] + re.ReplaceAllString(rest, expansion)
		from = start
	}
}
