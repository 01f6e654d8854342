// Package errors provides the structured error type shared by the funky
// preprocessor, parser and evaluator.
//
// Every ScriptError carries a class, a catalog code and, when it was raised
// against source text, the position and line it points at. Diagnostic renders
// the positioned form printed to users:
//
//	in 'main.funky' on line 1 col 10
//	undefined 'fooo':
//	function(fooo(1))
//	---------^-------
package errors

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and exit codes.
type ErrorClass string

const (
	ClassSyntax   ErrorClass = "syntax"   // Preprocessing and parse failures
	ClassType     ErrorClass = "type"     // Operand or argument of the wrong type
	ClassConst    ErrorClass = "const"    // Mutation through a const handle
	ClassDomain   ErrorClass = "domain"   // Missing names, bad indices, failed conversions
	ClassArity    ErrorClass = "arity"    // Too few arguments
	ClassIO       ErrorClass = "io"       // Includes, input, host file access
	ClassResource ErrorClass = "resource" // Limits such as include or call depth
)

// ScriptError represents any error raised while loading or running a script.
type ScriptError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	File    string         `json:"file,omitempty"`
	Line    int            `json:"line"`   // 1-based row (0 if unknown)
	Column  int            `json:"column"` // 1-based column (0 if unknown)
	Data    map[string]any `json:"data,omitempty"`

	// SourceLine is the text of the offending line and Offset the byte offset
	// of the offending character inside it. Both are only set when the error
	// was positioned against source text.
	SourceLine string `json:"-"`
	Offset     int    `json:"-"`
	positioned bool
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return e.String()
}

// String returns the compact one-line form, followed by any hints.
func (e *ScriptError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// Diagnostic returns the positioned, multi-line form with the offending line
// and a caret under the offending column. Errors without a source position
// fall back to String.
func (e *ScriptError) Diagnostic() string {
	if !e.positioned {
		return e.String()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "in '%s' on line %d col %d\n", e.File, e.Line, e.Column)
	sb.WriteString(e.Message)
	sb.WriteString(":\n")
	sb.WriteString(e.SourceLine)
	sb.WriteString("\n")
	sb.WriteString(Underline(e.SourceLine, e.Offset))

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// Underline draws a dashed rule the width of line with a caret at offset.
// Tabs widen the rule so the caret lines up in a terminal.
func Underline(line string, offset int) string {
	var sb strings.Builder
	for i := 0; i < offset && i < len(line); i++ {
		if line[i] == '\t' {
			sb.WriteString("--------")
		} else {
			sb.WriteByte('-')
		}
	}
	sb.WriteByte('^')
	for i := offset + 1; i < len(line); i++ {
		if line[i] == '\t' {
			sb.WriteString("---")
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// At returns a copy of the error positioned against a line of source text.
func (e *ScriptError) At(file string, line, column int, sourceLine string, offset int) *ScriptError {
	c := *e
	c.File = file
	c.Line = line
	c.Column = column
	c.SourceLine = sourceLine
	c.Offset = offset
	c.positioned = true
	return &c
}

// WithFile returns a copy of the error with the file path set.
func (e *ScriptError) WithFile(file string) *ScriptError {
	c := *e
	c.File = file
	return &c
}

// Positioned reports whether the error points at source text.
func (e *ScriptError) Positioned() bool {
	return e.positioned
}

// IsSyntaxError reports whether this error aborted a load.
func (e *ScriptError) IsSyntaxError() bool {
	return e.Class == ClassSyntax
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Syntax errors (SYNTAX-0xxx)
	// ========================================
	"SYNTAX-0001": {Class: ClassSyntax, Template: "undefined '{{.Name}}'"},
	"SYNTAX-0002": {Class: ClassSyntax, Template: "unexpected '{{.Char}}'"},
	"SYNTAX-0003": {Class: ClassSyntax, Template: "expected ')' missing"},
	"SYNTAX-0004": {Class: ClassSyntax, Template: "unterminated string"},
	"SYNTAX-0005": {Class: ClassSyntax, Template: "unterminated comment"},
	"SYNTAX-0006": {
		Class:    ClassSyntax,
		Template: "malformed number '{{.Literal}}'",
		Hints:    []string{"numbers are an optional '-', digits and at most one '.'"},
	},
	"SYNTAX-0007": {
		Class:    ClassSyntax,
		Template: "expected a root function",
		Hints:    []string{"wrap the program in a call such as function( ... )"},
	},
	"SYNTAX-0008": {Class: ClassSyntax, Template: "unexpected content after root call"},
	"SYNTAX-0009": {Class: ClassSyntax, Template: "unexpected {{.Text}}"},
	"SYNTAX-0010": {Class: ClassSyntax, Template: "missing '\"' after #include"},
	"SYNTAX-0011": {Class: ClassSyntax, Template: "incomplete macro"},
	"SYNTAX-0012": {Class: ClassSyntax, Template: "regex: {{.Pattern}} {{.Reason}}"},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {Class: ClassType, Template: "type mismatch between {{.Left}} and {{.Right}}"},
	"TYPE-0002": {Class: ClassType, Template: "type mismatch"},
	"TYPE-0003": {Class: ClassType, Template: "expected {{.Expected}}"},
	"TYPE-0004": {Class: ClassType, Template: "the {{.What}} is not of type {{.Type}}"},

	// ========================================
	// Const errors (CONST-0xxx)
	// ========================================
	"CONST-0001": {
		Class:    ClassConst,
		Template: "trying to change a constant variable",
		Hints:    []string{"literals are constant; bind a copy with set_copy first"},
	},
	"CONST-0002": {Class: ClassConst, Template: "tried to change const container"},
	"CONST-0003": {Class: ClassConst, Template: "cannot change literal string"},

	// ========================================
	// Domain errors (DOMAIN-0xxx)
	// ========================================
	"DOMAIN-0001": {Class: ClassDomain, Template: "variable is not defined"},
	"DOMAIN-0002": {Class: ClassDomain, Template: "index out of range"},
	"DOMAIN-0003": {Class: ClassDomain, Template: "key not found"},
	"DOMAIN-0004": {Class: ClassDomain, Template: "function not defined"},
	"DOMAIN-0005": {Class: ClassDomain, Template: "function is not defined"},
	"DOMAIN-0006": {Class: ClassDomain, Template: "name is already defined"},
	"DOMAIN-0007": {Class: ClassDomain, Template: "failed to convert string into {{.Type}}"},
	"DOMAIN-0008": {Class: ClassDomain, Template: "division by zero"},
	"DOMAIN-0009": {Class: ClassDomain, Template: "host function '{{.Name}}' failed: {{.Reason}}"},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "too few arguments sent to '{{.Name}}'",
		Hints:    []string{"'{{.Name}}' needs at least {{.Min}} argument(s), got {{.Got}}"},
	},

	// ========================================
	// IO errors (IO-0xxx)
	// ========================================
	"IO-0001": {Class: ClassIO, Template: "failed to include file"},
	"IO-0002": {Class: ClassIO, Template: "failed to read input: {{.Reason}}"},
	"IO-0003": {Class: ClassIO, Template: "failed to read source code at '{{.Path}}'"},
	"IO-0004": {Class: ClassIO, Template: "failed to write '{{.Path}}': {{.Reason}}"},

	// ========================================
	// Resource errors (RESOURCE-0xxx)
	// ========================================
	"RESOURCE-0001": {Class: ClassResource, Template: "maximum call depth exceeded"},
	"RESOURCE-0002": {Class: ClassResource, Template: "include depth exceeded ({{.Limit}} levels)"},
}

// New creates a ScriptError from a catalog entry.
func New(code string, data map[string]any) *ScriptError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &ScriptError{
			Class:   ClassDomain,
			Code:    code,
			Message: fmt.Sprintf("unknown error code: %s", code),
			Data:    data,
		}
	}

	var hints []string
	for _, hintTmpl := range def.Hints {
		if rendered := renderTemplate(hintTmpl, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &ScriptError{
		Class:   def.Class,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Hints:   hints,
		Data:    data,
	}
}

// NewSimple creates an error outside the catalog.
func NewSimple(class ErrorClass, message string) *ScriptError {
	return &ScriptError{Class: class, Message: message}
}

// renderTemplate renders a catalog template; templates without data are
// returned unchanged.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}
	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// threshold grows with the input: 1 edit for short names, 2 for medium, 3 beyond.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch returns the candidate closest to input, or "" when nothing
// is within the length-dependent edit threshold. Exact matches are not
// suggestions.
func FindClosestMatch(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestDistance := "", -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(strings.ToLower(input), strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			best, bestDistance = candidate, dist
		}
	}

	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}
	return best
}

// NewUndefinedBuiltin creates the parse error for an unknown call name, with a
// "Did you mean" hint when a builtin is close enough.
func NewUndefinedBuiltin(name string, builtins []string) *ScriptError {
	err := New("SYNTAX-0001", map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, builtins); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}

// NewArity creates the error for a call with fewer than min arguments.
func NewArity(name string, minArgs, got int) *ScriptError {
	return New("ARITY-0001", map[string]any{"Name": name, "Min": minArgs, "Got": got})
}

// NewExpected creates a TYPE-0003 error such as "expected list or map".
func NewExpected(expected string) *ScriptError {
	return New("TYPE-0003", map[string]any{"Expected": expected})
}
