package parser

import (
	"strconv"
	"strings"
	"testing"

	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// render prints a parsed tree back in a normalised form.
func render(e evaluator.Expr) string {
	switch v := e.(type) {
	case *evaluator.Node:
		parts := make([]string, len(v.Args))
		for i, arg := range v.Args {
			parts[i] = render(arg)
		}
		return v.Name + "(" + strings.Join(parts, " ") + ")"
	case *evaluator.Data:
		switch v.Kind() {
		case evaluator.KindString:
			return strconv.Quote(v.Str())
		case evaluator.KindList:
			return "list"
		case evaluator.KindMap:
			return "map"
		default:
			return evaluator.Inspect(v)
		}
	}
	return "?"
}

func parse(t *testing.T, input string) (*evaluator.Node, *evaluator.Heap) {
	t.Helper()
	heap := evaluator.NewHeap(100)
	root, err := New(lexer.NewSource("main.funky", input), heap).ParseProgram()
	if err != nil {
		t.Fatalf("parse %q: %s", input, err.Diagnostic())
	}
	return root, heap
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single call", `do(print(1))`, `do(print(1))`},
		{"literal kinds", `function( print("hi" 2.5 -3 true false) )`, `function(print("hi" 2.5 -3 true false))`},
		{"empty container literals", `do(set_copy("l" list) set_copy("m" map))`, `do(set_copy("l" list) set_copy("m" map))`},
		{"list constructor", `list(1 2)`, `list(1 2)`},
		{"constructor after a space", `do(map ("a" 1))`, `do(map("a" 1))`},
		{"space before paren", `print (1)`, `print(1)`},
		{"no spaces between calls", `do(print(1)print(2))`, `do(print(1) print(2))`},
		{"parens inside strings", `print(")" "(")`, `print(")" "(")`},
		{"comments", "do(/* ( */ print(1) // )\n)", `do(print(1))`},
		{"leading comment", "// entry\ndo()", `do()`},
		{"mixed whitespace", "do(\r\n\tprint(1)\r\n)", `do(print(1))`},
		{"empty string", `print("")`, `print("")`},
		{"float without fraction digits", `print(1.)`, `print(1)`},
		{"negative float", `print(-0.5)`, `print(-0.5)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _ := parse(t, tt.input)
			if got := render(root); got != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"empty program", ``, "SYNTAX-0007"},
		{"only blanks", "  \n // nothing\n", "SYNTAX-0007"},
		{"literal root", `42`, "SYNTAX-0007"},
		{"trailing paren", `do())`, "SYNTAX-0008"},
		{"two roots", `do() do()`, "SYNTAX-0008"},
		{"unknown builtin", `pritn(1)`, "SYNTAX-0001"},
		{"split name", `do(pri nt(1))`, "SYNTAX-0001"},
		{"unclosed call", `print(1`, "SYNTAX-0003"},
		{"unclosed nested call", `do(print(1)`, "SYNTAX-0003"},
		{"name at end", `print`, "SYNTAX-0009"},
		{"name without call", `print x`, "SYNTAX-0002"},
		{"unterminated string at root", `"abc`, "SYNTAX-0004"},
		{"unterminated string in call", `print("abc)`, "SYNTAX-0003"},
		{"unterminated comment", `/* abc`, "SYNTAX-0005"},
		{"two dots", `print(1.2.3)`, "SYNTAX-0002"},
		{"letter in number", `print(12a)`, "SYNTAX-0002"},
		{"lone minus", `print(-)`, "SYNTAX-0006"},
		{"lone minus dot", `print(-.)`, "SYNTAX-0006"},
		{"int overflow", `print(99999999999999999999)`, "SYNTAX-0006"},
		{"stray character", `print(#)`, "SYNTAX-0002"},
		{"keyword glued to symbol", `print(true#)`, "SYNTAX-0002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			heap := evaluator.NewHeap(100)
			_, err := New(lexer.NewSource("main.funky", tt.input), heap).ParseProgram()
			if err == nil {
				t.Fatalf("expected %s", tt.code)
			}
			if err.Code != tt.code {
				t.Errorf("got %s (%s), want %s", err.Code, err.Message, tt.code)
			}
			if live := heap.Live(); live != 0 {
				t.Errorf("%d literals left allocated after failed parse", live)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	heap := evaluator.NewHeap(100)
	_, err := Parse(lexer.NewSource("main.funky", "do(\n  pritn(1))"), heap)
	if err == nil {
		t.Fatal("expected error")
	}

	want := "in 'main.funky' on line 2 col 3\n" +
		"undefined 'pritn':\n" +
		"  pritn(1))\n" +
		"--^--------\n" +
		"  Did you mean `print`?"

	type diagnostic interface{ Diagnostic() string }
	d, ok := err.(diagnostic)
	if !ok {
		t.Fatalf("error %T has no diagnostic form", err)
	}
	if got := d.Diagnostic(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestLiteralTokens(t *testing.T) {
	root, _ := parse(t, "do(\n\tprint(\"x\" 12))")

	call := root.Args[0].(*evaluator.Node)
	if tok := call.Token(); tok.Row != 2 || tok.Col != 2 {
		t.Errorf("print at %d:%d, want 2:2", tok.Row, tok.Col)
	}

	str := call.Args[0].(*evaluator.Data)
	if tok := str.Token(); tok.Row != 2 || tok.Col != 8 {
		t.Errorf("string at %d:%d, want 2:8", tok.Row, tok.Col)
	}
	if !str.IsConst() {
		t.Error("literals must be const")
	}
	if call.Parent != root {
		t.Error("nested call should link to its parent")
	}
}

func TestFreeReleasesLiterals(t *testing.T) {
	root, heap := parse(t, `do(print(1 "a" 2.0 true list map) list(3))`)
	if live := heap.Live(); live != 7 {
		t.Fatalf("got %d live literals, want 7", live)
	}
	root.Free()
	if live := heap.Live(); live != 0 {
		t.Errorf("got %d live handles after Free, want 0", live)
	}
}
