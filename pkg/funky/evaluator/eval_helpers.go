package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// Fresh result values. Results are never const, whatever they came from.

func newBool(rt *Runtime, tok lexer.Token, v bool) *Data {
	d := rt.Heap.New(KindBool, false, tok)
	d.SetBool(v)
	return d
}

func newInt(rt *Runtime, tok lexer.Token, v int64) *Data {
	d := rt.Heap.New(KindInt, false, tok)
	d.SetInt(v)
	return d
}

func newFloat(rt *Runtime, tok lexer.Token, v float64) *Data {
	d := rt.Heap.New(KindFloat, false, tok)
	d.SetFloat(v)
	return d
}

func newString(rt *Runtime, tok lexer.Token, v string) *Data {
	d := rt.Heap.New(KindString, false, tok)
	d.SetString(v)
	return d
}

// stringArg evaluates argument i and requires a string, reporting
// "expected <what>" otherwise.
func stringArg(f *Frame, i int, what string) (string, *Data, bool) {
	d := f.Arg(i)
	if d == nil {
		return "", nil, false
	}
	if d.Kind() != KindString {
		f.Report(d.Token(), errors.NewExpected(what))
		return "", d, false
	}
	return d.Str(), d, true
}

// boolArg evaluates argument i and requires a bool condition.
func boolArg(f *Frame, i int) (bool, bool) {
	d := f.Arg(i)
	if d == nil {
		return false, false
	}
	if d.Kind() != KindBool {
		f.Report(d.Token(), errors.NewExpected("boolean"))
		return false, false
	}
	return d.Bool(), true
}

// evalArgs evaluates arguments from..to-1, stopping at the first missing value.
func evalArgs(f *Frame, from, to int) ([]*Data, bool) {
	out := make([]*Data, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		d := f.Arg(i)
		if d == nil {
			return nil, false
		}
		out = append(out, d)
	}
	return out, true
}

// paramNames evaluates arguments from..to-1 as parameter name strings.
func paramNames(f *Frame, from, to int) ([]string, bool) {
	var names []string
	for i := from; i < to; i++ {
		d := f.Arg(i)
		if d == nil {
			return nil, false
		}
		if err := d.AffirmKind(KindString); err != nil {
			f.Report(d.Token(), errors.NewExpected("parameter name"))
			return nil, false
		}
		names = append(names, d.Str())
	}
	return names, true
}

// scopeFrame is where a binding made by f lands: the enclosing block, or f
// itself at the root.
func scopeFrame(f *Frame) *Frame {
	if f.parent != nil {
		return f.parent
	}
	return f
}

// visibleNames lists every variable reachable from f, nearest first.
func visibleNames(f *Frame) []string {
	seen := map[string]bool{}
	var names []string
	for cur := f; cur != nil; cur = cur.parent {
		for name := range cur.locals {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func withHint(err *errors.ScriptError, name string, candidates []string) *errors.ScriptError {
	if suggestion := errors.FindClosestMatch(name, candidates); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
