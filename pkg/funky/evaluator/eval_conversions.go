package evaluator

import (
	"fmt"
	"strconv"

	"github.com/sambeau/funky/pkg/funky/errors"
)

// Conversion builtins: type_of, to_string, to_int, to_float.

// TypeKey is the map entry that gives a map a custom type_of name.
const TypeKey = "__type__"

// TypeName returns the name type_of reports for d.
func TypeName(d *Data) string {
	if d.Kind() == KindMap {
		if t, ok := d.Map().Get(TypeKey); ok && t.Kind() == KindString {
			return t.Str()
		}
	}
	return d.Kind().String()
}

func builtinTypeOf(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}
	f.SetReturn(newString(f.rt, v.Token(), TypeName(v)))
}

func builtinToString(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}

	var s string
	switch v.Kind() {
	case KindBool:
		s = strconv.FormatBool(v.Bool())
	case KindInt:
		s = strconv.FormatInt(v.Int(), 10)
	case KindFloat:
		s = fmt.Sprintf("%f", v.Float())
	case KindString:
		s = v.Str()
	default:
		f.Report(v.Token(), errors.NewExpected("bool, int, float or string"))
		return
	}
	f.SetReturn(newString(f.rt, v.Token(), s))
}

func builtinToInt(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}

	var n int64
	switch v.Kind() {
	case KindString:
		parsed, ok := parseInt(v.Str())
		if !ok {
			f.Report(v.Token(), errors.New("DOMAIN-0007", map[string]any{"Type": "int"}))
			return
		}
		n = parsed
	case KindFloat:
		n = int64(v.Float())
	default:
		f.Report(v.Token(), errors.NewExpected("string or float"))
		return
	}
	f.SetReturn(newInt(f.rt, v.Token(), n))
}

func builtinToFloat(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}

	var x float64
	switch v.Kind() {
	case KindString:
		parsed, ok := parseFloat(v.Str())
		if !ok {
			f.Report(v.Token(), errors.New("DOMAIN-0007", map[string]any{"Type": "float"}))
			return
		}
		x = parsed
	case KindInt:
		x = float64(v.Int())
	default:
		f.Report(v.Token(), errors.NewExpected("string or int"))
		return
	}
	f.SetReturn(newFloat(f.rt, v.Token(), x))
}

// parseInt accepts an optional leading '-' followed by digits.
func parseInt(s string) (int64, bool) {
	if !isNumeral(s, false) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

// parseFloat accepts an optional leading '-', digits and at most one '.'.
func parseFloat(s string) (float64, bool) {
	if !isNumeral(s, true) {
		return 0, false
	}
	x, err := strconv.ParseFloat(s, 64)
	return x, err == nil
}

// isNumeral reports whether s is a number literal in script syntax.
func isNumeral(s string, allowDot bool) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '-' && i == 0:
		case c == '.' && allowDot:
			dots++
		case c >= '0' && c <= '9':
			digits++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
