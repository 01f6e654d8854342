package evaluator

import (
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/sambeau/funky/pkg/funky/errors"
)

// Inspect renders d the way print writes it: lists as [a, b], maps as
// [{k: v}, ...] in key order, floats with six significant digits.
func Inspect(d *Data) string {
	var sb strings.Builder
	writeValue(&sb, d)
	return sb.String()
}

func writeValue(sb *strings.Builder, d *Data) {
	switch d.Kind() {
	case KindBool:
		sb.WriteString(strconv.FormatBool(d.Bool()))
	case KindInt:
		sb.WriteString(strconv.FormatInt(d.Int(), 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(d.Float(), 'g', 6, 64))
	case KindString:
		sb.WriteString(d.Str())
	case KindList:
		sb.WriteByte('[')
		d.List().Each(func(i int, el *Data) {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, el)
		})
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('[')
		i := 0
		d.Map().Each(func(key string, el *Data) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("{" + key + ": ")
			writeValue(sb, el)
			sb.WriteByte('}')
			i++
		})
		sb.WriteByte(']')
	case KindFunction:
		sb.WriteString("function()")
	}
}

func builtinPrint(f *Frame) {
	for i := range f.node.Args {
		v := f.Arg(i)
		if v == nil {
			return
		}
		f.rt.Logger.Log(Inspect(v))
	}
}

// builtinInput reads one whitespace-delimited word into each argument, parsed
// according to the argument's kind.
func builtinInput(f *Frame) {
	for i := range f.node.Args {
		target := f.Arg(i)
		if target == nil {
			return
		}
		if target.Kind() > KindString {
			f.Report(target.Token(), errors.NewExpected("bool, int, float or string"))
			return
		}
		if target.IsConst() {
			f.Report(target.Token(), errors.New("CONST-0001", nil))
			return
		}

		word, err := readWord(f.rt.input())
		if err != nil {
			f.Report(target.Token(), errors.New("IO-0002", map[string]any{"Reason": err.Error()}))
			return
		}

		if !storeWord(target, word) {
			f.Report(target.Token(), errors.New("DOMAIN-0007", map[string]any{"Type": target.Kind().String()}))
			return
		}
	}
}

func storeWord(target *Data, word string) bool {
	switch target.Kind() {
	case KindBool:
		switch word {
		case "true", "1":
			target.SetBool(true)
		case "false", "0":
			target.SetBool(false)
		default:
			return false
		}
	case KindInt:
		n, ok := parseInt(word)
		if !ok {
			return false
		}
		target.SetInt(n)
	case KindFloat:
		x, ok := parseFloat(word)
		if !ok {
			return false
		}
		target.SetFloat(x)
	case KindString:
		target.SetString(word)
	}
	return true
}

// readWord skips leading whitespace and reads up to the next whitespace.
func readWord(r io.RuneScanner) (string, error) {
	var sb strings.Builder
	for {
		c, _, err := r.ReadRune()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if unicode.IsSpace(c) {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			continue
		}
		sb.WriteRune(c)
	}
}
