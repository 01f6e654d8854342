package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
)

// Container builtins: list, map, push_copy, push_ref, get_elem, rem_elem,
// has_key, count, keys.

// builtinList builds a fresh, mutable list holding copies of its arguments.
func builtinList(f *Frame) {
	d := f.rt.Heap.New(KindList, false, f.node.Tok)
	d.Init()
	for i := range f.node.Args {
		v := f.Arg(i)
		if v == nil {
			d.Free()
			return
		}
		d.List().Append(v.Copy())
	}
	f.SetReturn(d)
}

// builtinMap builds a fresh, mutable map from key/value argument pairs.
func builtinMap(f *Frame) {
	d := f.rt.Heap.New(KindMap, false, f.node.Tok)
	d.Init()
	if !putPairs(f, d.Map(), 0, (*Data).Copy) {
		d.Free()
		return
	}
	f.SetReturn(d)
}

func builtinPushCopy(f *Frame) {
	pushElements(f, (*Data).Copy)
}

func builtinPushRef(f *Frame) {
	pushElements(f, (*Data).Alias)
}

func pushElements(f *Frame, dup func(*Data) *Data) {
	if !f.CheckArguments(1) {
		return
	}

	c := f.Arg(0)
	if c == nil {
		return
	}
	if c.Kind() != KindList && c.Kind() != KindMap {
		f.Report(c.Token(), errors.NewExpected("list or map"))
		return
	}
	if c.IsConst() {
		f.Report(c.Token(), errors.New("CONST-0002", nil))
		return
	}

	if c.Kind() == KindList {
		for i := 1; i < f.NumArgs(); i++ {
			v := f.Arg(i)
			if v == nil {
				return
			}
			c.List().Append(dup(v))
		}
		return
	}
	putPairs(f, c.Map(), 1, dup)
}

// putPairs stores key/value argument pairs starting at from. A trailing key
// without a value is ignored.
func putPairs(f *Frame, m *Map, from int, dup func(*Data) *Data) bool {
	for i := from; i+1 < f.NumArgs(); i += 2 {
		key, _, ok := stringArg(f, i, "string as key")
		if !ok {
			return false
		}
		v := f.Arg(i + 1)
		if v == nil {
			return false
		}
		m.Set(key, dup(v))
	}
	return true
}

func builtinGetElem(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}
	c, key := f.Arg(0), f.Arg(1)
	if c == nil || key == nil {
		return
	}

	switch c.Kind() {
	case KindList:
		if err := key.AffirmKind(KindInt); err != nil {
			f.ReportErr(err)
			return
		}
		el, ok := c.List().At(key.Int())
		if !ok {
			f.Report(key.Token(), errors.New("DOMAIN-0002", nil))
			return
		}
		f.SetReturn(el.Alias())

	case KindMap:
		if err := key.AffirmKind(KindString); err != nil {
			f.ReportErr(err)
			return
		}
		el, ok := c.Map().Get(key.Str())
		if !ok {
			f.Report(key.Token(), errors.New("DOMAIN-0003", nil))
			return
		}
		f.SetReturn(el.Alias())

	case KindString:
		if err := key.AffirmKind(KindInt); err != nil {
			f.ReportErr(err)
			return
		}
		s := c.Str()
		i, ok := stringIndex(s, key.Int())
		if !ok {
			f.Report(key.Token(), errors.New("DOMAIN-0002", nil))
			return
		}
		f.SetReturn(newString(f.rt, c.Token(), s[i:i+1]))

	default:
		f.Report(c.Token(), errors.NewExpected("list, map or string"))
	}
}

func builtinRemElem(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}
	c, key := f.Arg(0), f.Arg(1)
	if c == nil || key == nil {
		return
	}

	switch c.Kind() {
	case KindList, KindMap:
		if c.IsConst() {
			f.Report(c.Token(), errors.New("CONST-0002", nil))
			return
		}
	case KindString:
		if c.IsConst() {
			f.Report(c.Token(), errors.New("CONST-0003", nil))
			return
		}
	}

	switch c.Kind() {
	case KindList:
		if err := key.AffirmKind(KindInt); err != nil {
			f.ReportErr(err)
			return
		}
		if !c.List().Remove(key.Int()) {
			f.Report(key.Token(), errors.New("DOMAIN-0002", nil))
		}

	case KindMap:
		if err := key.AffirmKind(KindString); err != nil {
			f.ReportErr(err)
			return
		}
		if !c.Map().Remove(key.Str()) {
			f.Report(key.Token(), errors.New("DOMAIN-0003", nil))
		}

	case KindString:
		if err := key.AffirmKind(KindInt); err != nil {
			f.ReportErr(err)
			return
		}
		s := c.Str()
		i, ok := stringIndex(s, key.Int())
		if !ok {
			f.Report(key.Token(), errors.New("DOMAIN-0002", nil))
			return
		}
		c.SetString(s[:i] + s[i+1:])

	default:
		f.Report(c.Token(), errors.NewExpected("list, map or string"))
	}
}

// stringIndex resolves a byte index into s; -1 is the last byte.
func stringIndex(s string, i int64) (int, bool) {
	if i == -1 {
		i = int64(len(s)) - 1
	}
	if i < 0 || i >= int64(len(s)) {
		return 0, false
	}
	return int(i), true
}

func builtinHasKey(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}
	c, key := f.Arg(0), f.Arg(1)
	if c == nil || key == nil {
		return
	}

	if err := c.AffirmKind(KindMap); err != nil {
		f.ReportErr(err)
		return
	}
	if err := key.AffirmKind(KindString); err != nil {
		f.ReportErr(err)
		return
	}
	f.SetReturn(newBool(f.rt, c.Token(), c.Map().Has(key.Str())))
}

func builtinCount(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	c := f.Arg(0)
	if c == nil {
		return
	}

	var n int
	switch c.Kind() {
	case KindList:
		n = c.List().Len()
	case KindMap:
		n = c.Map().Len()
	case KindString:
		n = len(c.Str())
	default:
		f.Report(c.Token(), errors.NewExpected("list, map or string"))
		return
	}
	f.SetReturn(newInt(f.rt, c.Token(), int64(n)))
}

func builtinKeys(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	c := f.Arg(0)
	if c == nil {
		return
	}
	if c.Kind() != KindMap {
		f.Report(c.Token(), errors.NewExpected("map"))
		return
	}

	d := f.rt.Heap.New(KindList, false, c.Token())
	d.Init()
	for _, k := range c.Map().Keys() {
		d.List().Append(newString(f.rt, c.Token(), k))
	}
	f.SetReturn(d)
}
