package evaluator

import (
	stderrors "errors"
	"sort"

	"github.com/sambeau/funky/pkg/funky/errors"
)

// builtinCallHost implements call_cpp: it looks a name up in the host
// registry and calls it with aliases of the evaluated arguments.
func builtinCallHost(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}

	name, nameData, ok := stringArg(f, 0, "function name (string)")
	if !ok {
		return
	}

	fn, found := f.rt.Host[name]
	if !found {
		f.Report(nameData.Token(), withHint(errors.New("DOMAIN-0004", nil), name, f.rt.Host.Names()))
		return
	}

	var hostArgs List
	defer hostArgs.Clear()
	for i := 1; i < f.NumArgs(); i++ {
		v := f.Arg(i)
		if v == nil {
			return
		}
		hostArgs.Append(v.Alias())
	}

	if err := fn(f.rt, &hostArgs); err != nil {
		var se *errors.ScriptError
		if stderrors.As(err, &se) {
			if !se.Positioned() {
				se = f.node.Tok.Locate(se)
			}
			f.ReportErr(se)
			return
		}
		f.Report(f.node.Tok, errors.New("DOMAIN-0009", map[string]any{"Name": name, "Reason": err.Error()}))
	}
}

// Names returns the registered host function names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
