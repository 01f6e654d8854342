package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
)

// Function value builtins: ref_func, lambda, eval.

func builtinRefFunc(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}

	name, nameData, ok := stringArg(f, 0, "function name (string)")
	if !ok {
		return
	}

	v, found := f.GetVariable(name)
	if !found {
		f.Report(nameData.Token(), withHint(errors.New("DOMAIN-0005", nil), name, visibleNames(f)))
		return
	}
	if v.Kind() != KindFunction {
		f.Report(nameData.Token(), errors.New("TYPE-0004", map[string]any{"What": "variable", "Type": "function"}))
		return
	}
	f.SetReturn(v.Alias())
}

func builtinLambda(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}

	last := f.NumArgs() - 1
	body, isCall := f.RawArg(last).(*Node)
	if !isCall {
		f.Report(f.RawArg(last).Token(), errors.New("TYPE-0004", map[string]any{"What": "argument", "Type": "function"}))
		return
	}

	params, ok := paramNames(f, 0, last)
	if !ok {
		return
	}

	d := f.rt.Heap.New(KindFunction, false, body.Tok)
	d.SetFunction(NewFunction(f.rt, body, params, scopeFrame(f)))
	f.SetReturn(d)
}

func builtinEval(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}

	fnData := f.Arg(0)
	if fnData == nil {
		return
	}
	if fnData.Kind() != KindFunction {
		f.Report(fnData.Token(), errors.NewExpected("a function"))
		return
	}

	if res := callFunction(f, fnData, 1); res != nil {
		f.SetReturn(res.Alias())
	}
}
