package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
)

// Binding builtins: return_copy, return_ref, set_copy, set_ref, get, def.

func builtinReturnCopy(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}
	if target := returnTarget(f); target != nil {
		target.SetReturn(v.Copy())
	}
}

func builtinReturnRef(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}
	if target := returnTarget(f); target != nil {
		target.SetReturn(v.Alias())
	}
}

// returnTarget is the frame a return lands in: the enclosing block, or the
// frame itself when it is the whole body of a function value.
func returnTarget(f *Frame) *Frame {
	if f.boundary {
		return f
	}
	return f.parent
}

func builtinSetCopy(f *Frame) {
	setVariable(f, func(target, value *Data) *errors.ScriptError {
		return target.CopyOther(value)
	})
}

func builtinSetRef(f *Frame) {
	setVariable(f, func(target, value *Data) *errors.ScriptError {
		return target.ReferenceOther(value)
	})
}

// setVariable updates the nearest binding of the name, or creates one in the
// enclosing block when none is visible.
func setVariable(f *Frame, apply func(target, value *Data) *errors.ScriptError) {
	if !f.CheckArguments(2) {
		return
	}

	name, _, ok := stringArg(f, 0, "variable name (string)")
	if !ok {
		return
	}
	value := f.Arg(1)
	if value == nil {
		return
	}

	if current, found := f.GetVariable(name); found {
		if err := apply(current, value); err != nil {
			f.ReportErr(err)
		}
		return
	}

	current := value.CreateSameType()
	if err := apply(current, value); err != nil {
		current.Free()
		f.ReportErr(err)
		return
	}
	scopeFrame(f).AddVariable(name, current)
}

func builtinGet(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}

	name, nameData, ok := stringArg(f, 0, "variable name (string)")
	if !ok {
		return
	}

	v, found := f.GetVariable(name)
	if !found {
		f.Report(nameData.Token(), withHint(errors.New("DOMAIN-0001", nil), name, visibleNames(f)))
		return
	}

	res := v
	if v.Kind() == KindFunction {
		if res = callFunction(f, v, 1); res == nil {
			return
		}
	}
	f.SetReturn(res.Alias())
}

// callFunction evaluates the arguments after position from, up to the
// function's parameter count, and invokes fnData with them bound.
func callFunction(f *Frame, fnData *Data, from int) *Data {
	fn := fnData.Function()
	if fn == nil {
		return nil
	}
	n := min(f.NumArgs()-from, len(fn.Params))
	bound, ok := evalArgs(f, from, from+n)
	if !ok {
		return nil
	}
	return fn.invoke(f, bound)
}

func builtinDef(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}

	name, nameData, ok := stringArg(f, 0, "variable name (string)")
	if !ok {
		return
	}

	last := f.NumArgs() - 1
	body, isCall := f.RawArg(last).(*Node)
	if !isCall {
		f.Report(f.RawArg(last).Token(), errors.NewExpected("function"))
		return
	}

	params, ok := paramNames(f, 1, last)
	if !ok {
		return
	}

	scope := scopeFrame(f)
	d := f.rt.Heap.New(KindFunction, false, body.Tok)
	d.SetFunction(NewFunction(f.rt, body, params, scope))
	if !scope.AddVariable(name, d) {
		d.Free()
		f.Report(nameData.Token(), errors.New("DOMAIN-0006", nil))
	}
}
