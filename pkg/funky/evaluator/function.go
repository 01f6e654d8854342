package evaluator

// Function is the payload of a function value: a body call, the names its
// arguments bind to, and the frame it was defined in.
//
// Every invocation runs the body in a fresh frame, so recursive and
// re-entrant calls never share locals. The result of the latest invocation
// is held in the function itself until the next one replaces it.
type Function struct {
	Body   *Node
	Params []string
	Scope  *Frame

	rt  *Runtime
	ret *Data
}

// NewFunction creates a function value payload closing over scope.
func NewFunction(rt *Runtime, body *Node, params []string, scope *Frame) *Function {
	return &Function{Body: body, Params: params, Scope: scope, rt: rt}
}

func (fn *Function) clone() *Function {
	if fn == nil {
		return nil
	}
	return &Function{
		Body:   fn.Body,
		Params: append([]string(nil), fn.Params...),
		Scope:  fn.Scope,
		rt:     fn.rt,
	}
}

// Result returns the result of the latest invocation, possibly nil.
func (fn *Function) Result() *Data { return fn.ret }

func (fn *Function) release() {
	if fn.ret != nil {
		fn.ret.Free()
		fn.ret = nil
	}
}

// invoke runs the body with args bound by reference to the parameter names,
// in order. Surplus arguments are dropped and missing ones left unbound.
// caller sets the depth for the call limit; it may be nil for calls from
// the host.
func (fn *Function) invoke(caller *Frame, args []*Data) *Data {
	depth := 0
	switch {
	case caller != nil:
		depth = caller.depth + 1
	case fn.Scope != nil:
		depth = fn.Scope.depth + 1
	}

	var bind func(body *Frame)
	if len(args) > 0 {
		bind = func(body *Frame) {
			for i, arg := range args {
				if i >= len(fn.Params) {
					break
				}
				alias := arg.Alias()
				if !body.AddVariable(fn.Params[i], alias) {
					alias.Free()
				}
			}
		}
	}

	res := fn.rt.run(fn.Body, fn.Scope, depth, true, bind)
	if fn.ret != nil && fn.ret != res {
		fn.ret.Free()
	}
	fn.ret = res
	return res
}
