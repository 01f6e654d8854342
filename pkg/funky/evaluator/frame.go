package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/lexer"
)

// Frame is the activation record of one evaluation of a Node: its local
// variables, its return slot and the results of its evaluated arguments.
//
// The parent link follows the static nesting of calls, so variable lookup
// walks outward through enclosing blocks. The body of an invoked function
// value gets the frame that defined it as parent and is marked as a
// boundary: returns stop there instead of travelling into the definer.
type Frame struct {
	node     *Node
	parent   *Frame
	rt       *Runtime
	depth    int
	boundary bool

	locals  map[string]*Data
	results []*Data
	ret     *Data
}

// Node returns the call being evaluated.
func (f *Frame) Node() *Node { return f.node }

// Parent returns the enclosing frame, nil at the root.
func (f *Frame) Parent() *Frame { return f.parent }

// Runtime returns the runtime executing the frame.
func (f *Frame) Runtime() *Runtime { return f.rt }

// NumArgs returns the number of argument expressions of the call.
func (f *Frame) NumArgs() int { return len(f.node.Args) }

// RawArg returns argument i without evaluating it.
func (f *Frame) RawArg(i int) Expr { return f.node.Args[i] }

// Arg evaluates argument i. Literals evaluate to themselves; nested calls run
// in a child frame and their result is kept alive until the argument is
// evaluated again or this frame ends. A nil result means no value.
func (f *Frame) Arg(i int) *Data {
	switch e := f.node.Args[i].(type) {
	case *Data:
		return e
	case *Node:
		res := f.rt.call(e, f, f.depth+1, false)
		f.keep(i, res)
		return res
	}
	return nil
}

func (f *Frame) keep(i int, d *Data) {
	if f.results == nil {
		f.results = make([]*Data, len(f.node.Args))
	}
	if old := f.results[i]; old != nil && old != d {
		old.Free()
	}
	f.results[i] = d
}

// CheckArguments reports an arity error unless the call has at least n
// arguments.
func (f *Frame) CheckArguments(n int) bool {
	if len(f.node.Args) >= n {
		return true
	}
	f.Report(f.node.Tok, errors.NewArity(f.node.Name, n, len(f.node.Args)))
	return false
}

// GetVariableOwner returns the nearest frame, starting at f, that binds name.
func (f *Frame) GetVariableOwner(name string) *Frame {
	for cur := f; cur != nil; cur = cur.parent {
		if _, ok := cur.locals[name]; ok {
			return cur
		}
	}
	return nil
}

// GetVariable looks name up through the scope chain.
func (f *Frame) GetVariable(name string) (*Data, bool) {
	owner := f.GetVariableOwner(name)
	if owner == nil {
		return nil, false
	}
	return owner.locals[name], true
}

// AddVariable binds name in this frame, taking ownership of d. It returns
// false, leaving d with the caller, when the name is already bound here.
func (f *Frame) AddVariable(name string, d *Data) bool {
	if _, exists := f.locals[name]; exists {
		return false
	}
	if f.locals == nil {
		f.locals = make(map[string]*Data)
	}
	f.locals[name] = d
	return true
}

// Locals returns the names bound directly in this frame.
func (f *Frame) Locals() map[string]*Data { return f.locals }

// Return returns the frame's return slot.
func (f *Frame) Return() *Data { return f.ret }

// SetReturn stores d as the frame's result, freeing any previous one.
func (f *Frame) SetReturn(d *Data) {
	if f.ret != nil && f.ret != d {
		f.ret.Free()
	}
	f.ret = d
}

// returned reports whether a return reached this frame and, if so, passes it
// on to the parent unless the frame is a function boundary. Sequencing
// builtins stop evaluating when it reports true.
func (f *Frame) returned(forward bool) bool {
	if f.ret == nil {
		return false
	}
	if forward && !f.boundary && f.parent != nil {
		f.parent.SetReturn(f.ret.Alias())
	}
	return true
}

// Report sends a diagnostic positioned at tok.
func (f *Frame) Report(tok lexer.Token, err *errors.ScriptError) {
	f.rt.report(tok.Locate(err))
}

// ReportErr sends an already positioned diagnostic.
func (f *Frame) ReportErr(err *errors.ScriptError) {
	f.rt.report(err)
}

// end frees locals and kept argument results. The return slot is handed to
// whoever ran the frame.
func (f *Frame) end() {
	for _, d := range f.locals {
		d.Free()
	}
	f.locals = nil
	for _, d := range f.results {
		if d != nil {
			d.Free()
		}
	}
	f.results = nil
}
