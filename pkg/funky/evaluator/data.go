package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/lexer"
	"github.com/sambeau/funky/pkg/funky/pool"
)

// Data is the uniform runtime value handle. Its kind is fixed at creation;
// its payload lives in a pooled cell that other handles may alias.
//
// A handle either owns a private cell (users == 1) or shares one with every
// handle that ReferenceOther'ed it. The cell is released when its last handle
// is destroyed.
type Data struct {
	kind    Kind
	isConst bool
	token   lexer.Token
	heap    *Heap
	self    pool.Handle
	payload pool.Handle
}

// Kind returns the handle's type tag.
func (d *Data) Kind() Kind { return d.kind }

// IsConst reports whether the handle rejects ReferenceOther and CopyOther.
func (d *Data) IsConst() bool { return d.isConst }

// Token returns the source position the value was created at.
func (d *Data) Token() lexer.Token { return d.token }

// Users returns how many handles share this handle's payload, or 0 when
// nothing has been stored yet.
func (d *Data) Users() int {
	if d.payload.IsZero() {
		return 0
	}
	switch d.kind {
	case KindBool:
		return cellUsers(d.heap.bools, d.payload)
	case KindInt:
		return cellUsers(d.heap.ints, d.payload)
	case KindFloat:
		return cellUsers(d.heap.floats, d.payload)
	case KindString:
		return cellUsers(d.heap.strings, d.payload)
	case KindList:
		return cellUsers(d.heap.lists, d.payload)
	case KindMap:
		return cellUsers(d.heap.maps, d.payload)
	default:
		return cellUsers(d.heap.funcs, d.payload)
	}
}

// SharesPayload reports whether d and other alias the same storage.
func (d *Data) SharesPayload(other *Data) bool {
	return d.kind == other.kind && !d.payload.IsZero() && d.payload == other.payload
}

// Destroy releases the handle's payload, leaving the handle empty.
func (d *Data) Destroy() {
	if d.payload.IsZero() {
		return
	}
	h := d.payload
	d.payload = pool.Handle{}
	switch d.kind {
	case KindBool:
		releaseCell(d.heap.bools, h, nil)
	case KindInt:
		releaseCell(d.heap.ints, h, nil)
	case KindFloat:
		releaseCell(d.heap.floats, h, nil)
	case KindString:
		releaseCell(d.heap.strings, h, nil)
	case KindList:
		releaseCell(d.heap.lists, h, (*List).Clear)
	case KindMap:
		releaseCell(d.heap.maps, h, (*Map).Clear)
	case KindFunction:
		releaseCell(d.heap.funcs, h, func(fn **Function) {
			if *fn != nil {
				(*fn).release()
			}
		})
	}
}

// Free destroys the payload and returns the handle itself to its pool.
// Freeing nil is a no-op.
func (d *Data) Free() {
	if d == nil {
		return
	}
	d.Destroy()
	d.heap.handles[d.kind].Free(d.self)
}

// CreateSameType returns a new, empty, non-const handle of the same kind
// carrying the same token.
func (d *Data) CreateSameType() *Data {
	return d.heap.New(d.kind, false, d.token)
}

// Alias returns a new handle sharing d's payload.
func (d *Data) Alias() *Data {
	a := d.CreateSameType()
	a.adopt(d)
	return a
}

// Copy returns a new handle holding a value copy of d.
func (d *Data) Copy() *Data {
	c := d.CreateSameType()
	c.assign(d)
	return c
}

// AffirmSameType reports a TypeMismatch unless other has d's kind.
func (d *Data) AffirmSameType(other *Data) *errors.ScriptError {
	return d.AffirmKind(other.kind)
}

// AffirmKind reports a TypeMismatch unless d has the given kind.
func (d *Data) AffirmKind(kind Kind) *errors.ScriptError {
	if d.kind == kind {
		return nil
	}
	return d.token.Locate(errors.New("TYPE-0001", map[string]any{
		"Left":  kind.String(),
		"Right": d.kind.String(),
	}))
}

func (d *Data) affirmMutable() *errors.ScriptError {
	if d.isConst {
		return d.token.Locate(errors.New("CONST-0001", nil))
	}
	return nil
}

// ReferenceOther makes d alias other's payload and constness. A const d or a
// kind mismatch leaves d unchanged.
func (d *Data) ReferenceOther(other *Data) *errors.ScriptError {
	if err := d.affirmMutable(); err != nil {
		return err
	}
	if err := other.AffirmKind(d.kind); err != nil {
		return err
	}
	d.adopt(other)
	return nil
}

// CopyOther assigns other's value into d's private storage. Containers copy
// one level deep: the new elements alias the source elements.
func (d *Data) CopyOther(other *Data) *errors.ScriptError {
	if err := d.affirmMutable(); err != nil {
		return err
	}
	if err := other.AffirmKind(d.kind); err != nil {
		return err
	}
	d.assign(other)
	return nil
}

func (d *Data) adopt(other *Data) {
	if d.SharesPayload(other) {
		d.isConst = other.isConst
		return
	}
	// retain before release so a payload reachable only through d survives
	if !other.payload.IsZero() {
		d.retain(other.payload)
	}
	d.Destroy()
	d.payload = other.payload
	d.isConst = other.isConst
}

func (d *Data) retain(h pool.Handle) {
	switch d.kind {
	case KindBool:
		retainCell(d.heap.bools, h)
	case KindInt:
		retainCell(d.heap.ints, h)
	case KindFloat:
		retainCell(d.heap.floats, h)
	case KindString:
		retainCell(d.heap.strings, h)
	case KindList:
		retainCell(d.heap.lists, h)
	case KindMap:
		retainCell(d.heap.maps, h)
	case KindFunction:
		retainCell(d.heap.funcs, h)
	}
}

func (d *Data) assign(other *Data) {
	switch d.kind {
	case KindBool:
		d.SetBool(other.Bool())
	case KindInt:
		d.SetInt(other.Int())
	case KindFloat:
		d.SetFloat(other.Float())
	case KindString:
		d.SetString(other.Str())
	case KindList:
		d.List().Assign(other.List())
	case KindMap:
		d.Map().Assign(other.Map())
	case KindFunction:
		d.SetFunction(other.Function().clone())
	}
}

// Evaluate runs a function value and returns a new handle aliasing its
// result, or nil when the function produced no value. Every other kind
// evaluates to an alias of itself. The caller owns the returned handle and
// must Free it.
func (d *Data) Evaluate() *Data {
	if d.kind != KindFunction {
		return d.Alias()
	}
	fn := d.Function()
	if fn == nil {
		return nil
	}
	res := fn.invoke(nil, nil)
	if res == nil {
		return nil
	}
	return res.Alias()
}

// ============================================================================
// Typed payload access
// ============================================================================

func (d *Data) Bool() bool { return payloadOf(d.heap.bools, d).value }

func (d *Data) Int() int64 { return payloadOf(d.heap.ints, d).value }

func (d *Data) Float() float64 { return payloadOf(d.heap.floats, d).value }

// Str returns the string payload. It is not named String so that Data does
// not satisfy fmt.Stringer with payload-only output.
func (d *Data) Str() string { return payloadOf(d.heap.strings, d).value }

// List returns the list payload, visible to every alias.
func (d *Data) List() *List { return &payloadOf(d.heap.lists, d).value }

// Map returns the map payload, visible to every alias.
func (d *Data) Map() *Map { return &payloadOf(d.heap.maps, d).value }

// Function returns the function payload, or nil for an empty handle.
func (d *Data) Function() *Function { return payloadOf(d.heap.funcs, d).value }

func (d *Data) SetBool(v bool) { payloadOf(d.heap.bools, d).value = v }

func (d *Data) SetInt(v int64) { payloadOf(d.heap.ints, d).value = v }

func (d *Data) SetFloat(v float64) { payloadOf(d.heap.floats, d).value = v }

func (d *Data) SetString(v string) { payloadOf(d.heap.strings, d).value = v }

// SetFunction stores fn, releasing any function previously held by this
// payload.
func (d *Data) SetFunction(fn *Function) {
	c := payloadOf(d.heap.funcs, d)
	if c.value != nil && c.value != fn {
		c.value.release()
	}
	c.value = fn
}

// Init gives an empty handle its own zero payload.
func (d *Data) Init() {
	switch d.kind {
	case KindBool:
		payloadOf(d.heap.bools, d)
	case KindInt:
		payloadOf(d.heap.ints, d)
	case KindFloat:
		payloadOf(d.heap.floats, d)
	case KindString:
		payloadOf(d.heap.strings, d)
	case KindList:
		payloadOf(d.heap.lists, d)
	case KindMap:
		payloadOf(d.heap.maps, d)
	case KindFunction:
		payloadOf(d.heap.funcs, d)
	}
}
