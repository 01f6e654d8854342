package evaluator

import (
	"github.com/sambeau/funky/pkg/funky/errors"
)

// Arithmetic, comparison and boolean builtins. Operands must share a kind the
// operator supports; there is no implicit conversion.

// operands evaluates the two operands of a binary builtin.
func operands(f *Frame) (*Data, *Data, bool) {
	if !f.CheckArguments(2) {
		return nil, nil, false
	}
	left := f.Arg(0)
	if left == nil {
		return nil, nil, false
	}
	right := f.Arg(1)
	if right == nil {
		return nil, nil, false
	}
	return left, right, true
}

// sameKind reports a type mismatch at the left operand unless both operands
// have one of the allowed kinds.
func sameKind(f *Frame, left, right *Data, allowed ...Kind) bool {
	if left.Kind() == right.Kind() {
		for _, k := range allowed {
			if left.Kind() == k {
				return true
			}
		}
	}
	f.Report(left.Token(), errors.New("TYPE-0002", nil))
	return false
}

func builtinAdd(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindInt, KindFloat, KindString) {
		return
	}

	switch left.Kind() {
	case KindInt:
		f.SetReturn(newInt(f.rt, left.Token(), left.Int()+right.Int()))
	case KindFloat:
		f.SetReturn(newFloat(f.rt, left.Token(), left.Float()+right.Float()))
	case KindString:
		f.SetReturn(newString(f.rt, left.Token(), left.Str()+right.Str()))
	}
}

func builtinSub(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindInt, KindFloat) {
		return
	}

	if left.Kind() == KindInt {
		f.SetReturn(newInt(f.rt, left.Token(), left.Int()-right.Int()))
	} else {
		f.SetReturn(newFloat(f.rt, left.Token(), left.Float()-right.Float()))
	}
}

func builtinMult(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindInt, KindFloat) {
		return
	}

	if left.Kind() == KindInt {
		f.SetReturn(newInt(f.rt, left.Token(), left.Int()*right.Int()))
	} else {
		f.SetReturn(newFloat(f.rt, left.Token(), left.Float()*right.Float()))
	}
}

func builtinDiv(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindInt, KindFloat) {
		return
	}

	if left.Kind() == KindInt {
		if right.Int() == 0 {
			f.Report(right.Token(), errors.New("DOMAIN-0008", nil))
			return
		}
		f.SetReturn(newInt(f.rt, left.Token(), left.Int()/right.Int()))
	} else {
		f.SetReturn(newFloat(f.rt, left.Token(), left.Float()/right.Float()))
	}
}

func builtinLess(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindInt, KindFloat) {
		return
	}

	var less bool
	if left.Kind() == KindInt {
		less = left.Int() < right.Int()
	} else {
		less = left.Float() < right.Float()
	}
	f.SetReturn(newBool(f.rt, left.Token(), less))
}

func builtinEqual(f *Frame) {
	left, right, ok := operands(f)
	if !ok || !sameKind(f, left, right, KindBool, KindInt, KindFloat, KindString) {
		return
	}

	var eq bool
	switch left.Kind() {
	case KindBool:
		eq = left.Bool() == right.Bool()
	case KindInt:
		eq = left.Int() == right.Int()
	case KindFloat:
		eq = left.Float() == right.Float()
	case KindString:
		eq = left.Str() == right.Str()
	}
	f.SetReturn(newBool(f.rt, left.Token(), eq))
}

// boolOperands evaluates both operands of and/or; both are always evaluated.
func boolOperands(f *Frame) (bool, bool, *Data, bool) {
	left, right, ok := operands(f)
	if !ok {
		return false, false, nil, false
	}
	if left.Kind() != KindBool || right.Kind() != KindBool {
		f.Report(left.Token(), errors.NewExpected("bool"))
		return false, false, nil, false
	}
	return left.Bool(), right.Bool(), left, true
}

func builtinAnd(f *Frame) {
	l, r, left, ok := boolOperands(f)
	if ok {
		f.SetReturn(newBool(f.rt, left.Token(), l && r))
	}
}

func builtinOr(f *Frame) {
	l, r, left, ok := boolOperands(f)
	if ok {
		f.SetReturn(newBool(f.rt, left.Token(), l || r))
	}
}

func builtinNot(f *Frame) {
	if !f.CheckArguments(1) {
		return
	}
	v := f.Arg(0)
	if v == nil {
		return
	}
	if v.Kind() != KindBool {
		f.Report(v.Token(), errors.NewExpected("bool"))
		return
	}
	f.SetReturn(newBool(f.rt, v.Token(), !v.Bool()))
}
