package evaluator

// Control flow builtins: do, function, if, while.
//
// A return_copy or return_ref fills the return slot of the frame it runs in.
// After each child, do/if/while check their own slot and, when it is set,
// pass an alias up to their parent and stop. function stops without passing
// it on, which makes it the place a return lands.

func builtinDo(f *Frame) {
	for i := range f.node.Args {
		f.Arg(i)
		if f.returned(true) {
			return
		}
	}
}

func builtinFunction(f *Frame) {
	for i := range f.node.Args {
		f.Arg(i)
		if f.returned(false) {
			return
		}
	}
}

func builtinIf(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}

	cond, ok := boolArg(f, 0)
	if !ok {
		return
	}

	if cond {
		f.Arg(1)
	} else if f.NumArgs() >= 3 {
		f.Arg(2)
	}
	f.returned(true)
}

func builtinWhile(f *Frame) {
	if !f.CheckArguments(2) {
		return
	}

	for {
		cond, ok := boolArg(f, 0)
		if !ok || !cond {
			return
		}

		f.Arg(1)
		if f.returned(true) {
			return
		}
	}
}
