package evaluator

import "sort"

// builtins is the name → operation table the parser resolves calls against.
var builtins map[string]Builtin

func init() {
	builtins = map[string]Builtin{
		// sequencing
		"do":       builtinDo,
		"function": builtinFunction,

		// console
		"print": builtinPrint,
		"input": builtinInput,

		// bindings
		"return_copy": builtinReturnCopy,
		"return_ref":  builtinReturnRef,
		"set_copy":    builtinSetCopy,
		"set_ref":     builtinSetRef,
		"get":         builtinGet,
		"def":         builtinDef,

		// containers
		"list":      builtinList,
		"map":       builtinMap,
		"push_copy": builtinPushCopy,
		"push_ref":  builtinPushRef,
		"get_elem":  builtinGetElem,
		"rem_elem":  builtinRemElem,
		"has_key":   builtinHasKey,
		"count":     builtinCount,
		"keys":      builtinKeys,

		// function values
		"ref_func": builtinRefFunc,
		"lambda":   builtinLambda,
		"eval":     builtinEval,

		// control flow
		"if":    builtinIf,
		"while": builtinWhile,

		// arithmetic and logic
		"add":   builtinAdd,
		"sub":   builtinSub,
		"mult":  builtinMult,
		"div":   builtinDiv,
		"less":  builtinLess,
		"equal": builtinEqual,
		"and":   builtinAnd,
		"or":    builtinOr,
		"not":   builtinNot,

		// conversions
		"type_of":   builtinTypeOf,
		"to_string": builtinToString,
		"to_int":    builtinToInt,
		"to_float":  builtinToFloat,

		// host bridge
		"call_cpp": builtinCallHost,
	}
}

// LookupBuiltin returns the operation registered under name.
func LookupBuiltin(name string) (Builtin, bool) {
	op, ok := builtins[name]
	return op, ok
}

// BuiltinNames returns every builtin name, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
