package asm

import (
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// byteOf is a Starlark builtin returning one byte of an address.
func byteOf(shift int) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
		var addr int
		err = starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr)
		if err != nil {
			return
		}
		value = starlark.MakeInt((addr >> shift) & 0xff)
		return
	}
}

// predeclared returns the names visible to $(...) expressions.
func (asm *Assembler) predeclared() (pred starlark.StringDict) {
	pred = starlark.StringDict{
		"lo8": starlark.NewBuiltin("lo8", byteOf(0)),
		"hi8": starlark.NewBuiltin("hi8", byteOf(8)),
	}
	for _, names := range []map[string]int{asm.Define, asm.Symbol, asm.Label} {
		for key, value := range names {
			pred[key] = starlark.MakeInt(value)
		}
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, asm.predeclared())
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}
