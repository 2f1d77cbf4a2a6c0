package emulator

import (
	"errors"

	"github.com/ezrec/avrsim/cpu"
	"github.com/ezrec/avrsim/translate"
)

var f = translate.From

var (
	// Runtime error kinds
	ErrRet           = errors.New(f("RET Error"))
	ErrStackOverflow = errors.New(f("Stack Overflow Error"))
	ErrRuntimeError  = errors.New(f("Runtime Error"))

	ErrNoProgram = errors.New(f("no program loaded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Kind   error // ErrRet, ErrStackOverflow or ErrRuntimeError
	File   string
	LineNo int
	PC     int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("%v: %v\nFile %v, line %v", err.Kind, err.Err, err.File, err.LineNo)
}

func (err *ErrRuntime) Unwrap() []error {
	return []error{err.Kind, err.Err}
}

// kindOf classifies a cpu error.
func kindOf(err error) error {
	var unbalanced *cpu.ErrUnbalancedReturn
	switch {
	case errors.Is(err, cpu.ErrStackOverflow):
		return ErrStackOverflow
	case errors.Is(err, cpu.ErrStackUnderflow), errors.As(err, &unbalanced):
		return ErrRet
	}
	return ErrRuntimeError
}
