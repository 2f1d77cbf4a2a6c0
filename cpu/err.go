package cpu

import (
	"errors"

	"github.com/ezrec/avrsim/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrStackOverflow  = errors.New(f("stack overflow"))
	ErrStackUnderflow = errors.New(f("no elements left to pop"))
)

// ErrUnbalancedReturn is a RET executed with pushes left in its frame.
type ErrUnbalancedReturn struct {
	Count int // Bytes left on the stack.
}

func (err *ErrUnbalancedReturn) Error() string {
	return f("%d too many pushes to the stack to return correctly", err.Count)
}

// ErrAddressRange is a data memory access outside of data memory.
type ErrAddressRange int

func (err ErrAddressRange) Error() string {
	return f("data address 0x%04x out of range", int(err))
}

// ErrFetch is an instruction fetch from an address holding no instruction.
type ErrFetch int

func (err ErrFetch) Error() string {
	return f("no instruction at 0x%04x", int(err))
}
