package avr

import (
	"errors"

	"github.com/ezrec/avrsim/translate"
)

var f = translate.From

var (
	ErrEncoding = errors.New(f("no encoding"))
	ErrDecode   = errors.New(f("unknown machine code"))
)

// ErrEncodeOperand indicates an instruction is missing an operand its encoding needs.
type ErrEncodeOperand Mnemonic

func (err ErrEncodeOperand) Error() string {
	return f("%v: operand missing", Mnemonic(err).String())
}
