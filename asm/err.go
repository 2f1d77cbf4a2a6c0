package asm

import (
	"errors"

	"github.com/ezrec/avrsim/avr"
	"github.com/ezrec/avrsim/translate"
)

var f = translate.From

var (
	// Diagnostic kinds
	ErrIllegalCharacter   = errors.New(f("Illegal Character"))
	ErrInvalidInstruction = errors.New(f("Invalid Instruction"))
	ErrUnexpectedValue    = errors.New(f("Unexpected Value"))

	// Lexer errors
	ErrStringUnterminated = errors.New(f("unterminated string"))
	ErrExprUnterminated   = errors.New(f("unterminated $( expression"))

	// Assembler errors
	ErrSectionFirst     = errors.New(f("first line must be .section .data or .section .text"))
	ErrSectionDuplicate = errors.New(f(".section repeated"))
	ErrSectionText      = errors.New(f(".section .text missing"))
	ErrEndMissing       = errors.New(f(".end missing"))
	ErrEndPlacement     = errors.New(f(".end must be the final line"))
	ErrGlobalPlacement  = errors.New(f(".global must be the first line of .text"))
	ErrTrailingComma    = errors.New(f("trailing comma"))
	ErrMissingComma     = errors.New(f("comma expected"))
	ErrValueMissing     = errors.New(f("value missing"))
	ErrDataInstruction  = errors.New(f("instruction in .data section"))
	ErrDataOverflow     = errors.New(f("data does not fit in SRAM"))
	ErrProgramOverflow  = errors.New(f("program does not fit in program memory"))
	ErrDefSyntax        = errors.New(f(".def syntax, expected .def name = Rn"))
	ErrExtraTokens      = errors.New(f("unexpected tokens after directive"))
)

type ErrCharacter string

func (err ErrCharacter) Error() string {
	return f("'%v'", string(err))
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrEscape string

func (err ErrEscape) Error() string {
	return f("unknown escape '\\%v'", string(err))
}

type ErrPointer string

func (err ErrPointer) Error() string {
	return f("'%v' is not a pointer register", string(err))
}

type ErrRegisterPair string

func (err ErrRegisterPair) Error() string {
	return f("'%v' is not a register pair", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMnemonic string

func (err ErrMnemonic) Error() string {
	return f("'%v' is not an instruction", string(err))
}

type ErrDirective string

func (err ErrDirective) Error() string {
	return f("%v not allowed here", string(err))
}

type ErrLabelMissing string

func (err ErrLabelMissing) Error() string {
	return f("label %v missing", string(err))
}

type ErrLabelDuplicate string

func (err ErrLabelDuplicate) Error() string {
	return f("label %v duplicated", string(err))
}

type ErrLabelEmpty string

func (err ErrLabelEmpty) Error() string {
	return f("data label %v has no directive", string(err))
}

type ErrLabelRange string

func (err ErrLabelRange) Error() string {
	return f("label too far away to access from '%v'", string(err))
}

type ErrGlobalLabel string

func (err ErrGlobalLabel) Error() string {
	return f(".global %v is not a label in this file", string(err))
}

// ErrOperandCount indicates a wrong number of operands.
type ErrOperandCount struct {
	Op   avr.Mnemonic
	Want int
}

func (err ErrOperandCount) Error() string {
	return f("%v expects %d operand(s)", err.Op.String(), err.Want)
}

// ErrOperandKind indicates an operand of the wrong class.
type ErrOperandKind struct {
	Op    avr.Mnemonic
	Index int // 1-based operand position
	Text  string
}

func (err ErrOperandKind) Error() string {
	if !err.Op.Valid() {
		return f("operand %d '%v' invalid", err.Index, err.Text)
	}
	return f("%v operand %d '%v' invalid", err.Op.String(), err.Index, err.Text)
}

// ErrOperandRange indicates an operand outside its numeric domain.
type ErrOperandRange struct {
	Op    avr.Mnemonic
	Text  string
	Value int
	Lo    int
	Hi    int
}

func (err ErrOperandRange) Error() string {
	if !err.Op.Valid() {
		return f("'%v' (%v) not in range %v..%v", err.Text, err.Value, err.Lo, err.Hi)
	}
	return f("%v '%v' (%v) not in range %v..%v", err.Op.String(), err.Text, err.Value, err.Lo, err.Hi)
}

// ErrSyntax is a positioned assembly diagnostic.
type ErrSyntax struct {
	Kind   error // ErrIllegalCharacter, ErrInvalidInstruction or ErrUnexpectedValue
	File   string
	LineNo int
	Column int
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("%v: %v\nFile %v, line %v", err.Kind, err.Err, err.File, err.LineNo)
}

func (err *ErrSyntax) Unwrap() []error {
	return []error{err.Kind, err.Err}
}

// kindOf classifies a detail error into its diagnostic kind.
func kindOf(err error) error {
	var rangeErr ErrOperandRange
	var charErr ErrCharacter
	var numErr ErrParseNumber
	switch {
	case errors.As(err, &rangeErr):
		return ErrUnexpectedValue
	case errors.As(err, &charErr), errors.As(err, &numErr):
		return ErrIllegalCharacter
	}
	return ErrInvalidInstruction
}
