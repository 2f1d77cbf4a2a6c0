// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package avr

import (
	"fmt"
	"strings"
)

// Pointer is an indirect addressing mode through X, Y or Z.
type Pointer int

const (
	PTR_NONE  = Pointer(iota)
	PTR_X     // X
	PTR_X_INC // X+
	PTR_X_DEC // -X
	PTR_Y     // Y
	PTR_Y_INC // Y+
	PTR_Y_DEC // -Y
	PTR_Z     // Z
	PTR_Z_INC // Z+
	PTR_Z_DEC // -Z
)

var pointerName = [...]string{"", "X", "X+", "-X", "Y", "Y+", "-Y", "Z", "Z+", "-Z"}

func (ptr Pointer) String() string {
	if ptr < 0 || int(ptr) >= len(pointerName) {
		return "?"
	}
	return pointerName[ptr]
}

// LookupPointer finds a pointer mode by its spelling.
func LookupPointer(name string) (ptr Pointer, ok bool) {
	name = strings.ToUpper(name)
	for n, text := range pointerName {
		if n > 0 && text == name {
			return Pointer(n), true
		}
	}
	return
}

// Register returns the low register of the pointer pair.
func (ptr Pointer) Register() int {
	switch ptr {
	case PTR_X, PTR_X_INC, PTR_X_DEC:
		return 26
	case PTR_Y, PTR_Y_INC, PTR_Y_DEC:
		return 28
	default:
		return 30
	}
}

// Increment is set for post-increment modes.
func (ptr Pointer) Increment() bool {
	return ptr == PTR_X_INC || ptr == PTR_Y_INC || ptr == PTR_Z_INC
}

// Decrement is set for pre-decrement modes.
func (ptr Pointer) Decrement() bool {
	return ptr == PTR_X_DEC || ptr == PTR_Y_DEC || ptr == PTR_Z_DEC
}

// Builtin is a simulator-provided pseudo function reachable via CALL.
type Builtin int

const (
	BUILTIN_NONE = Builtin(iota)
	BUILTIN_PRINTF
)

func (bi Builtin) String() string {
	switch bi {
	case BUILTIN_PRINTF:
		return "PRINTF"
	}
	return "?"
}

// LookupBuiltin finds a builtin by name, ignoring case.
func LookupBuiltin(name string) (bi Builtin, ok bool) {
	if strings.ToUpper(name) == "PRINTF" {
		return BUILTIN_PRINTF, true
	}
	return
}

// OperandKind is the kind of a resolved operand.
type OperandKind int

const (
	OPERAND_REG     = OperandKind(iota) // Register number
	OPERAND_IMM                         // Immediate, offset or address
	OPERAND_POINTER                     // Pointer mode
	OPERAND_BUILTIN                     // Builtin function
)

// Operand is a resolved instruction operand.
type Operand struct {
	Kind  OperandKind
	Value int
}

// Reg makes a register operand.
func Reg(n int) Operand { return Operand{Kind: OPERAND_REG, Value: n} }

// Imm makes an immediate operand.
func Imm(value int) Operand { return Operand{Kind: OPERAND_IMM, Value: value} }

// Ptr makes a pointer operand.
func Ptr(ptr Pointer) Operand { return Operand{Kind: OPERAND_POINTER, Value: int(ptr)} }

// Func makes a builtin operand.
func Func(bi Builtin) Operand { return Operand{Kind: OPERAND_BUILTIN, Value: int(bi)} }

func (arg Operand) String() string {
	switch arg.Kind {
	case OPERAND_REG:
		return fmt.Sprintf("R%d", arg.Value)
	case OPERAND_POINTER:
		return Pointer(arg.Value).String()
	case OPERAND_BUILTIN:
		return Builtin(arg.Value).String()
	}
	return fmt.Sprintf("%d", arg.Value)
}

// Instruction is a fully resolved instruction record.
type Instruction struct {
	Op     Mnemonic
	Args   []Operand
	LineNo int // Source line, for diagnostics.
}

// NewInstruction builds an instruction record.
func NewInstruction(op Mnemonic, args ...Operand) *Instruction {
	return &Instruction{Op: op, Args: args}
}

// Arg returns the value of the n'th operand, or 0 if missing.
func (ins *Instruction) Arg(n int) int {
	if n < 0 || n >= len(ins.Args) {
		return 0
	}
	return ins.Args[n].Value
}

// Words returns the program memory slots used.
func (ins *Instruction) Words() int {
	return ins.Op.Words()
}

// Pointer returns the pointer mode of the instruction, if any.
func (ins *Instruction) Pointer() Pointer {
	for _, arg := range ins.Args {
		if arg.Kind == OPERAND_POINTER {
			return Pointer(arg.Value)
		}
	}
	return PTR_NONE
}

// Builtin returns the builtin called by the instruction, if any.
func (ins *Instruction) Builtin() Builtin {
	for _, arg := range ins.Args {
		if arg.Kind == OPERAND_BUILTIN {
			return Builtin(arg.Value)
		}
	}
	return BUILTIN_NONE
}

// String renders the instruction in assembler syntax.
func (ins *Instruction) String() string {
	if ins == nil {
		return "..."
	}
	var text strings.Builder
	text.WriteString(ins.Op.String())
	for n, arg := range ins.Args {
		switch {
		case n == 0:
			text.WriteString(" ")
		case n > 0 && ins.Args[n-1].Kind == OPERAND_POINTER && arg.Kind == OPERAND_IMM:
			// Y+q displacement
		default:
			text.WriteString(", ")
		}
		text.WriteString(arg.String())
	}
	return text.String()
}
