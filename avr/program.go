// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package avr

import (
	"iter"
	"maps"
	"slices"
)

const (
	PMEM_SIZE  = 0x4000 // Program memory slots.
	SRAM_START = 0x100  // First SRAM address in data memory.
	RAMEND     = 0x8ff  // Last SRAM address, and the initial stack pointer.
	DMEM_SIZE  = RAMEND + 1
)

var nop = &Instruction{Op: OP_NOP}

// Program is the immutable image produced by the assembler.
type Program struct {
	File    string         // Source file name, for diagnostics.
	Code    []*Instruction // Program memory; nil is the second word of the previous slot.
	Data    []byte         // Initial SRAM contents, from SRAM_START.
	Labels  map[string]int // Code labels to program memory address.
	Symbols map[string]int // Data labels to absolute data memory address.
	Defines map[string]int // .def aliases to register number.
	Global  string         // .global label, if any.
}

// Len returns the number of assembled program memory slots.
func (prog *Program) Len() int {
	return len(prog.Code)
}

// Fetch returns the instruction at a program memory address.
// Addresses past the assembled code, but inside program memory, hold NOP.
func (prog *Program) Fetch(pc int) (ins *Instruction, ok bool) {
	switch {
	case pc < 0 || pc >= PMEM_SIZE:
		return
	case pc >= len(prog.Code):
		return nop, true
	}
	ins = prog.Code[pc]
	ok = ins != nil
	return
}

// LineNo returns the source line of the instruction covering an address.
func (prog *Program) LineNo(pc int) int {
	for ; pc >= 0 && pc < len(prog.Code); pc-- {
		if ins := prog.Code[pc]; ins != nil {
			return ins.LineNo
		}
	}
	return 0
}

// Listing iterates over the instructions and their addresses.
func (prog *Program) Listing() iter.Seq2[int, *Instruction] {
	return func(yield func(pc int, ins *Instruction) bool) {
		for pc, ins := range prog.Code {
			if ins == nil {
				continue
			}
			if !yield(pc, ins) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the program.
func (prog *Program) Clone() *Program {
	code := make([]*Instruction, len(prog.Code))
	for n, ins := range prog.Code {
		if ins != nil {
			dup := *ins
			dup.Args = slices.Clone(ins.Args)
			code[n] = &dup
		}
	}

	return &Program{
		File:    prog.File,
		Code:    code,
		Data:    slices.Clone(prog.Data),
		Labels:  maps.Clone(prog.Labels),
		Symbols: maps.Clone(prog.Symbols),
		Defines: maps.Clone(prog.Defines),
		Global:  prog.Global,
	}
}
