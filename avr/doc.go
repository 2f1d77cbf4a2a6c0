// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package avr describes the instruction set of the 8-bit AVR core.
//
// It holds the static mnemonic and operand tables consulted by the
// assembler, the resolved instruction record, the status register bitset,
// the immutable assembled program image, and the binary encoder that maps
// an instruction record to its 16 or 32-bit machine code.
package avr
