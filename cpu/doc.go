// Package cpu implements the data memory and the instruction interpreter
// of the simulated AVR core.
//
// Data memory holds the 32 general purpose registers at 0x00..0x1F, the
// I/O space at 0x20..0x5F (with the PC, SP and SREG at fixed offsets), and
// SRAM from 0x100 up to RAMEND. The program's data segment is loaded at
// the start of SRAM, and the stack grows downward from RAMEND.
//
// Each Step executes exactly one instruction. A failed step returns a
// runtime error and commits no state, so the caller may inspect the CPU
// and decide whether to keep stepping.
package cpu
