// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"github.com/ezrec/avrsim/avr"
)

// Fixed data memory addresses.
const (
	IO_START  = 0x20 // First I/O register; IN and OUT address A + IO_START.
	ADDR_PCL  = 0x5b // Program counter, low byte.
	ADDR_PCH  = 0x5c // Program counter, high byte.
	ADDR_SPL  = 0x5d // Stack pointer, low byte.
	ADDR_SPH  = 0x5e // Stack pointer, high byte.
	ADDR_SREG = 0x5f // Status register.
)

// Memory is the data memory of the core, with a per-address changed bitmap.
// It is a value type; assignment copies all of its state.
type Memory struct {
	data    [avr.DMEM_SIZE]byte
	changed [(avr.DMEM_SIZE + 63) / 64]uint64
}

func inRange(addr int) bool {
	return addr >= 0 && addr < avr.DMEM_SIZE
}

// set stores a byte, without a range check.
func (mem *Memory) set(addr int, value byte) {
	mem.data[addr] = value
	mem.changed[addr/64] |= 1 << (addr % 64)
}

// Read a byte of data memory.
func (mem *Memory) Read(addr int) (value byte, err error) {
	if !inRange(addr) {
		err = ErrAddressRange(addr)
		return
	}
	value = mem.data[addr]
	return
}

// Write a byte of data memory.
func (mem *Memory) Write(addr int, value byte) (err error) {
	if !inRange(addr) {
		err = ErrAddressRange(addr)
		return
	}
	mem.set(addr, value)
	return
}

// Load copies a block into data memory.
func (mem *Memory) Load(addr int, data []byte) (err error) {
	if len(data) == 0 {
		return
	}
	if !inRange(addr) || !inRange(addr+len(data)-1) {
		err = ErrAddressRange(addr + len(data) - 1)
		return
	}
	for n, value := range data {
		mem.set(addr+n, value)
	}
	return
}

// Reg returns general purpose register Rn.
func (mem *Memory) Reg(n int) byte {
	return mem.data[n&0x1f]
}

// SetReg sets general purpose register Rn.
func (mem *Memory) SetReg(n int, value byte) {
	mem.set(n&0x1f, value)
}

// Word returns the 16 bit value of the byte pair at lo, lo+1.
func (mem *Memory) Word(lo int) uint16 {
	return uint16(mem.data[lo]) | uint16(mem.data[lo+1])<<8
}

// SetWord sets the byte pair at lo, lo+1.
func (mem *Memory) SetWord(lo int, value uint16) {
	mem.set(lo, byte(value))
	mem.set(lo+1, byte(value>>8))
}

// PC returns the program counter.
func (mem *Memory) PC() int {
	return int(mem.Word(ADDR_PCL))
}

// SetPC sets the program counter.
func (mem *Memory) SetPC(pc int) {
	mem.SetWord(ADDR_PCL, uint16(pc))
}

// SP returns the stack pointer.
func (mem *Memory) SP() int {
	return int(mem.Word(ADDR_SPL))
}

// SetSP sets the stack pointer.
func (mem *Memory) SetSP(sp int) {
	mem.SetWord(ADDR_SPL, uint16(sp))
}

// SREG returns the status register.
func (mem *Memory) SREG() avr.SREG {
	return avr.SREG(mem.data[ADDR_SREG])
}

// SetSREG sets the status register.
func (mem *Memory) SetSREG(sr avr.SREG) {
	mem.set(ADDR_SREG, byte(sr))
}

// Pointer resolves the data address of an X, Y or Z addressing mode,
// applying its pre-decrement or post-increment to the register pair.
func (mem *Memory) Pointer(ptr avr.Pointer) (addr int, err error) {
	reg := ptr.Register()
	value := mem.Word(reg)
	if ptr.Decrement() {
		value--
		mem.SetWord(reg, value)
	}
	addr = int(value)
	if ptr.Increment() {
		mem.SetWord(reg, value+1)
	}
	if !inRange(addr) {
		err = ErrAddressRange(addr)
	}
	return
}

// Changed is set if the address was written since the last Observe.
func (mem *Memory) Changed(addr int) bool {
	if !inRange(addr) {
		return false
	}
	return mem.changed[addr/64]&(1<<(addr%64)) != 0
}

// Observe clears the changed bitmap.
func (mem *Memory) Observe() {
	clear(mem.changed[:])
}
