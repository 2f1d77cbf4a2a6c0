// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/avrsim/avr"
)

// Cpu is the simulation context of the AVR core running one Program.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Program *avr.Program // Program being executed; never modified.
	Memory  Memory       // Data memory, registers and I/O space.
	Halted  bool         // Set once the program has run to completion.

	Ticks int // Instructions executed.

	frames Frames
}

// NewCpu creates a CPU with a program loaded and reset.
func NewCpu(prog *avr.Program) (cpu *Cpu) {
	cpu = &Cpu{
		Program: prog,
	}

	cpu.Reset()

	return
}

// Reset the CPU state.
// - Clears data memory, then loads the data segment at SRAM_START.
// - Sets SP to RAMEND, and PC and SREG to zero.
// - Clears the call frames and the changed bitmap.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory = Memory{}
	copy(cpu.Memory.data[avr.SRAM_START:], cpu.Program.Data)
	cpu.Memory.SetSP(avr.RAMEND)
	cpu.Memory.SetPC(0)
	cpu.Memory.SetSREG(0)
	cpu.Memory.Observe()

	cpu.frames.Reset()
	cpu.Ticks = 0
	cpu.Halted = cpu.Program.Len() == 0
}

// Clone returns an independent copy of the CPU, sharing the Program.
func (cpu *Cpu) Clone() (dup *Cpu) {
	dup = &Cpu{}
	*dup = *cpu
	dup.frames = cpu.frames.Clone()
	return
}

// Depth returns the number of open call frames.
func (cpu *Cpu) Depth() int {
	return cpu.frames.Depth()
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var out strings.Builder
	mem := &cpu.Memory
	for row := range 4 {
		for col := range 8 {
			n := row*8 + col
			if col > 0 {
				out.WriteString(" ")
			}
			fmt.Fprintf(&out, "%3s: %02x", fmt.Sprintf("r%d", n), mem.Reg(n))
		}
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "  pc: %04x\n", mem.PC())
	fmt.Fprintf(&out, "  sp: %04x\n", mem.SP())
	fmt.Fprintf(&out, "sreg: %v\n", mem.SREG())

	text = out.String()
	return
}

// Step executes a single instruction, returning any console output.
// On error no state is changed, and the PC still addresses the failing
// instruction.
func (cpu *Cpu) Step() (output string, err error) {
	if cpu.Halted {
		return
	}

	pc := cpu.Memory.PC()
	ins, ok := cpu.Program.Fetch(pc)
	if !ok {
		err = ErrFetch(pc)
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", pc, ins)
	}

	ex := &exec{
		prog:   cpu.Program,
		ins:    ins,
		pc:     pc,
		next:   pc + ins.Words(),
		mem:    cpu.Memory,
		frames: cpu.frames.Clone(),
	}

	err = dispatch[ins.Op](ex)
	if err != nil {
		if cpu.Verbose {
			log.Printf("%04x: %v", pc, err)
		}
		return
	}

	ex.mem.SetPC(ex.next)
	cpu.Memory = ex.mem
	cpu.frames = ex.frames
	cpu.Ticks++
	cpu.Halted = ex.halt || ex.next >= cpu.Program.Len()

	output = string(ex.output)
	return
}
