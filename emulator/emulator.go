// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"iter"
	"log"
	"os"

	"github.com/ezrec/avrsim/asm"
	"github.com/ezrec/avrsim/avr"
	"github.com/ezrec/avrsim/console"
	"github.com/ezrec/avrsim/cpu"
	"github.com/ezrec/avrsim/internal"
)

// Emulator state. Assembled program + CPU + console.
type Emulator struct {
	Verbose  bool             // If set, enables verbose logging.
	File     string           // Source file name, for diagnostics.
	Console  *console.Console // Console output of the program.
	Program  *avr.Program     // Reference to the currently loaded program.
	*cpu.Cpu                  // Reference to the CPU simulation.

	snapshot *cpu.Cpu // CPU state just after load.
}

// NewEmulator creates a new emulator, with no program loaded.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Console: &console.Console{},
	}

	return
}

// Load assembles program text, and resets the emulator to run it.
func (emu *Emulator) Load(text string) (err error) {
	as := &asm.Assembler{Verbose: emu.Verbose, File: emu.File}
	prog, err := as.ParseString(text)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: %v: %d words code, %d bytes data", emu.File, prog.Len(), len(prog.Data))
	}

	emu.Program = prog
	emu.snapshot = cpu.NewCpu(prog)

	err = emu.Reset()
	return
}

// LoadFile reads, assembles and loads a source file.
func (emu *Emulator) LoadFile(path string) (err error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return
	}

	emu.File = path
	err = emu.Load(string(text))
	return
}

// Reset the emulator to the state just after the program was loaded.
func (emu *Emulator) Reset() (err error) {
	if emu.snapshot == nil {
		err = ErrNoProgram
		return
	}

	emu.Cpu = emu.snapshot.Clone()
	emu.Console.Reset()

	if emu.Verbose {
		log.Printf("emulator: reset")
	}

	return
}

// Step executes a single instruction, returning its console output.
func (emu *Emulator) Step() (output string, err error) {
	if emu.Cpu == nil {
		err = ErrNoProgram
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.PC()
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{
				Kind:   kindOf(err),
				File:   emu.File,
				LineNo: lineno,
				PC:     pc,
				Err:    err,
			}
		}
	}()

	output, err = emu.Cpu.Step()
	if err != nil {
		return
	}

	if len(output) > 0 {
		err = emu.Console.Write(output)
	}
	return
}

// Tick performs a single tick of the emulator, reporting if the program is done.
func (emu *Emulator) Tick() (done bool, err error) {
	_, err = emu.Step()
	if err != nil {
		return
	}

	done = emu.Halted()
	return
}

// Run until the program halts, fails, or the context is cancelled.
func (emu *Emulator) Run(ctx context.Context) (output string, err error) {
	if emu.Cpu == nil {
		err = ErrNoProgram
		return
	}

	for !emu.Halted() {
		err = ctx.Err()
		if err != nil {
			break
		}
		var out string
		out, err = emu.Step()
		output += out
		if err != nil {
			break
		}
	}

	err = errors.Join(err, emu.Console.Flush())

	return
}

// loaded is set once a program has been loaded.
func (emu *Emulator) loaded() bool {
	return emu.Cpu != nil && emu.Program != nil
}

// Register returns general purpose register Rn.
func (emu *Emulator) Register(n int) (value byte) {
	if emu.loaded() {
		value = emu.Memory.Reg(n)
	}
	return
}

// SREG returns the status register.
func (emu *Emulator) SREG() (sr avr.SREG) {
	if emu.loaded() {
		sr = emu.Memory.SREG()
	}
	return
}

// SP returns the stack pointer.
func (emu *Emulator) SP() (sp int) {
	if emu.loaded() {
		sp = emu.Memory.SP()
	}
	return
}

// PC returns the program counter.
func (emu *Emulator) PC() (pc int) {
	if emu.loaded() {
		pc = emu.Memory.PC()
	}
	return
}

// SRAM returns a byte of data memory.
func (emu *Emulator) SRAM(addr int) (value byte, err error) {
	if !emu.loaded() {
		err = ErrNoProgram
		return
	}
	return emu.Memory.Read(addr)
}

// Changed is set if a data memory address changed since the last Observe.
func (emu *Emulator) Changed(addr int) bool {
	return emu.loaded() && emu.Memory.Changed(addr)
}

// Observe clears the changed flags.
func (emu *Emulator) Observe() {
	if emu.loaded() {
		emu.Memory.Observe()
	}
}

// Halted is set once the program has run to completion, and with no
// program loaded.
func (emu *Emulator) Halted() bool {
	return !emu.loaded() || emu.Cpu.Halted
}

// LineNo returns the source line number of the current instruction.
func (emu *Emulator) LineNo() int {
	if !emu.loaded() {
		return 0
	}
	return emu.Program.LineNo(emu.PC())
}

// Instruction returns the current instruction, or nil past the program.
func (emu *Emulator) Instruction() (ins *avr.Instruction) {
	if !emu.loaded() {
		return
	}
	pc := emu.PC()
	if pc >= emu.Program.Len() {
		return
	}
	ins, _ = emu.Program.Fetch(pc)
	return
}

// program returns the loaded program, or an empty one.
func (emu *Emulator) program() *avr.Program {
	if emu.Program == nil {
		return &avr.Program{}
	}
	return emu.Program
}

// Symbols iterates over the code labels then the data symbols, each in
// address order.
func (emu *Emulator) Symbols() iter.Seq2[string, int] {
	prog := emu.program()
	return internal.Concat2(
		internal.ByValue(prog.Labels),
		internal.ByValue(prog.Symbols),
	)
}

// Defines iterates over the .def register aliases, by name.
func (emu *Emulator) Defines() iter.Seq2[string, int] {
	return internal.Sorted(emu.program().Defines)
}
