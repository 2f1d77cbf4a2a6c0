package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mgutz/ansi"

	"github.com/ezrec/avrsim/avr"
	"github.com/ezrec/avrsim/cpu"
	"github.com/ezrec/avrsim/emulator"
)

var (
	colorSame    = ansi.ColorCode("default:default")
	colorChanged = ansi.ColorCode("default+bu:default")
)

const help = `commands:
  <enter>, s  step one instruction
  <N>         step N instructions
  r           run until halted
  e           reset
  p           print state
  l           list labels and aliases
  q           quit
`

// Shell is the line-mode debugger over one emulator.
type Shell struct {
	Emulator *emulator.Emulator
	Color    bool      // Highlight changes since the previous command.
	Output   io.Writer // Receives the state display.

	rl *readline.Instance
}

// historyFile returns the readline history path, or "" if there is none.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "avrsim")
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

// NewShell creates an interactive shell on the terminal.
func NewShell(emu *emulator.Emulator, color bool) (sh *Shell, err error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "avrsim> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return
	}

	emu.Console.Output = rl.Stdout()

	sh = &Shell{
		Emulator: emu,
		Color:    color,
		Output:   rl.Stdout(),
		rl:       rl,
	}
	return
}

// Close releases the terminal.
func (sh *Shell) Close() (err error) {
	if sh.rl != nil {
		err = sh.rl.Close()
	}
	return
}

// Run reads and executes commands until quit or end of input.
func (sh *Shell) Run() (err error) {
	sh.Display()
	for {
		var line string
		line, err = sh.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			err = nil
			return
		case err != nil:
			return
		}

		var quit bool
		quit, err = sh.Command(line)
		if err != nil {
			fmt.Fprintln(sh.Output, err)
			err = nil
		}
		if quit {
			return
		}
	}
}

// step executes up to count instructions, stopping when halted.
func (sh *Shell) step(count int) (err error) {
	emu := sh.Emulator
	for range count {
		if emu.Halted() {
			break
		}
		_, err = emu.Step()
		if err != nil {
			break
		}
	}
	emu.Console.Flush()
	return
}

// Command executes one shell command line.
func (sh *Shell) Command(line string) (quit bool, err error) {
	emu := sh.Emulator
	cmd := strings.TrimSpace(line)

	switch cmd {
	case "", "s":
		err = sh.step(1)
	case "r":
		err = sh.step(avr.PMEM_SIZE * avr.DMEM_SIZE)
	case "e":
		err = emu.Reset()
	case "p":
	case "l":
		sh.Labels()
		return
	case "q":
		quit = true
		return
	case "h", "?":
		fmt.Fprint(sh.Output, help)
		return
	default:
		count, perr := strconv.Atoi(cmd)
		if perr != nil || count < 1 {
			fmt.Fprint(sh.Output, help)
			return
		}
		err = sh.step(count)
	}

	sh.Display()
	return
}

// Labels lists the symbol tables.
func (sh *Shell) Labels() {
	for name, value := range sh.Emulator.Symbols() {
		fmt.Fprintf(sh.Output, "%04x %v\n", value, name)
	}
	for name, reg := range sh.Emulator.Defines() {
		fmt.Fprintf(sh.Output, " r%-2d %v\n", reg, name)
	}
}

// highlight wraps text when any of the addresses has changed.
func (sh *Shell) highlight(text string, addrs ...int) string {
	if !sh.Color {
		return text
	}
	color := colorSame
	for _, addr := range addrs {
		if sh.Emulator.Changed(addr) {
			color = colorChanged
		}
	}
	return color + text + ansi.Reset
}

// Display prints the machine state, then marks it as observed.
func (sh *Shell) Display() {
	emu := sh.Emulator
	out := sh.Output

	for row := range 4 {
		for col := range 8 {
			n := row*8 + col
			if col > 0 {
				fmt.Fprint(out, " ")
			}
			text := fmt.Sprintf("%3s: %02x", fmt.Sprintf("r%d", n), emu.Register(n))
			fmt.Fprint(out, sh.highlight(text, n))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, sh.highlight(fmt.Sprintf("  sp: %04x", emu.SP()), cpu.ADDR_SPL, cpu.ADDR_SPH))
	fmt.Fprintf(out, "  pc: %04x\n", emu.PC())
	fmt.Fprintln(out, sh.highlight(fmt.Sprintf("sreg: %v", emu.SREG()), cpu.ADDR_SREG))

	switch ins := emu.Instruction(); {
	case emu.Halted():
		fmt.Fprintln(out, "halted")
	case ins == nil:
		fmt.Fprintln(out, "no instruction")
	default:
		words, err := avr.Encode(ins)
		if err != nil {
			fmt.Fprintf(out, "line %d: %v\n", ins.LineNo, ins)
		} else {
			fmt.Fprintf(out, "line %d: %v    %v\n", ins.LineNo, ins, strings.Join(avr.Binary(words), " "))
		}
	}

	emu.Observe()
}
