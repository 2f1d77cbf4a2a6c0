package main

import (
	"strings"
	"testing"

	"github.com/mgutz/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/avrsim/emulator"
)

var program = []string{
	".section .data",
	`msg: .string "Hi\n"`,
	".section .text",
	".global main",
	"main: LDI R16, hi8(msg)",
	"  PUSH R16",
	"  LDI R16, lo8(msg)",
	"  PUSH R16",
	"  CALL PRINTF",
	"  POP R16",
	"  POP R16",
	".end",
}

func doShell(t *testing.T, color bool) (sh *Shell, out *strings.Builder, console *strings.Builder) {
	emu := emulator.NewEmulator()
	emu.File = "test.s"
	err := emu.Load(strings.Join(program, "\n"))
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	out = &strings.Builder{}
	console = &strings.Builder{}
	emu.Console.Output = console
	sh = &Shell{Emulator: emu, Color: color, Output: out}
	return
}

func TestShellCommands(t *testing.T) {
	assert := assert.New(t)

	sh, out, console := doShell(t, false)

	table := [](struct {
		cmd  string
		pc   int
		text string
	}){
		{"", 1, "line 6: PUSH R16"},
		{"s", 2, "line 7: LDI R16, 0"},
		{"2", 4, "line 9: CALL"},
		{"p", 4, "  pc: 0004"},
		{"r", 8, "halted"},
		{"e", 0, "line 5: LDI R16, 1"},
	}

	for _, entry := range table {
		out.Reset()
		quit, err := sh.Command(entry.cmd)
		assert.NoError(err, entry.cmd)
		assert.False(quit, entry.cmd)
		assert.Equal(entry.pc, sh.Emulator.PC(), entry.cmd)
		assert.Contains(out.String(), entry.text, entry.cmd)
	}

	assert.Equal("Hi\n", console.String())

	quit, err := sh.Command("q")
	assert.NoError(err)
	assert.True(quit)
}

func TestShellDisplay(t *testing.T) {
	assert := assert.New(t)

	sh, out, _ := doShell(t, false)
	sh.Display()

	lines := strings.Split(out.String(), "\n")
	assert.Equal(" r0: 00  r1: 00  r2: 00  r3: 00  r4: 00  r5: 00  r6: 00  r7: 00", lines[0])
	assert.Equal("r24: 00 r25: 00 r26: 00 r27: 00 r28: 00 r29: 00 r30: 00 r31: 00", lines[3])
	assert.Equal("  sp: 08ff", lines[4])
	assert.Equal("  pc: 0000", lines[5])
	assert.True(strings.HasPrefix(lines[7], "line 5: LDI R16, 1    1110"), lines[7])
	assert.NotContains(out.String(), ansi.Reset)
}

func TestShellHighlight(t *testing.T) {
	assert := assert.New(t)

	sh, out, _ := doShell(t, true)
	_, err := sh.Command("s")
	assert.NoError(err)
	assert.Contains(out.String(), colorChanged+"r16: 01"+ansi.Reset)
	assert.Contains(out.String(), colorSame+"r17: 00"+ansi.Reset)

	// Changes are reported once.
	out.Reset()
	_, err = sh.Command("p")
	assert.NoError(err)
	assert.Contains(out.String(), colorSame+"r16: 01"+ansi.Reset)
}

func TestShellHighlightStack(t *testing.T) {
	assert := assert.New(t)

	emu := emulator.NewEmulator()
	emu.Console.Output = &strings.Builder{}
	err := emu.Load(".section .text\nLDI R16, 0x07\nOUT 0x3e, R16\n.end")
	assert.NoError(err)

	out := &strings.Builder{}
	sh := &Shell{Emulator: emu, Color: true, Output: out}

	_, err = sh.Command("s")
	assert.NoError(err)
	assert.Contains(out.String(), colorSame+"  sp: 08ff"+ansi.Reset)

	// Only the high byte of SP changes.
	out.Reset()
	_, err = sh.Command("s")
	assert.NoError(err)
	assert.Contains(out.String(), colorChanged+"  sp: 07ff"+ansi.Reset)
}

func TestShellLabels(t *testing.T) {
	assert := assert.New(t)

	sh, out, _ := doShell(t, false)
	quit, err := sh.Command("l")
	assert.NoError(err)
	assert.False(quit)
	assert.Equal("0000 main\n0100 msg\n", out.String())
}

func TestShellErrors(t *testing.T) {
	assert := assert.New(t)

	emu := emulator.NewEmulator()
	emu.File = "bad.s"
	err := emu.Load(".section .text\nPOP R0\n.end")
	assert.NoError(err)

	out := &strings.Builder{}
	sh := &Shell{Emulator: emu, Output: out}

	_, err = sh.Command("s")
	assert.ErrorIs(err, emulator.ErrRet)
	assert.Equal(0, emu.PC())

	out.Reset()
	quit, err := sh.Command("bogus")
	assert.NoError(err)
	assert.False(quit)
	assert.Equal(help, out.String())
}

func TestRunSteps(t *testing.T) {
	assert := assert.New(t)

	sh, _, console := doShell(t, false)
	err := runSteps(sh.Emulator, 3)
	assert.ErrorIs(err, ErrStepLimit)
	assert.EqualError(err, "step limit reached")
	assert.Empty(console.String())

	err = runSteps(sh.Emulator, 0)
	assert.NoError(err)
	assert.True(sh.Emulator.Halted())
	assert.Equal("Hi\n", console.String())
}
