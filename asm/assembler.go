// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"errors"
	"io"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/ezrec/avrsim/avr"
)

// RAM_SIZE is the number of SRAM bytes available to the data segment.
const RAM_SIZE = avr.RAMEND + 1 - avr.SRAM_START

// Assembler is a two pass assembler for the AVR instruction set.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	File    string // File name for diagnostics.

	Label  map[string]int // Map of code labels to program memory addresses.
	Symbol map[string]int // Map of data labels to data memory addresses.
	Define map[string]int // Map of .def aliases to registers.

	data   []byte
	code   []*avr.Instruction
	global string
}

// Parse lexes and assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *avr.Program, err error) {
	lex := &Lexer{File: asm.File}
	lines, err := lex.Lex(input)
	if err != nil {
		return
	}

	prog, err = asm.Assemble(lines)
	return
}

// ParseString assembles source text into a Program.
func (asm *Assembler) ParseString(text string) (prog *avr.Program, err error) {
	return asm.Parse(strings.NewReader(text))
}

func (asm *Assembler) reset() {
	asm.Label = map[string]int{}
	asm.Symbol = map[string]int{}
	asm.Define = map[string]int{}
	asm.data = nil
	asm.code = nil
	asm.global = ""
}

// isSection checks for a `.section name` line.
func isSection(line Line, name string) bool {
	toks := line.Tokens
	return len(toks) == 2 &&
		toks[0].Kind == TOKEN_DIR && toks[0].Directive() == DIR_SECTION &&
		toks[1].Kind == TOKEN_STRING && toks[1].Text == name
}

// Assemble builds a Program from lexed token lines.
func (asm *Assembler) Assemble(lines []Line) (prog *avr.Program, err error) {
	var line Line

	defer func() {
		if err == nil {
			return
		}
		var syn *ErrSyntax
		if errors.As(err, &syn) {
			if syn.File == "" {
				syn.File = asm.File
			}
			return
		}
		err = &ErrSyntax{Kind: kindOf(err), File: asm.File, LineNo: line.LineNo, Err: err}
	}()

	asm.reset()

	if len(lines) == 0 {
		line.LineNo = 1
		err = ErrSectionFirst
		return
	}

	line = lines[0]
	rest := lines[1:]
	switch {
	case isSection(line, ".data"):
		done := false
		for len(rest) > 0 && !done {
			line = rest[0]
			rest = rest[1:]
			if isSection(line, ".text") {
				done = true
				continue
			}
			err = asm.dataLine(line)
			if err != nil {
				return
			}
		}
		if !done {
			err = ErrSectionText
			return
		}
	case isSection(line, ".text"):
	default:
		err = ErrSectionFirst
		return
	}

	// Pass 1, code label addresses.
	pc := 0
	for _, line = range rest {
		pc, err = asm.scanLine(line, pc)
		if err != nil {
			return
		}
	}

	// Pass 2, instruction emission.
	ended := false
	for n, l := range rest {
		line = l
		ended, err = asm.emitLine(line, n, len(rest))
		if err != nil {
			return
		}
	}

	if !ended {
		err = ErrEndMissing
		return
	}

	prog = &avr.Program{
		File:    asm.File,
		Code:    slices.Clone(asm.code),
		Data:    slices.Clone(asm.data),
		Labels:  maps.Clone(asm.Label),
		Symbols: maps.Clone(asm.Symbol),
		Defines: maps.Clone(asm.Define),
		Global:  asm.global,
	}

	return
}

// addLabel records a label, rejecting duplicates across code and data.
func (asm *Assembler) addLabel(table map[string]int, name string, value int) (err error) {
	_, code := asm.Label[name]
	_, data := asm.Symbol[name]
	if code || data {
		err = ErrLabelDuplicate(name)
		return
	}
	table[name] = value
	return
}

// expand substitutes .def aliases and evaluates $(...) expressions.
func (asm *Assembler) expand(toks []Token) (out []Token, err error) {
	out = slices.Clone(toks)
	for n, tok := range out {
		switch tok.Kind {
		case TOKEN_STRING:
			reg, ok := asm.Define[tok.Text]
			if ok {
				out[n] = Token{Kind: TOKEN_REG, Text: tok.Text, Value: reg, Col: tok.Col}
			}
		case TOKEN_EXPR:
			var value int
			value, err = asm.parenEval(tok.Text)
			if err != nil {
				return
			}
			out[n] = Token{Kind: TOKEN_INT, Text: tok.String(), Value: value, Col: tok.Col}
		}
	}
	return
}

// dataLine handles a line of the .data section.
func (asm *Assembler) dataLine(line Line) (err error) {
	toks := line.Tokens

	label := ""
	if toks[0].Kind == TOKEN_LABEL {
		label = toks[0].Text
		toks = toks[1:]
		if len(toks) == 0 {
			err = ErrLabelEmpty(label)
			return
		}
	}

	if toks[0].Kind != TOKEN_DIR {
		err = ErrDataInstruction
		return
	}

	dir := toks[0].Directive()
	if dir == DIR_DEF {
		if label != "" {
			err = ErrDirective(toks[0].Text)
			return
		}
		err = asm.define(toks)
		return
	}

	toks, err = asm.expand(toks)
	if err != nil {
		return
	}

	var data []byte
	switch dir {
	case DIR_BYTE:
		data, err = asm.dataBytes(toks[1:])
	case DIR_SPACE:
		data, err = asm.dataSpace(toks[1:])
	case DIR_STRING, DIR_ASCII, DIR_ASCIZ:
		data, err = asm.dataString(toks[1:])
	case DIR_SECTION:
		err = ErrSectionDuplicate
	default:
		err = ErrDirective(toks[0].Text)
	}
	if err != nil {
		return
	}

	if len(asm.data)+len(data) > RAM_SIZE {
		err = ErrDataOverflow
		return
	}

	if label != "" {
		err = asm.addLabel(asm.Symbol, label, avr.SRAM_START+len(asm.data))
		if err != nil {
			return
		}
	}

	if asm.Verbose {
		log.Printf("%v: %04x: %v", line.LineNo, avr.SRAM_START+len(asm.data), line)
	}

	asm.data = append(asm.data, data...)
	return
}

// define handles `.def name = Rn`.
func (asm *Assembler) define(toks []Token) (err error) {
	if len(toks) != 4 ||
		toks[1].Kind != TOKEN_STRING ||
		toks[2].Kind != TOKEN_EQUALS ||
		toks[3].Kind != TOKEN_REG || toks[3].Paired() {
		err = ErrDefSyntax
		return
	}

	name := toks[1].Text
	if _, ok := asm.Define[name]; ok {
		err = ErrLabelDuplicate(name)
		return
	}
	asm.Define[name] = toks[3].Value
	return
}

// values reads a comma separated list of one token kind class.
func values(toks []Token, accept func(Token) bool) (list []Token, err error) {
	if len(toks) == 0 {
		err = ErrValueMissing
		return
	}
	for n, tok := range toks {
		if n%2 == 1 {
			if tok.Kind != TOKEN_COMMA {
				err = ErrMissingComma
				return
			}
			if n == len(toks)-1 {
				err = ErrTrailingComma
				return
			}
			continue
		}
		if !accept(tok) {
			err = ErrOperandKind{Op: -1, Index: n/2 + 1, Text: tok.String()}
			return
		}
		list = append(list, tok)
	}
	return
}

func isInt(tok Token) bool {
	return tok.Kind == TOKEN_INT
}

func isStr(tok Token) bool {
	return tok.Kind == TOKEN_STR
}

// byteValue checks an integer for a byte, accepting negative two's complement.
func byteValue(tok Token) (value byte, err error) {
	if tok.Value < -128 || tok.Value > 255 {
		err = ErrOperandRange{Op: -1, Text: tok.Text, Value: tok.Value, Lo: -128, Hi: 255}
		return
	}
	value = byte(tok.Value & 0xff)
	return
}

// dataBytes handles `.byte v, v, ...`.
func (asm *Assembler) dataBytes(toks []Token) (data []byte, err error) {
	list, err := values(toks, isInt)
	if err != nil {
		return
	}
	for _, tok := range list {
		var value byte
		value, err = byteValue(tok)
		if err != nil {
			return
		}
		data = append(data, value)
	}
	return
}

// dataSpace handles `.space n[, fill]`.
func (asm *Assembler) dataSpace(toks []Token) (data []byte, err error) {
	list, err := values(toks, isInt)
	if err != nil {
		return
	}
	if len(list) > 2 {
		err = ErrExtraTokens
		return
	}

	size := list[0]
	if size.Value < 0 || size.Value > RAM_SIZE {
		err = ErrOperandRange{Op: -1, Text: size.Text, Value: size.Value, Lo: 0, Hi: RAM_SIZE}
		return
	}

	var fill byte
	if len(list) == 2 {
		if list[1].Value < 0 || list[1].Value > 255 {
			err = ErrOperandRange{Op: -1, Text: list[1].Text, Value: list[1].Value, Lo: 0, Hi: 255}
			return
		}
		fill = byte(list[1].Value)
	}

	data = make([]byte, size.Value)
	for n := range data {
		data[n] = fill
	}
	return
}

// dataString handles `.string`, `.ascii` and `.asciz`.
func (asm *Assembler) dataString(toks []Token) (data []byte, err error) {
	list, err := values(toks, isStr)
	if err != nil {
		return
	}
	for _, tok := range list {
		data = append(data, tok.Text...)
	}
	return
}

// scanLine assigns code label addresses, returning the next address.
func (asm *Assembler) scanLine(line Line, pc int) (next int, err error) {
	next = pc
	toks := line.Tokens

	if toks[0].Kind == TOKEN_LABEL {
		err = asm.addLabel(asm.Label, toks[0].Text, pc)
		if err != nil {
			return
		}
		toks = toks[1:]
		if len(toks) == 0 {
			return
		}
	}

	switch toks[0].Kind {
	case TOKEN_INST:
		next += avr.Mnemonic(toks[0].Value).Words()
		if next > avr.PMEM_SIZE {
			err = ErrProgramOverflow
		}
	case TOKEN_DIR:
		switch toks[0].Directive() {
		case DIR_GLOBAL, DIR_END:
		default:
			err = ErrDirective(toks[0].Text)
		}
	default:
		err = ErrMnemonic(toks[0].String())
	}
	return
}

// emitLine emits the instruction of a .text line, reporting if it was `.end`.
func (asm *Assembler) emitLine(line Line, index int, count int) (ended bool, err error) {
	toks, err := asm.expand(line.Tokens)
	if err != nil {
		return
	}

	labeled := false
	if toks[0].Kind == TOKEN_LABEL {
		labeled = true
		toks = toks[1:]
		if len(toks) == 0 {
			return
		}
	}

	if toks[0].Kind == TOKEN_DIR {
		switch toks[0].Directive() {
		case DIR_END:
			if index != count-1 {
				err = ErrEndPlacement
				return
			}
			if len(toks) != 1 {
				err = ErrExtraTokens
				return
			}
			ended = true
		case DIR_GLOBAL:
			if index != 0 || labeled {
				err = ErrGlobalPlacement
				return
			}
			if len(toks) != 2 || toks[1].Kind != TOKEN_STRING {
				err = ErrExtraTokens
				return
			}
			name := toks[1].Text
			if _, ok := asm.Label[name]; !ok {
				err = ErrGlobalLabel(name)
				return
			}
			asm.global = name
		default:
			err = ErrDirective(toks[0].Text)
		}
		return
	}

	pc := len(asm.code)
	ins, err := asm.instruction(pc, toks)
	if err != nil {
		return
	}
	ins.LineNo = line.LineNo

	if asm.Verbose {
		log.Printf("%v: %04x: %v", line.LineNo, pc, ins)
	}

	asm.code = append(asm.code, ins)
	for range ins.Words() - 1 {
		asm.code = append(asm.code, nil)
	}
	return
}

// instruction matches the operand tokens of a mnemonic against its table entry.
func (asm *Assembler) instruction(pc int, toks []Token) (ins *avr.Instruction, err error) {
	op := avr.Mnemonic(toks[0].Value)
	info := op.Info()
	args := toks[1:]

	given := 0
	for _, tok := range args {
		if tok.Kind != TOKEN_COMMA {
			given++
		}
	}
	if given != len(info.Args) {
		err = ErrOperandCount{Op: op, Want: len(info.Args)}
		return
	}

	ins = &avr.Instruction{Op: op}
	pos := 0
	for n, slot := range info.Args {
		if n > 0 && slot.Class != avr.ARG_DISP {
			if pos >= len(args) || args[pos].Kind != TOKEN_COMMA {
				err = ErrMissingComma
				return
			}
			pos++
		}
		if pos >= len(args) {
			err = ErrOperandCount{Op: op, Want: len(info.Args)}
			return
		}
		tok := args[pos]
		pos++

		var arg avr.Operand
		arg, err = asm.operand(op, pc, n, slot, tok)
		if err != nil {
			return
		}
		ins.Args = append(ins.Args, arg)
	}

	if pos != len(args) {
		err = ErrTrailingComma
		return
	}

	return
}

// named reads a bare X, Y or Z pointer token as the label of that name.
func named(tok Token) Token {
	if tok.Kind != TOKEN_POINTER {
		return tok
	}
	switch avr.Pointer(tok.Value) {
	case avr.PTR_X, avr.PTR_Y, avr.PTR_Z:
		tok.Kind = TOKEN_STRING
		tok.Value = 0
	}
	return tok
}

// operand resolves and range checks a single operand token.
func (asm *Assembler) operand(op avr.Mnemonic, pc int, n int, slot avr.Arg, tok Token) (arg avr.Operand, err error) {
	wrongKind := ErrOperandKind{Op: op, Index: n + 1, Text: tok.String()}
	outOfRange := func(value int) error {
		lo, hi := slot.Domain.Range()
		return ErrOperandRange{Op: op, Text: tok.String(), Value: value, Lo: lo, Hi: hi}
	}

	switch slot.Class {
	case avr.ARG_REG:
		if tok.Kind != TOKEN_REG {
			err = wrongKind
			return
		}
		if tok.Paired() {
			if !slot.Domain.Paired() {
				err = wrongKind
				return
			}
			if tok.High != tok.Value+1 {
				err = ErrRegisterPair(tok.Text)
				return
			}
		}
		if !slot.Domain.Contains(tok.Value) {
			err = outOfRange(tok.Value)
			return
		}
		arg = avr.Reg(tok.Value)

	case avr.ARG_IMM, avr.ARG_DISP:
		if tok.Kind != TOKEN_INT {
			err = wrongKind
			return
		}
		if !slot.Domain.Contains(tok.Value) {
			err = outOfRange(tok.Value)
			return
		}
		arg = avr.Imm(tok.Value)

	case avr.ARG_BYTE:
		switch tok.Kind {
		case TOKEN_INT:
			var value byte
			value, err = byteValue(tok)
			if err != nil {
				err = outOfRange(tok.Value)
				return
			}
			arg = avr.Imm(int(value))
		case TOKEN_LO8, TOKEN_HI8:
			addr, ok := asm.Symbol[tok.Text]
			if !ok {
				err = ErrLabelMissing(tok.Text)
				return
			}
			if tok.Kind == TOKEN_HI8 {
				addr >>= 8
			}
			arg = avr.Imm(addr & 0xff)
		default:
			err = wrongKind
		}

	case avr.ARG_TARGET:
		tok = named(tok)
		switch {
		case tok.Kind == TOKEN_BUILTIN && slot.Builtin:
			arg = avr.Func(avr.Builtin(tok.Value))
		case tok.Kind == TOKEN_STRING:
			target, ok := asm.Label[tok.Text]
			if !ok {
				err = ErrLabelMissing(tok.Text)
				return
			}
			if slot.Domain.Relative() {
				target = target - pc - 1
			}
			if !slot.Domain.Contains(target) {
				err = ErrLabelRange(tok.Text)
				return
			}
			arg = avr.Imm(target)
		case tok.Kind == TOKEN_INT:
			if !slot.Domain.Contains(tok.Value) {
				err = outOfRange(tok.Value)
				return
			}
			arg = avr.Imm(tok.Value)
		default:
			err = wrongKind
		}

	case avr.ARG_DATA:
		tok = named(tok)
		switch tok.Kind {
		case TOKEN_STRING:
			addr, ok := asm.Symbol[tok.Text]
			if !ok {
				err = ErrLabelMissing(tok.Text)
				return
			}
			if !slot.Domain.Contains(addr) {
				err = ErrLabelRange(tok.Text)
				return
			}
			arg = avr.Imm(addr)
		case TOKEN_INT:
			if !slot.Domain.Contains(tok.Value) {
				err = outOfRange(tok.Value)
				return
			}
			arg = avr.Imm(tok.Value)
		default:
			err = wrongKind
		}

	case avr.ARG_POINTER:
		if tok.Kind != TOKEN_POINTER || !slices.Contains(slot.Pointers, avr.Pointer(tok.Value)) {
			err = wrongKind
			return
		}
		arg = avr.Ptr(avr.Pointer(tok.Value))
	}

	return
}
