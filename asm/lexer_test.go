package asm

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/avrsim/avr"
)

func kinds(toks []Token) (list []TokenKind) {
	for _, tok := range toks {
		list = append(list, tok.Kind)
	}
	return
}

func TestLex(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		line   string
		kinds  []TokenKind
		values []int
	}){
		{"LDI R16, 0x0F ; comment", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_LDI), 16, 0, 15}},
		{"ldi r31, 0b101", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_LDI), 31, 0, 5}},
		{"SUBI R16, 0o17", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_SUBI), 16, 0, 15}},
		{"CPI R16, 017", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_CPI), 16, 0, 17}},
		{"LDI R16, -1", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_LDI), 16, 0, -1}},
		{"loop: RJMP loop", []TokenKind{TOKEN_LABEL, TOKEN_INST, TOKEN_STRING}, []int{0, int(avr.OP_RJMP), 0}},
		{"LD R0, -X", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_POINTER}, []int{int(avr.OP_LD), 0, 0, int(avr.PTR_X_DEC)}},
		{"ST Y+, R1", []TokenKind{TOKEN_INST, TOKEN_POINTER, TOKEN_COMMA, TOKEN_REG}, []int{int(avr.OP_ST), int(avr.PTR_Y_INC), 0, 1}},
		{"LDD R2, Z+3", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_POINTER, TOKEN_INT}, []int{int(avr.OP_LDD), 2, 0, int(avr.PTR_Z_INC), 3}},
		{"XCH Z, R4", []TokenKind{TOKEN_INST, TOKEN_POINTER, TOKEN_COMMA, TOKEN_REG}, []int{int(avr.OP_XCH), int(avr.PTR_Z), 0, 4}},
		{"LDS R0, xval", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_STRING}, []int{int(avr.OP_LDS), 0, 0, 0}},
		{"CALL PRINTF", []TokenKind{TOKEN_INST, TOKEN_BUILTIN}, []int{int(avr.OP_CALL), int(avr.BUILTIN_PRINTF)}},
		{".section .data", []TokenKind{TOKEN_DIR, TOKEN_STRING}, []int{int(DIR_SECTION), 0}},
		{".def counter = R20", []TokenKind{TOKEN_DIR, TOKEN_STRING, TOKEN_EQUALS, TOKEN_REG}, []int{int(DIR_DEF), 0, 0, 20}},
		{"ADIW R25:R24, 1", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_INT}, []int{int(avr.OP_ADIW), 24, 0, 1}},
		{"   ", nil, nil},
		{"; only a comment", nil, nil},
	}

	for _, entry := range table {
		lines, err := Lex(entry.line)
		assert.NoError(err, entry.line)
		if entry.kinds == nil {
			assert.Empty(lines, entry.line)
			continue
		}
		if !assert.Equal(1, len(lines), entry.line) {
			continue
		}
		toks := lines[0].Tokens
		assert.Equal(entry.kinds, kinds(toks), entry.line)
		for n, tok := range toks {
			if n < len(entry.values) {
				assert.Equal(entry.values[n], tok.Value, "%v: token %d", entry.line, n)
			}
		}
	}
}

func TestLexTokens(t *testing.T) {
	assert := assert.New(t)

	lines, err := Lex(`msg: .string "hi\n", "a\"b"`)
	assert.NoError(err)
	toks := lines[0].Tokens
	assert.Equal("msg", toks[0].Text)
	assert.Equal("hi\n\x00", toks[2].Text)
	assert.Equal("a\"b\x00", toks[4].Text)

	lines, err = Lex(`.ascii "tab\there"`)
	assert.NoError(err)
	assert.Equal("tab\there", lines[0].Tokens[1].Text)

	lines, err = Lex(`.asciz "semi;colon"`)
	assert.NoError(err)
	assert.Equal("semi;colon\x00", lines[0].Tokens[1].Text)

	lines, err = Lex("LDI R16, lo8(msg)\nLDI R17, HI8(msg)")
	assert.NoError(err)
	assert.Equal(TOKEN_LO8, lines[0].Tokens[3].Kind)
	assert.Equal("msg", lines[0].Tokens[3].Text)
	assert.Equal(TOKEN_HI8, lines[1].Tokens[3].Kind)

	lines, err = Lex("MOVW R1:R0, R31:R30")
	assert.NoError(err)
	toks = lines[0].Tokens
	assert.True(toks[1].Paired())
	assert.Equal(0, toks[1].Value)
	assert.Equal(1, toks[1].High)
	assert.Equal(30, toks[3].Value)
	assert.Equal(31, toks[3].High)

	lines, err = Lex("LDI R16, $((msg + 1) & 0xff)")
	assert.NoError(err)
	assert.Equal(TOKEN_EXPR, lines[0].Tokens[3].Kind)
	assert.Equal("(msg + 1) & 0xff", lines[0].Tokens[3].Text)

	// Mnemonic spellings in operand position are names
	names := [](struct {
		line  string
		kinds []TokenKind
		name  string
	}){
		{"CALL sub", []TokenKind{TOKEN_INST, TOKEN_STRING}, "sub"},
		{"RJMP inc", []TokenKind{TOKEN_INST, TOKEN_STRING}, "inc"},
		{".global sub", []TokenKind{TOKEN_DIR, TOKEN_STRING}, "sub"},
		{"BRNE Loop", []TokenKind{TOKEN_INST, TOKEN_STRING}, "Loop"},
		{"LDI R16, nop", []TokenKind{TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_STRING}, "nop"},
	}
	for _, entry := range names {
		lines, err := Lex(entry.line)
		if !assert.NoError(err, entry.line) {
			continue
		}
		toks := lines[0].Tokens
		assert.Equal(entry.kinds, kinds(toks), entry.line)
		assert.Equal(entry.name, toks[len(toks)-1].Text, entry.line)
	}

	lines, err = Lex("sub: SUB R1, R2")
	assert.NoError(err)
	assert.Equal([]TokenKind{TOKEN_LABEL, TOKEN_INST, TOKEN_REG, TOKEN_COMMA, TOKEN_REG}, kinds(lines[0].Tokens))
	assert.Equal("sub", lines[0].Tokens[0].Text)

	// Pointers keep their source spelling
	lines, err = Lex("LDS R16, x")
	assert.NoError(err)
	toks = lines[0].Tokens
	assert.Equal(TOKEN_POINTER, toks[3].Kind)
	assert.Equal(int(avr.PTR_X), toks[3].Value)
	assert.Equal("x", toks[3].Text)

	// X as a label at the start of a line
	lines, err = Lex("X: NOP")
	assert.NoError(err)
	assert.Equal(TOKEN_LABEL, lines[0].Tokens[0].Kind)
	assert.Equal("X", lines[0].Tokens[0].Text)
}

func TestLexLineNumbers(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"",
		"; header",
		"",
		"NOP",
		"",
		"  RET ; done",
	}

	lines, err := Lex(strings.Join(program, "\n"))
	assert.NoError(err)
	assert.Equal(2, len(lines))
	assert.Equal(4, lines[0].LineNo)
	assert.Equal(6, lines[1].LineNo)
	assert.Equal("RET", lines[1].String())
}

func TestLexErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		text   string
		kind   error
		detail error
		column int
	}){
		{"LDI R16, #5", ErrIllegalCharacter, ErrCharacter("#"), 10},
		{"LDI R16, 0xZZ", ErrIllegalCharacter, ErrParseNumber("0xZZ"), 10},
		{"LDI R16, 12ab", ErrIllegalCharacter, ErrParseNumber("12ab"), 10},
		{`.string "abc`, ErrInvalidInstruction, ErrStringUnterminated, 9},
		{`.string "a\qb"`, ErrInvalidInstruction, ErrEscape("q"), 11},
		{"LD R0, -W", ErrInvalidInstruction, ErrPointer("-W"), 8},
		{"LDI R16, $(1 + 2", ErrInvalidInstruction, ErrExprUnterminated, 10},
		{"ADIW R25:Q24, 1", ErrInvalidInstruction, ErrRegisterPair("R25:Q24"), 6},
	}

	for _, entry := range table {
		lex := &Lexer{File: "test.s"}
		_, err := lex.Lex(strings.NewReader("NOP\n" + entry.text))
		assert.ErrorIs(err, entry.kind, entry.text)
		assert.ErrorIs(err, entry.detail, entry.text)

		var syn *ErrSyntax
		if assert.True(errors.As(err, &syn), entry.text) {
			assert.Equal(2, syn.LineNo, entry.text)
			assert.Equal(entry.column, syn.Column, entry.text)
			assert.Equal("test.s", syn.File, entry.text)
		}
	}
}

func FuzzLex(f *testing.F) {
	f.Add("LDI R16, 0x0F ; comment")
	f.Add(`msg: .string "hi\n"`)
	f.Add("ADIW R25:R24, $(1+2)")
	f.Add("LD R0, -X")

	f.Fuzz(func(t *testing.T, text string) {
		lines, err := Lex(text)
		if errors.Is(err, bufio.ErrTooLong) {
			return
		}
		if err != nil {
			var syn *ErrSyntax
			assert.True(t, errors.As(err, &syn))
			return
		}
		for _, line := range lines {
			assert.NotEmpty(t, line.Tokens)
		}
	})
}
