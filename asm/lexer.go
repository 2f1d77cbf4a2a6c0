// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/ezrec/avrsim/avr"
)

// Lexer splits assembler source into token lines.
type Lexer struct {
	File string // File name for diagnostics.

	line   string
	lineno int
	pos    int
	tokens []Token
	asciz  bool // Current line is a .string or .asciz directive.
}

// Lex tokenizes assembler source text.
func Lex(text string) (lines []Line, err error) {
	lex := &Lexer{}
	return lex.Lex(strings.NewReader(text))
}

// Lex tokenizes an input stream, one Line per non-blank source line.
func (lex *Lexer) Lex(input io.Reader) (lines []Line, err error) {
	scanner := bufio.NewScanner(input)

	lex.lineno = 0
	for scanner.Scan() {
		lex.lineno++
		var tokens []Token
		tokens, err = lex.lexLine(scanner.Text())
		if err != nil {
			return
		}
		if len(tokens) > 0 {
			lines = append(lines, Line{LineNo: lex.lineno, Tokens: tokens})
		}
	}

	err = scanner.Err()
	return
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '.'
}

func isIdent(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '(' || c == ')'
}

func isPointer(c byte) bool {
	switch c {
	case 'X', 'Y', 'Z', 'x', 'y', 'z':
		return true
	}
	return false
}

// fail builds a positioned lexer error.
func (lex *Lexer) fail(kind error, col int, err error) error {
	return &ErrSyntax{Kind: kind, File: lex.File, LineNo: lex.lineno, Column: col + 1, Err: err}
}

// peek returns the byte at an offset from the current position, or 0.
func (lex *Lexer) peek(offset int) byte {
	if lex.pos+offset >= len(lex.line) {
		return 0
	}
	return lex.line[lex.pos+offset]
}

func (lex *Lexer) emit(kind TokenKind, text string, value int, col int) {
	lex.tokens = append(lex.tokens, Token{Kind: kind, Text: text, Value: value, Col: col + 1})
}

// lastKind returns the kind of the previous token on the line, if any.
func (lex *Lexer) lastKind() (kind TokenKind, ok bool) {
	if len(lex.tokens) == 0 {
		return
	}
	return lex.tokens[len(lex.tokens)-1].Kind, true
}

// operand is set when the next token is an operand or directive argument,
// where a mnemonic spelling names a label.
func (lex *Lexer) operand() bool {
	kind, ok := lex.lastKind()
	return ok && (kind == TOKEN_INST || kind == TOKEN_COMMA || kind == TOKEN_DIR)
}

func (lex *Lexer) lexLine(text string) (tokens []Token, err error) {
	lex.line = text
	lex.pos = 0
	lex.tokens = nil
	lex.asciz = false

	for lex.pos < len(lex.line) {
		c := lex.line[lex.pos]
		start := lex.pos
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			lex.pos++
		case c == ';':
			lex.pos = len(lex.line)
		case c == ',':
			lex.emit(TOKEN_COMMA, ",", 0, start)
			lex.pos++
		case c == '=':
			lex.emit(TOKEN_EQUALS, "=", 0, start)
			lex.pos++
		case c == '"':
			err = lex.lexString()
		case c == '$' && lex.peek(1) == '(':
			err = lex.lexExpr()
		case c == '-' && isDigit(lex.peek(1)):
			err = lex.lexNumber()
		case c == '-':
			err = lex.lexPointer()
		case isDigit(c):
			err = lex.lexNumber()
		case isPointer(c) && len(lex.tokens) > 0 && (lex.peek(1) == '+' || !isIdent(lex.peek(1))):
			err = lex.lexPointer()
		case isIdentStart(c):
			err = lex.lexIdent()
		default:
			err = lex.fail(ErrIllegalCharacter, start, ErrCharacter(string(c)))
		}
		if err != nil {
			return
		}
	}

	tokens = lex.tokens
	return
}

// lexNumber reads a decimal, 0x, 0o or 0b literal, with an optional leading '-'.
func (lex *Lexer) lexNumber() (err error) {
	start := lex.pos
	negative := false
	if lex.line[lex.pos] == '-' {
		negative = true
		lex.pos++
	}

	digits := lex.pos
	for lex.pos < len(lex.line) && (isLetter(lex.line[lex.pos]) || isDigit(lex.line[lex.pos]) || lex.line[lex.pos] == '_') {
		lex.pos++
	}
	text := lex.line[digits:lex.pos]

	base := 10
	body := text
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			body = text[2:]
		}
	}

	value, perr := strconv.ParseInt(body, base, 32)
	if perr != nil {
		err = lex.fail(ErrIllegalCharacter, start, ErrParseNumber(lex.line[start:lex.pos]))
		return
	}
	if negative {
		value = -value
	}

	lex.emit(TOKEN_INT, lex.line[start:lex.pos], int(value), start)
	return
}

// lexPointer reads X, Y, Z with an optional '-' prefix or '+' suffix.
func (lex *Lexer) lexPointer() (err error) {
	start := lex.pos
	text := ""
	if lex.line[lex.pos] == '-' {
		text = "-"
		lex.pos++
	}
	if !isPointer(lex.peek(0)) || isIdent(lex.peek(1)) {
		end := lex.pos
		for end < len(lex.line) && isIdent(lex.line[end]) {
			end++
		}
		end = min(max(end, lex.pos+1), len(lex.line))
		err = lex.fail(ErrInvalidInstruction, start, ErrPointer(lex.line[start:end]))
		return
	}
	text += strings.ToUpper(lex.line[lex.pos : lex.pos+1])
	lex.pos++
	if text[0] != '-' && lex.peek(0) == '+' {
		text += "+"
		lex.pos++
	}

	ptr, ok := avr.LookupPointer(text)
	if !ok {
		err = lex.fail(ErrInvalidInstruction, start, ErrPointer(text))
		return
	}
	lex.emit(TOKEN_POINTER, lex.line[start:lex.pos], int(ptr), start)
	return
}

var escapeMap = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'0':  0,
}

// lexString reads a quoted literal, decoding escapes.
func (lex *Lexer) lexString() (err error) {
	start := lex.pos
	lex.pos++

	var text []byte
	for {
		if lex.pos >= len(lex.line) {
			err = lex.fail(ErrInvalidInstruction, start, ErrStringUnterminated)
			return
		}
		c := lex.line[lex.pos]
		lex.pos++
		if c == '"' {
			break
		}
		if c == '\\' {
			if lex.pos >= len(lex.line) {
				err = lex.fail(ErrInvalidInstruction, start, ErrStringUnterminated)
				return
			}
			esc := lex.line[lex.pos]
			lex.pos++
			value, ok := escapeMap[esc]
			if !ok {
				err = lex.fail(ErrInvalidInstruction, lex.pos-2, ErrEscape(string(esc)))
				return
			}
			c = value
		}
		text = append(text, c)
	}

	if lex.asciz {
		text = append(text, 0)
	}

	lex.emit(TOKEN_STR, string(text), 0, start)
	return
}

// lexExpr reads a $( ... ) compile-time expression, with nested parentheses.
func (lex *Lexer) lexExpr() (err error) {
	start := lex.pos
	lex.pos += 2
	depth := 1
	for lex.pos < len(lex.line) {
		switch lex.line[lex.pos] {
		case '(':
			depth++
		case ')':
			depth--
		}
		lex.pos++
		if depth == 0 {
			lex.emit(TOKEN_EXPR, lex.line[start+2:lex.pos-1], 0, start)
			return
		}
	}

	err = lex.fail(ErrInvalidInstruction, start, ErrExprUnterminated)
	return
}

// register parses Rn, returning the register number.
func register(text string) (reg int, ok bool) {
	if len(text) < 2 || (text[0] != 'R' && text[0] != 'r') {
		return
	}
	for _, c := range []byte(text[1:]) {
		if !isDigit(c) {
			return
		}
	}
	reg, err := strconv.Atoi(text[1:])
	if err != nil || reg > 31 || (len(text) > 2 && text[1] == '0') {
		return
	}
	ok = true
	return
}

// lexIdent reads an identifier, classifying it.
func (lex *Lexer) lexIdent() (err error) {
	start := lex.pos
	for lex.pos < len(lex.line) && isIdent(lex.line[lex.pos]) {
		lex.pos++
	}
	text := lex.line[start:lex.pos]

	if lex.peek(0) == ':' {
		kind, ok := lex.lastKind()
		if ok && (kind == TOKEN_INST || kind == TOKEN_COMMA) {
			return lex.lexPair(start, text)
		}
		lex.pos++
		lex.emit(TOKEN_LABEL, text, 0, start)
		return
	}

	upper := strings.ToUpper(text)

	if len(text) > 5 && (strings.HasPrefix(upper, "LO8(") || strings.HasPrefix(upper, "HI8(")) && strings.HasSuffix(text, ")") {
		kind := TOKEN_LO8
		if upper[0] == 'H' {
			kind = TOKEN_HI8
		}
		lex.emit(kind, text[4:len(text)-1], 0, start)
		return
	}

	if op, ok := avr.LookupMnemonic(text); ok && !lex.operand() {
		lex.emit(TOKEN_INST, upper, int(op), start)
		return
	}

	if reg, ok := register(text); ok {
		lex.emit(TOKEN_REG, upper, reg, start)
		return
	}

	if dir, ok := directiveMap[strings.ToLower(text)]; ok {
		if dir == DIR_STRING || dir == DIR_ASCIZ {
			lex.asciz = true
		}
		lex.emit(TOKEN_DIR, strings.ToLower(text), int(dir), start)
		return
	}

	if bi, ok := avr.LookupBuiltin(text); ok {
		lex.emit(TOKEN_BUILTIN, upper, int(bi), start)
		return
	}

	lex.emit(TOKEN_STRING, text, 0, start)
	return
}

// lexPair reads the Rh:Rl register pair spelling.
func (lex *Lexer) lexPair(start int, high string) (err error) {
	lex.pos++
	low := lex.pos
	for lex.pos < len(lex.line) && isIdent(lex.line[lex.pos]) {
		lex.pos++
	}
	text := lex.line[start:lex.pos]

	hi, ok := register(high)
	if !ok {
		err = lex.fail(ErrInvalidInstruction, start, ErrRegisterPair(text))
		return
	}
	lo, ok := register(lex.line[low:lex.pos])
	if !ok {
		err = lex.fail(ErrInvalidInstruction, start, ErrRegisterPair(text))
		return
	}

	lex.tokens = append(lex.tokens, Token{
		Kind:  TOKEN_REG,
		Text:  strings.ToUpper(text),
		Value: lo,
		High:  hi,
		Col:   start + 1,
	})
	return
}
