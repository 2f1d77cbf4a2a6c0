package asm

import (
	"fmt"
	"strings"
)

// TokenKind is the lexical class of a token.
type TokenKind int

const (
	TOKEN_INST    = TokenKind(iota) // instruction
	TOKEN_REG                       // register
	TOKEN_INT                       // integer
	TOKEN_COMMA                     // ','
	TOKEN_LABEL                     // label
	TOKEN_DIR                       // directive
	TOKEN_STRING                    // identifier
	TOKEN_STR                       // string
	TOKEN_EQUALS                    // '='
	TOKEN_POINTER                   // pointer
	TOKEN_LO8                       // lo8()
	TOKEN_HI8                       // hi8()
	TOKEN_BUILTIN                   // builtin
	TOKEN_EXPR                      // $()
)

var tokenKindName = [...]string{
	"instruction", "register", "integer", "','", "label", "directive",
	"identifier", "string", "'='", "pointer", "lo8()", "hi8()", "builtin", "$()",
}

func (kind TokenKind) String() string {
	if kind < 0 || int(kind) >= len(tokenKindName) {
		return fmt.Sprintf("TokenKind(%d)", int(kind))
	}
	return tokenKindName[kind]
}

// Directive identifies an assembler directive.
type Directive int

const (
	DIR_SECTION = Directive(iota) // .section
	DIR_END                       // .end
	DIR_GLOBAL                    // .global
	DIR_BYTE                      // .byte
	DIR_STRING                    // .string
	DIR_ASCII                     // .ascii
	DIR_ASCIZ                     // .asciz
	DIR_SPACE                     // .space
	DIR_DEF                       // .def
)

var directiveMap = map[string]Directive{
	".section": DIR_SECTION,
	".end":     DIR_END,
	".global":  DIR_GLOBAL,
	".byte":    DIR_BYTE,
	".string":  DIR_STRING,
	".ascii":   DIR_ASCII,
	".asciz":   DIR_ASCIZ,
	".space":   DIR_SPACE,
	".def":     DIR_DEF,
}

func (dir Directive) String() string {
	for name, d := range directiveMap {
		if d == dir {
			return name
		}
	}
	return "."
}

// Token is a single lexical element of a source line.
type Token struct {
	Kind  TokenKind
	Text  string // Source spelling; decoded bytes for TOKEN_STR; label for lo8()/hi8().
	Value int    // Register, integer, mnemonic, directive, pointer or builtin.
	High  int    // High register of a paired Rh:Rl register.
	Col   int    // 1-based column.
}

// Paired is set for register tokens written as Rh:Rl.
func (tok Token) Paired() bool {
	return tok.Kind == TOKEN_REG && strings.Contains(tok.Text, ":")
}

// Directive returns the directive of a TOKEN_DIR.
func (tok Token) Directive() Directive {
	return Directive(tok.Value)
}

func (tok Token) String() string {
	switch tok.Kind {
	case TOKEN_COMMA:
		return ","
	case TOKEN_EQUALS:
		return "="
	case TOKEN_STR:
		return fmt.Sprintf("%q", tok.Text)
	case TOKEN_LABEL:
		return tok.Text + ":"
	case TOKEN_LO8:
		return "lo8(" + tok.Text + ")"
	case TOKEN_HI8:
		return "hi8(" + tok.Text + ")"
	case TOKEN_EXPR:
		return "$(" + tok.Text + ")"
	}
	return tok.Text
}

// Line is the token list of one non-blank source line.
type Line struct {
	LineNo int // 1-based source line number.
	Tokens []Token
}

func (line Line) String() string {
	words := make([]string, len(line.Tokens))
	for n, tok := range line.Tokens {
		words[n] = tok.String()
	}
	return strings.Join(words, " ")
}
