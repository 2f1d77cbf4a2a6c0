// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package avr

import (
	"fmt"
	"strings"
)

// FieldKind is the transform from an operand value to its encoded field.
type FieldKind int

const (
	FIELD_RAW    = FieldKind(iota) // Value as is
	FIELD_HIGH                     // Register - 16
	FIELD_PAIR                     // (Register - 24) / 2
	FIELD_EVEN                     // Register / 2
	FIELD_SIGNED                   // Two's complement in the field width
	FIELD_INVERT                   // 0xff - value
)

// Field places an operand into the letters of a bit template.
type Field struct {
	Letter byte
	Arg    int // Operand index
	Kind   FieldKind
}

// Encoding is one fixed bit template of a mnemonic.
type Encoding struct {
	Pattern string // '0', '1' or field letters, MSB first.
	Fields  []Field
	Pointer Pointer // Selects the variant for pointer addressing.
	Builtin Builtin // Selects the variant for builtin calls.
}

func fd(letter byte, arg int) Field { return Field{Letter: letter, Arg: arg} }
func fk(letter byte, arg int, kind FieldKind) Field {
	return Field{Letter: letter, Arg: arg, Kind: kind}
}

func enc(pattern string, fields ...Field) Encoding {
	return Encoding{Pattern: pattern, Fields: fields}
}

func encPtr(ptr Pointer, pattern string, fields ...Field) Encoding {
	return Encoding{Pattern: pattern, Fields: fields, Pointer: ptr}
}

// Branch alias of BRBS/BRBC with a fixed flag bit.
func encBranch(set bool, s int) Encoding {
	pattern := "1111 01kk kkkk k"
	if set {
		pattern = "1111 00kk kkkk k"
	}
	pattern += fmt.Sprintf("%03b", s)
	return enc(pattern, fk('k', 0, FIELD_SIGNED))
}

// Fixed BSET/BCLR word of a SEx/CLx alias.
func encFlag(set bool, s int) Encoding {
	pattern := "1001 0100 1"
	if set {
		pattern = "1001 0100 0"
	}
	pattern += fmt.Sprintf("%03b", s) + "1000"
	return enc(pattern)
}

var (
	encDR    = []Field{fd('d', 0), fd('r', 1)}
	encDK    = []Field{fk('d', 0, FIELD_HIGH), fd('K', 1)}
	encD     = []Field{fd('d', 0)}
	encDD    = []Field{fd('d', 0), fd('r', 0)}
	encWK    = []Field{fk('d', 0, FIELD_PAIR), fd('K', 1)}
	encAB    = []Field{fd('A', 0), fd('b', 1)}
	encRB    = []Field{fd('r', 0), fd('b', 1)}
	encK16   = []Field{fd('k', 1), fd('d', 0)}
	encLd    = []Field{fd('d', 0)}
	encSt    = []Field{fd('r', 1)}
	encLdd   = []Field{fd('d', 0), fd('q', 2)}
	encStd   = []Field{fd('q', 1), fd('r', 2)}
	encTable = map[Mnemonic][]Encoding{}
)

func init() {
	table := map[Mnemonic][]Encoding{
		OP_ADC:  {enc("0001 11rd dddd rrrr", encDR...)},
		OP_ADD:  {enc("0000 11rd dddd rrrr", encDR...)},
		OP_ADIW: {enc("1001 0110 KKdd KKKK", encWK...)},
		OP_AND:  {enc("0010 00rd dddd rrrr", encDR...)},
		OP_ANDI: {enc("0111 KKKK dddd KKKK", encDK...)},
		OP_ASR:  {enc("1001 010d dddd 0101", encD...)},
		OP_BCLR: {enc("1001 0100 1sss 1000", fd('s', 0))},
		OP_BRBC: {enc("1111 01kk kkkk ksss", fd('s', 0), fk('k', 1, FIELD_SIGNED))},
		OP_BRBS: {enc("1111 00kk kkkk ksss", fd('s', 0), fk('k', 1, FIELD_SIGNED))},
		OP_BSET: {enc("1001 0100 0sss 1000", fd('s', 0))},
		OP_CALL: {
			{Pattern: "1001 0101 1111 1111 1111 1111 1111 1111", Builtin: BUILTIN_PRINTF},
			enc("1001 010k kkkk 111k kkkk kkkk kkkk kkkk", fd('k', 0)),
		},
		OP_CBI:   {enc("1001 1000 AAAA Abbb", encAB...)},
		OP_CBR:   {enc("0111 KKKK dddd KKKK", fk('d', 0, FIELD_HIGH), fk('K', 1, FIELD_INVERT))},
		OP_CLR:   {enc("0010 01rd dddd rrrr", encDD...)},
		OP_COM:   {enc("1001 010d dddd 0000", encD...)},
		OP_CP:    {enc("0001 01rd dddd rrrr", encDR...)},
		OP_CPC:   {enc("0000 01rd dddd rrrr", encDR...)},
		OP_CPI:   {enc("0011 KKKK dddd KKKK", encDK...)},
		OP_DEC:   {enc("1001 010d dddd 1010", encD...)},
		OP_EOR:   {enc("0010 01rd dddd rrrr", encDR...)},
		OP_IN:    {enc("1011 0AAd dddd AAAA", fd('d', 0), fd('A', 1))},
		OP_INC:   {enc("1001 010d dddd 0011", encD...)},
		OP_JMP:   {enc("1001 010k kkkk 110k kkkk kkkk kkkk kkkk", fd('k', 0))},
		OP_LDI:   {enc("1110 KKKK dddd KKKK", encDK...)},
		OP_LDS:   {enc("1001 000d dddd 0000 kkkk kkkk kkkk kkkk", encK16...)},
		OP_LSL:   {enc("0000 11rd dddd rrrr", encDD...)},
		OP_LSR:   {enc("1001 010d dddd 0110", encD...)},
		OP_MOV:   {enc("0010 11rd dddd rrrr", encDR...)},
		OP_MOVW:  {enc("0000 0001 dddd rrrr", fk('d', 0, FIELD_EVEN), fk('r', 1, FIELD_EVEN))},
		OP_MUL:   {enc("1001 11rd dddd rrrr", encDR...)},
		OP_MULS:  {enc("0000 0010 dddd rrrr", fk('d', 0, FIELD_HIGH), fk('r', 1, FIELD_HIGH))},
		OP_MULSU: {enc("0000 0011 0ddd 0rrr", fk('d', 0, FIELD_HIGH), fk('r', 1, FIELD_HIGH))},
		OP_NEG:   {enc("1001 010d dddd 0001", encD...)},
		OP_NOP:   {enc("0000 0000 0000 0000")},
		OP_OR:    {enc("0010 10rd dddd rrrr", encDR...)},
		OP_ORI:   {enc("0110 KKKK dddd KKKK", encDK...)},
		OP_OUT:   {enc("1011 1AAr rrrr AAAA", fd('A', 0), fd('r', 1))},
		OP_POP:   {enc("1001 000d dddd 1111", encD...)},
		OP_PUSH:  {enc("1001 001r rrrr 1111", fd('r', 0))},
		OP_RCALL: {enc("1101 kkkk kkkk kkkk", fk('k', 0, FIELD_SIGNED))},
		OP_RET:   {enc("1001 0101 0000 1000")},
		OP_RJMP:  {enc("1100 kkkk kkkk kkkk", fk('k', 0, FIELD_SIGNED))},
		OP_ROL:   {enc("0001 11rd dddd rrrr", encDD...)},
		OP_ROR:   {enc("1001 010d dddd 0111", encD...)},
		OP_SBC:   {enc("0000 10rd dddd rrrr", encDR...)},
		OP_SBI:   {enc("1001 1010 AAAA Abbb", encAB...)},
		OP_SBIW:  {enc("1001 0111 KKdd KKKK", encWK...)},
		OP_SBR:   {enc("0110 KKKK dddd KKKK", encDK...)},
		OP_SBRC:  {enc("1111 110r rrrr 0bbb", encRB...)},
		OP_SBRS:  {enc("1111 111r rrrr 0bbb", encRB...)},
		OP_SER:   {enc("1110 1111 dddd 1111", fk('d', 0, FIELD_HIGH))},
		OP_STS:   {enc("1001 001d dddd 0000 kkkk kkkk kkkk kkkk", fd('k', 0), fd('d', 1))},
		OP_SUB:   {enc("0001 10rd dddd rrrr", encDR...)},
		OP_SUBI:  {enc("0101 KKKK dddd KKKK", encDK...)},
		OP_SWAP:  {enc("1001 010d dddd 0010", encD...)},
		OP_TST:   {enc("0010 00rd dddd rrrr", encDD...)},
		OP_XCH:   {encPtr(PTR_Z, "1001 001r rrrr 0100", fd('r', 1))},
		OP_LD: {
			encPtr(PTR_X, "1001 000d dddd 1100", encLd...),
			encPtr(PTR_X_INC, "1001 000d dddd 1101", encLd...),
			encPtr(PTR_X_DEC, "1001 000d dddd 1110", encLd...),
			encPtr(PTR_Y, "1000 000d dddd 1000", encLd...),
			encPtr(PTR_Y_INC, "1001 000d dddd 1001", encLd...),
			encPtr(PTR_Y_DEC, "1001 000d dddd 1010", encLd...),
			encPtr(PTR_Z, "1000 000d dddd 0000", encLd...),
			encPtr(PTR_Z_INC, "1001 000d dddd 0001", encLd...),
			encPtr(PTR_Z_DEC, "1001 000d dddd 0010", encLd...),
		},
		OP_ST: {
			encPtr(PTR_X, "1001 001r rrrr 1100", encSt...),
			encPtr(PTR_X_INC, "1001 001r rrrr 1101", encSt...),
			encPtr(PTR_X_DEC, "1001 001r rrrr 1110", encSt...),
			encPtr(PTR_Y, "1000 001r rrrr 1000", encSt...),
			encPtr(PTR_Y_INC, "1001 001r rrrr 1001", encSt...),
			encPtr(PTR_Y_DEC, "1001 001r rrrr 1010", encSt...),
			encPtr(PTR_Z, "1000 001r rrrr 0000", encSt...),
			encPtr(PTR_Z_INC, "1001 001r rrrr 0001", encSt...),
			encPtr(PTR_Z_DEC, "1001 001r rrrr 0010", encSt...),
		},
		OP_LDD: {
			encPtr(PTR_Y_INC, "10q0 qq0d dddd 1qqq", encLdd...),
			encPtr(PTR_Z_INC, "10q0 qq0d dddd 0qqq", encLdd...),
		},
		OP_STD: {
			encPtr(PTR_Y_INC, "10q0 qq1r rrrr 1qqq", encStd...),
			encPtr(PTR_Z_INC, "10q0 qq1r rrrr 0qqq", encStd...),
		},
	}

	for _, mn := range Mnemonics() {
		if br, ok := mn.BranchOf(); ok {
			table[mn] = []Encoding{encBranch(br.Set, br.Flag.Bit())}
		}
		if fl, ok := mn.FlagOf(); ok {
			table[mn] = []Encoding{encFlag(fl.Set, fl.Flag.Bit())}
		}
	}

	for op, encs := range table {
		for n := range encs {
			encs[n].Pattern = strings.ReplaceAll(encs[n].Pattern, " ", "")
			if len(encs[n].Pattern) != 16*op.Words() {
				panic(fmt.Sprintf("avr: %v: template %q is not %d words", op, encs[n].Pattern, op.Words()))
			}
		}
	}

	encTable = table
}

// Encodings returns the bit templates of a mnemonic.
func Encodings(op Mnemonic) []Encoding {
	return encTable[op]
}

// width returns the number of bits of a field letter in the template.
func (code *Encoding) width(letter byte) int {
	return strings.Count(code.Pattern, string(letter))
}

func (fl Field) encode(value int, width int) uint64 {
	switch fl.Kind {
	case FIELD_HIGH:
		value -= 16
	case FIELD_PAIR:
		value = (value - 24) / 2
	case FIELD_EVEN:
		value /= 2
	case FIELD_INVERT:
		value = 0xff - value
	}
	return uint64(value) & ((1 << width) - 1)
}

func (fl Field) decode(field uint64, width int) (value int) {
	value = int(field)
	switch fl.Kind {
	case FIELD_HIGH:
		value += 16
	case FIELD_PAIR:
		value = value*2 + 24
	case FIELD_EVEN:
		value *= 2
	case FIELD_INVERT:
		value = 0xff - value
	case FIELD_SIGNED:
		if field&(1<<(width-1)) != 0 {
			value -= 1 << width
		}
	}
	return
}

// selectEncoding picks the template variant matching the instruction.
func selectEncoding(ins *Instruction) (code *Encoding, err error) {
	encs := encTable[ins.Op]
	ptr := ins.Pointer()
	bi := ins.Builtin()
	for n := range encs {
		if encs[n].Pointer == ptr && encs[n].Builtin == bi {
			code = &encs[n]
			return
		}
	}
	err = ErrEncoding
	return
}

// Encode maps an instruction to its machine code words.
func Encode(ins *Instruction) (words []uint16, err error) {
	code, err := selectEncoding(ins)
	if err != nil {
		return
	}

	var bits uint64
	size := len(code.Pattern)
	filled := map[byte]int{}
	for n := 0; n < size; n++ {
		c := code.Pattern[n]
		var bit uint64
		switch c {
		case '0':
		case '1':
			bit = 1
		default:
			fl, ok := code.field(c)
			if !ok || fl.Arg >= len(ins.Args) {
				err = ErrEncodeOperand(ins.Op)
				return
			}
			width := code.width(c)
			value := fl.encode(ins.Args[fl.Arg].Value, width)
			bit = (value >> (width - 1 - filled[c])) & 1
			filled[c]++
		}
		bits = (bits << 1) | bit
	}

	for n := size/16 - 1; n >= 0; n-- {
		words = append(words, uint16(bits>>(16*n)))
	}

	return
}

func (code *Encoding) field(letter byte) (fl Field, ok bool) {
	for _, fl = range code.Fields {
		if fl.Letter == letter {
			ok = true
			return
		}
	}
	return
}

// Binary renders machine code words as strings of '0' and '1'.
func Binary(words []uint16) (bins []string) {
	for _, word := range words {
		bins = append(bins, fmt.Sprintf("%016b", word))
	}
	return
}

// match extracts the fields of a template from machine code, if it matches.
func (code *Encoding) match(bits uint64) (fields map[byte]uint64, ok bool) {
	size := len(code.Pattern)
	fields = map[byte]uint64{}
	for n := range size {
		bit := (bits >> (size - 1 - n)) & 1
		switch c := code.Pattern[n]; c {
		case '0', '1':
			if bit != uint64(c-'0') {
				return
			}
		default:
			fields[c] = (fields[c] << 1) | bit
		}
	}
	ok = true
	return
}

// Decode maps machine code back to an instruction record, returning the
// number of words consumed. Where more than one mnemonic shares a
// template, the first in table order is returned.
func Decode(words []uint16) (ins *Instruction, used int, err error) {
	for _, op := range Mnemonics() {
		info := op.Info()
		if len(words) < info.Words {
			continue
		}
		var bits uint64
		for _, word := range words[:info.Words] {
			bits = (bits << 16) | uint64(word)
		}
		for n := range encTable[op] {
			code := &encTable[op][n]
			fields, ok := code.match(bits)
			if !ok {
				continue
			}
			ins, ok = code.operands(op, fields)
			if ok {
				used = info.Words
				return
			}
		}
	}

	err = ErrDecode
	return
}

// operands rebuilds the operand list of a matched template.
func (code *Encoding) operands(op Mnemonic, fields map[byte]uint64) (ins *Instruction, ok bool) {
	info := op.Info()
	args := make([]Operand, len(info.Args))
	seen := make([]bool, len(info.Args))

	for n, arg := range info.Args {
		switch {
		case arg.Class == ARG_POINTER:
			args[n] = Ptr(code.Pointer)
			seen[n] = true
		case arg.Builtin && code.Builtin != BUILTIN_NONE:
			args[n] = Func(code.Builtin)
			seen[n] = true
		case arg.Class == ARG_REG:
			args[n].Kind = OPERAND_REG
		default:
			args[n].Kind = OPERAND_IMM
		}
	}

	for _, fl := range code.Fields {
		value := fl.decode(fields[fl.Letter], code.width(fl.Letter))
		if seen[fl.Arg] && args[fl.Arg].Value != value {
			// Aliases repeating an operand need both fields to agree.
			return
		}
		args[fl.Arg].Value = value
		seen[fl.Arg] = true
	}

	if len(args) == 0 {
		args = nil
	}

	ins = &Instruction{Op: op, Args: args}
	ok = true
	return
}
