// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package avr

import (
	"strings"
)

// Mnemonic identifies an instruction.
type Mnemonic int

const (
	OP_ADC Mnemonic = iota
	OP_ADD
	OP_ADIW
	OP_AND
	OP_ANDI
	OP_ASR
	OP_BCLR
	OP_BRBC
	OP_BRBS
	OP_BRCC
	OP_BRCS
	OP_BREQ
	OP_BRGE
	OP_BRHC
	OP_BRHS
	OP_BRID
	OP_BRIE
	OP_BRLO
	OP_BRLT
	OP_BRMI
	OP_BRNE
	OP_BRPL
	OP_BRSH
	OP_BRTC
	OP_BRTS
	OP_BRVC
	OP_BRVS
	OP_BSET
	OP_CALL
	OP_CBI
	OP_CBR
	OP_CLC
	OP_CLH
	OP_CLI
	OP_CLN
	OP_CLR
	OP_CLS
	OP_CLT
	OP_CLV
	OP_CLZ
	OP_COM
	OP_CP
	OP_CPC
	OP_CPI
	OP_DEC
	OP_EOR
	OP_IN
	OP_INC
	OP_JMP
	OP_LD
	OP_LDD
	OP_LDI
	OP_LDS
	OP_LSL
	OP_LSR
	OP_MOV
	OP_MOVW
	OP_MUL
	OP_MULS
	OP_MULSU
	OP_NEG
	OP_NOP
	OP_OR
	OP_ORI
	OP_OUT
	OP_POP
	OP_PUSH
	OP_RCALL
	OP_RET
	OP_RJMP
	OP_ROL
	OP_ROR
	OP_SBC
	OP_SBI
	OP_SBIW
	OP_SBR
	OP_SBRC
	OP_SBRS
	OP_SEC
	OP_SEH
	OP_SEI
	OP_SEN
	OP_SER
	OP_SES
	OP_SET
	OP_SEV
	OP_SEZ
	OP_ST
	OP_STD
	OP_STS
	OP_SUB
	OP_SUBI
	OP_SWAP
	OP_TST
	OP_XCH

	MNEMONIC_COUNT int = iota
)

// ArgClass is the syntactic class of an operand slot.
type ArgClass int

const (
	ARG_REG     = ArgClass(iota) // Register, Rn or a .def alias
	ARG_IMM                      // Integer literal or $(...) expression
	ARG_BYTE                     // Integer, expression, lo8() or hi8()
	ARG_TARGET                   // Code label or raw offset/address
	ARG_DATA                     // Data label or raw data address
	ARG_POINTER                  // X, Y, Z with optional modifier
	ARG_DISP                     // Displacement following a pointer, no comma
)

// Domain is the numeric range an operand is checked against.
type Domain int

const (
	DOM_NONE     = Domain(iota)
	DOM_REG                     // 0..31
	DOM_REG16                   // 16..31
	DOM_REG16_23                // 16..23
	DOM_REGW                    // 24, 26, 28, 30
	DOM_REGE                    // even register
	DOM_K8                      // 0..255
	DOM_K6                      // 0..63
	DOM_Q                       // 0..63
	DOM_A6                      // 0..63
	DOM_A5                      // 0..31
	DOM_BIT                     // 0..7
	DOM_K7                      // -64..63
	DOM_K12                     // -2048..2047
	DOM_K22                     // 0..4194303
	DOM_K16                     // 256..65535
)

var domainRange = map[Domain][2]int{
	DOM_REG:      {0, 31},
	DOM_REG16:    {16, 31},
	DOM_REG16_23: {16, 23},
	DOM_REGW:     {24, 30},
	DOM_REGE:     {0, 30},
	DOM_K8:       {0, 255},
	DOM_K6:       {0, 63},
	DOM_Q:        {0, 63},
	DOM_A6:       {0, 63},
	DOM_A5:       {0, 31},
	DOM_BIT:      {0, 7},
	DOM_K7:       {-64, 63},
	DOM_K12:      {-2048, 2047},
	DOM_K22:      {0, 4194303},
	DOM_K16:      {256, 65535},
}

// Range returns the inclusive bounds of the domain.
func (dom Domain) Range() (lo, hi int) {
	r := domainRange[dom]
	return r[0], r[1]
}

// Contains checks a value against the domain.
func (dom Domain) Contains(value int) bool {
	if dom == DOM_NONE {
		return true
	}
	lo, hi := dom.Range()
	if value < lo || value > hi {
		return false
	}
	switch dom {
	case DOM_REGW, DOM_REGE:
		return value%2 == 0
	}
	return true
}

// Relative is set for the domains holding a PC-relative offset.
func (dom Domain) Relative() bool {
	return dom == DOM_K7 || dom == DOM_K12
}

// Paired is set for the register domains that name a register pair.
func (dom Domain) Paired() bool {
	return dom == DOM_REGW || dom == DOM_REGE
}

// Arg describes one operand slot of an instruction.
type Arg struct {
	Class    ArgClass
	Domain   Domain
	Pointers []Pointer // Allowed modes for ARG_POINTER
	Builtin  bool      // ARG_TARGET may name a builtin function
}

// Info is the static table entry of a mnemonic.
type Info struct {
	Name  string
	Words int   // Program memory slots used
	Args  []Arg // Operand slots, in source order
}

var (
	argRd     = Arg{Class: ARG_REG, Domain: DOM_REG}
	argRd16   = Arg{Class: ARG_REG, Domain: DOM_REG16}
	argRd1623 = Arg{Class: ARG_REG, Domain: DOM_REG16_23}
	argRdw    = Arg{Class: ARG_REG, Domain: DOM_REGW}
	argRde    = Arg{Class: ARG_REG, Domain: DOM_REGE}
	argK8     = Arg{Class: ARG_BYTE, Domain: DOM_K8}
	argK6     = Arg{Class: ARG_IMM, Domain: DOM_K6}
	argA6     = Arg{Class: ARG_IMM, Domain: DOM_A6}
	argA5     = Arg{Class: ARG_IMM, Domain: DOM_A5}
	argBit    = Arg{Class: ARG_IMM, Domain: DOM_BIT}
	argQ      = Arg{Class: ARG_DISP, Domain: DOM_Q}
	argK7     = Arg{Class: ARG_TARGET, Domain: DOM_K7}
	argK12    = Arg{Class: ARG_TARGET, Domain: DOM_K12}
	argK22    = Arg{Class: ARG_TARGET, Domain: DOM_K22}
	argCall   = Arg{Class: ARG_TARGET, Domain: DOM_K22, Builtin: true}
	argK16    = Arg{Class: ARG_DATA, Domain: DOM_K16}
	argPtr    = Arg{Class: ARG_POINTER, Pointers: []Pointer{PTR_X, PTR_X_INC, PTR_X_DEC, PTR_Y, PTR_Y_INC, PTR_Y_DEC, PTR_Z, PTR_Z_INC, PTR_Z_DEC}}
	argDisp   = Arg{Class: ARG_POINTER, Pointers: []Pointer{PTR_Y_INC, PTR_Z_INC}}
	argPtrZ   = Arg{Class: ARG_POINTER, Pointers: []Pointer{PTR_Z}}
)

var infoTable = [MNEMONIC_COUNT]Info{
	OP_ADC:   {"ADC", 1, []Arg{argRd, argRd}},
	OP_ADD:   {"ADD", 1, []Arg{argRd, argRd}},
	OP_ADIW:  {"ADIW", 1, []Arg{argRdw, argK6}},
	OP_AND:   {"AND", 1, []Arg{argRd, argRd}},
	OP_ANDI:  {"ANDI", 1, []Arg{argRd16, argK8}},
	OP_ASR:   {"ASR", 1, []Arg{argRd}},
	OP_BCLR:  {"BCLR", 1, []Arg{argBit}},
	OP_BRBC:  {"BRBC", 1, []Arg{argBit, argK7}},
	OP_BRBS:  {"BRBS", 1, []Arg{argBit, argK7}},
	OP_BRCC:  {"BRCC", 1, []Arg{argK7}},
	OP_BRCS:  {"BRCS", 1, []Arg{argK7}},
	OP_BREQ:  {"BREQ", 1, []Arg{argK7}},
	OP_BRGE:  {"BRGE", 1, []Arg{argK7}},
	OP_BRHC:  {"BRHC", 1, []Arg{argK7}},
	OP_BRHS:  {"BRHS", 1, []Arg{argK7}},
	OP_BRID:  {"BRID", 1, []Arg{argK7}},
	OP_BRIE:  {"BRIE", 1, []Arg{argK7}},
	OP_BRLO:  {"BRLO", 1, []Arg{argK7}},
	OP_BRLT:  {"BRLT", 1, []Arg{argK7}},
	OP_BRMI:  {"BRMI", 1, []Arg{argK7}},
	OP_BRNE:  {"BRNE", 1, []Arg{argK7}},
	OP_BRPL:  {"BRPL", 1, []Arg{argK7}},
	OP_BRSH:  {"BRSH", 1, []Arg{argK7}},
	OP_BRTC:  {"BRTC", 1, []Arg{argK7}},
	OP_BRTS:  {"BRTS", 1, []Arg{argK7}},
	OP_BRVC:  {"BRVC", 1, []Arg{argK7}},
	OP_BRVS:  {"BRVS", 1, []Arg{argK7}},
	OP_BSET:  {"BSET", 1, []Arg{argBit}},
	OP_CALL:  {"CALL", 2, []Arg{argCall}},
	OP_CBI:   {"CBI", 1, []Arg{argA5, argBit}},
	OP_CBR:   {"CBR", 1, []Arg{argRd16, argK8}},
	OP_CLC:   {"CLC", 1, nil},
	OP_CLH:   {"CLH", 1, nil},
	OP_CLI:   {"CLI", 1, nil},
	OP_CLN:   {"CLN", 1, nil},
	OP_CLR:   {"CLR", 1, []Arg{argRd}},
	OP_CLS:   {"CLS", 1, nil},
	OP_CLT:   {"CLT", 1, nil},
	OP_CLV:   {"CLV", 1, nil},
	OP_CLZ:   {"CLZ", 1, nil},
	OP_COM:   {"COM", 1, []Arg{argRd}},
	OP_CP:    {"CP", 1, []Arg{argRd, argRd}},
	OP_CPC:   {"CPC", 1, []Arg{argRd, argRd}},
	OP_CPI:   {"CPI", 1, []Arg{argRd16, argK8}},
	OP_DEC:   {"DEC", 1, []Arg{argRd}},
	OP_EOR:   {"EOR", 1, []Arg{argRd, argRd}},
	OP_IN:    {"IN", 1, []Arg{argRd, argA6}},
	OP_INC:   {"INC", 1, []Arg{argRd}},
	OP_JMP:   {"JMP", 2, []Arg{argK22}},
	OP_LD:    {"LD", 1, []Arg{argRd, argPtr}},
	OP_LDD:   {"LDD", 1, []Arg{argRd, argDisp, argQ}},
	OP_LDI:   {"LDI", 1, []Arg{argRd16, argK8}},
	OP_LDS:   {"LDS", 2, []Arg{argRd, argK16}},
	OP_LSL:   {"LSL", 1, []Arg{argRd}},
	OP_LSR:   {"LSR", 1, []Arg{argRd}},
	OP_MOV:   {"MOV", 1, []Arg{argRd, argRd}},
	OP_MOVW:  {"MOVW", 1, []Arg{argRde, argRde}},
	OP_MUL:   {"MUL", 1, []Arg{argRd, argRd}},
	OP_MULS:  {"MULS", 1, []Arg{argRd16, argRd16}},
	OP_MULSU: {"MULSU", 1, []Arg{argRd1623, argRd1623}},
	OP_NEG:   {"NEG", 1, []Arg{argRd}},
	OP_NOP:   {"NOP", 1, nil},
	OP_OR:    {"OR", 1, []Arg{argRd, argRd}},
	OP_ORI:   {"ORI", 1, []Arg{argRd16, argK8}},
	OP_OUT:   {"OUT", 1, []Arg{argA6, argRd}},
	OP_POP:   {"POP", 1, []Arg{argRd}},
	OP_PUSH:  {"PUSH", 1, []Arg{argRd}},
	OP_RCALL: {"RCALL", 1, []Arg{argK12}},
	OP_RET:   {"RET", 1, nil},
	OP_RJMP:  {"RJMP", 1, []Arg{argK12}},
	OP_ROL:   {"ROL", 1, []Arg{argRd}},
	OP_ROR:   {"ROR", 1, []Arg{argRd}},
	OP_SBC:   {"SBC", 1, []Arg{argRd, argRd}},
	OP_SBI:   {"SBI", 1, []Arg{argA5, argBit}},
	OP_SBIW:  {"SBIW", 1, []Arg{argRdw, argK6}},
	OP_SBR:   {"SBR", 1, []Arg{argRd16, argK8}},
	OP_SBRC:  {"SBRC", 1, []Arg{argRd, argBit}},
	OP_SBRS:  {"SBRS", 1, []Arg{argRd, argBit}},
	OP_SEC:   {"SEC", 1, nil},
	OP_SEH:   {"SEH", 1, nil},
	OP_SEI:   {"SEI", 1, nil},
	OP_SEN:   {"SEN", 1, nil},
	OP_SER:   {"SER", 1, []Arg{argRd16}},
	OP_SES:   {"SES", 1, nil},
	OP_SET:   {"SET", 1, nil},
	OP_SEV:   {"SEV", 1, nil},
	OP_SEZ:   {"SEZ", 1, nil},
	OP_ST:    {"ST", 1, []Arg{argPtr, argRd}},
	OP_STD:   {"STD", 1, []Arg{argDisp, argQ, argRd}},
	OP_STS:   {"STS", 2, []Arg{argK16, argRd}},
	OP_SUB:   {"SUB", 1, []Arg{argRd, argRd}},
	OP_SUBI:  {"SUBI", 1, []Arg{argRd16, argK8}},
	OP_SWAP:  {"SWAP", 1, []Arg{argRd}},
	OP_TST:   {"TST", 1, []Arg{argRd}},
	OP_XCH:   {"XCH", 1, []Arg{argPtrZ, argRd}},
}

var mnemonicMap map[string]Mnemonic

func init() {
	mnemonicMap = make(map[string]Mnemonic, MNEMONIC_COUNT)
	for n, info := range infoTable {
		mnemonicMap[info.Name] = Mnemonic(n)
	}
}

// LookupMnemonic finds a mnemonic by name, ignoring case.
func LookupMnemonic(name string) (op Mnemonic, ok bool) {
	op, ok = mnemonicMap[strings.ToUpper(name)]
	return
}

// Mnemonics returns every mnemonic, in table order.
func Mnemonics() (ops []Mnemonic) {
	ops = make([]Mnemonic, MNEMONIC_COUNT)
	for n := range ops {
		ops[n] = Mnemonic(n)
	}
	return
}

// Valid is set for mnemonics in the instruction table.
func (op Mnemonic) Valid() bool {
	return op >= 0 && int(op) < MNEMONIC_COUNT
}

// Info returns the table entry of the mnemonic.
func (op Mnemonic) Info() *Info {
	if !op.Valid() {
		return &Info{Name: "???", Words: 1}
	}
	return &infoTable[op]
}

func (op Mnemonic) String() string {
	return op.Info().Name
}

// Words returns the number of program memory slots the instruction uses.
func (op Mnemonic) Words() int {
	return op.Info().Words
}

// Branch condition of the BRxx aliases of BRBS/BRBC.
type Branch struct {
	Flag Flag
	Set  bool // Taken when the flag is set.
}

var branchTable = map[Mnemonic]Branch{
	OP_BRCC: {FLAG_C, false},
	OP_BRCS: {FLAG_C, true},
	OP_BREQ: {FLAG_Z, true},
	OP_BRGE: {FLAG_S, false},
	OP_BRHC: {FLAG_H, false},
	OP_BRHS: {FLAG_H, true},
	OP_BRID: {FLAG_I, false},
	OP_BRIE: {FLAG_I, true},
	OP_BRLO: {FLAG_C, true},
	OP_BRLT: {FLAG_S, true},
	OP_BRMI: {FLAG_N, true},
	OP_BRNE: {FLAG_Z, false},
	OP_BRPL: {FLAG_N, false},
	OP_BRSH: {FLAG_C, false},
	OP_BRTC: {FLAG_T, false},
	OP_BRTS: {FLAG_T, true},
	OP_BRVC: {FLAG_V, false},
	OP_BRVS: {FLAG_V, true},
}

// BranchOf returns the condition tested by a BRxx mnemonic.
func (op Mnemonic) BranchOf() (br Branch, ok bool) {
	br, ok = branchTable[op]
	return
}

// Bit returns the hardware bit number of the flag.
func (flag Flag) Bit() (s int) {
	for s = 0; s < 8; s++ {
		if flag == FlagBit(s) {
			return
		}
	}
	return
}

var flagOpTable = map[Mnemonic]Branch{
	OP_CLC: {FLAG_C, false},
	OP_CLZ: {FLAG_Z, false},
	OP_CLN: {FLAG_N, false},
	OP_CLV: {FLAG_V, false},
	OP_CLS: {FLAG_S, false},
	OP_CLH: {FLAG_H, false},
	OP_CLT: {FLAG_T, false},
	OP_CLI: {FLAG_I, false},
	OP_SEC: {FLAG_C, true},
	OP_SEZ: {FLAG_Z, true},
	OP_SEN: {FLAG_N, true},
	OP_SEV: {FLAG_V, true},
	OP_SES: {FLAG_S, true},
	OP_SEH: {FLAG_H, true},
	OP_SET: {FLAG_T, true},
	OP_SEI: {FLAG_I, true},
}

// FlagOf returns the flag written by a SEx/CLx mnemonic.
func (op Mnemonic) FlagOf() (fl Branch, ok bool) {
	fl, ok = flagOpTable[op]
	return
}
