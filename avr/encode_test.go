package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		ins   *Instruction
		words []uint16
	}){
		{NewInstruction(OP_NOP), []uint16{0x0000}},
		{NewInstruction(OP_ADD, Reg(16), Reg(17)), []uint16{0x0f01}},
		{NewInstruction(OP_LDI, Reg(16), Imm(5)), []uint16{0xe005}},
		{NewInstruction(OP_RJMP, Imm(-1)), []uint16{0xcfff}},
		{NewInstruction(OP_BREQ, Imm(2)), []uint16{0xf011}},
		{NewInstruction(OP_BRBC, Imm(1), Imm(-2)), []uint16{0xf7f1}},
		{NewInstruction(OP_CALL, Imm(0x1234)), []uint16{0x940e, 0x1234}},
		{NewInstruction(OP_CALL, Func(BUILTIN_PRINTF)), []uint16{0x95ff, 0xffff}},
		{NewInstruction(OP_JMP, Imm(0x3fffff)), []uint16{0x95fd, 0xffff}},
		{NewInstruction(OP_RET), []uint16{0x9508}},
		{NewInstruction(OP_SEC), []uint16{0x9408}},
		{NewInstruction(OP_CLC), []uint16{0x9488}},
		{NewInstruction(OP_SEI), []uint16{0x9478}},
		{NewInstruction(OP_CLI), []uint16{0x94f8}},
		{NewInstruction(OP_PUSH, Reg(0)), []uint16{0x920f}},
		{NewInstruction(OP_POP, Reg(16)), []uint16{0x910f}},
		{NewInstruction(OP_LDD, Reg(16), Ptr(PTR_Y_INC), Imm(5)), []uint16{0x810d}},
		{NewInstruction(OP_STD, Ptr(PTR_Z_INC), Imm(63), Reg(1)), []uint16{0xae17}},
		{NewInstruction(OP_ADIW, Reg(24), Imm(1)), []uint16{0x9601}},
		{NewInstruction(OP_SBIW, Reg(30), Imm(63)), []uint16{0x97ff}},
		{NewInstruction(OP_IN, Reg(16), Imm(0x3f)), []uint16{0xb70f}},
		{NewInstruction(OP_OUT, Imm(0x3f), Reg(0)), []uint16{0xbe0f}},
		{NewInstruction(OP_CBR, Reg(16), Imm(0x0f)), []uint16{0x7f00}},
		{NewInstruction(OP_CLR, Reg(1)), []uint16{0x2411}},
		{NewInstruction(OP_MOVW, Reg(24), Reg(30)), []uint16{0x01cf}},
		{NewInstruction(OP_ST, Ptr(PTR_X_INC), Reg(5)), []uint16{0x925d}},
		{NewInstruction(OP_LD, Reg(0), Ptr(PTR_Z)), []uint16{0x8000}},
		{NewInstruction(OP_LDS, Reg(16), Imm(0x100)), []uint16{0x9100, 0x0100}},
		{NewInstruction(OP_STS, Imm(0x8ff), Reg(31)), []uint16{0x93f0, 0x08ff}},
		{NewInstruction(OP_MULSU, Reg(23), Reg(16)), []uint16{0x0370}},
		{NewInstruction(OP_SER, Reg(31)), []uint16{0xefff}},
		{NewInstruction(OP_SBRS, Reg(3), Imm(7)), []uint16{0xfe37}},
		{NewInstruction(OP_CBI, Imm(0x1f), Imm(1)), []uint16{0x98f9}},
		{NewInstruction(OP_XCH, Ptr(PTR_Z), Reg(2)), []uint16{0x9224}},
	}

	for _, entry := range table {
		words, err := Encode(entry.ins)
		assert.NoError(err, entry.ins.String())
		assert.Equal(entry.words, words, entry.ins.String())
	}

	// Binary rendering
	words, err := Encode(NewInstruction(OP_CALL, Func(BUILTIN_PRINTF)))
	assert.NoError(err)
	assert.Equal([]string{"1001010111111111", "1111111111111111"}, Binary(words))

	// Pointer mode without a template
	_, err = Encode(NewInstruction(OP_LDD, Reg(16), Ptr(PTR_X), Imm(1)))
	assert.ErrorIs(err, ErrEncoding)

	// Missing operand
	_, err = Encode(NewInstruction(OP_ADD, Reg(16)))
	assert.ErrorIs(err, ErrEncodeOperand(OP_ADD))
}

var sampleDomain = map[Domain]int{
	DOM_NONE:     0,
	DOM_REG:      17,
	DOM_REG16:    20,
	DOM_REG16_23: 19,
	DOM_REGW:     26,
	DOM_REGE:     14,
	DOM_K8:       0xa5,
	DOM_K6:       42,
	DOM_Q:        37,
	DOM_A6:       0x2b,
	DOM_A5:       0x15,
	DOM_BIT:      5,
	DOM_K7:       -17,
	DOM_K12:      -1000,
	DOM_K22:      0x2abcd,
	DOM_K16:      0x1234,
}

// samples builds an instruction for every template of a mnemonic.
func samples(op Mnemonic) (list []*Instruction) {
	info := op.Info()
	for _, code := range Encodings(op) {
		ins := &Instruction{Op: op}
		for _, arg := range info.Args {
			switch {
			case arg.Class == ARG_POINTER:
				ins.Args = append(ins.Args, Ptr(code.Pointer))
			case arg.Builtin && code.Builtin != BUILTIN_NONE:
				ins.Args = append(ins.Args, Func(code.Builtin))
			case arg.Class == ARG_REG:
				ins.Args = append(ins.Args, Reg(sampleDomain[arg.Domain]))
			default:
				ins.Args = append(ins.Args, Imm(sampleDomain[arg.Domain]))
			}
		}
		list = append(list, ins)
	}
	return
}

func TestEncodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, op := range Mnemonics() {
		for _, ins := range samples(op) {
			name := ins.String()
			words, err := Encode(ins)
			assert.NoError(err, name)
			assert.Equal(op.Words(), len(words), name)

			decoded, used, err := Decode(words)
			assert.NoError(err, name)
			if err != nil {
				continue
			}
			assert.Equal(len(words), used, name)

			again, err := Encode(decoded)
			assert.NoError(err, name)
			assert.Equal(words, again, name)

			if decoded.Op == op {
				assert.Equal(ins.Args, decoded.Args, name)
			}
		}
	}
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	ins, used, err := Decode([]uint16{0x0f01})
	assert.NoError(err)
	assert.Equal(1, used)
	assert.Equal("ADD R16, R17", ins.String())

	ins, used, err = Decode([]uint16{0x940e, 0x1234, 0x0000})
	assert.NoError(err)
	assert.Equal(2, used)
	assert.Equal("CALL 4660", ins.String())

	ins, _, err = Decode([]uint16{0x810d})
	assert.NoError(err)
	assert.Equal("LDD R16, Y+5", ins.String())

	ins, _, err = Decode([]uint16{0xcfff})
	assert.NoError(err)
	assert.Equal("RJMP -1", ins.String())

	ins, _, err = Decode([]uint16{0x9224})
	assert.NoError(err)
	assert.Equal("XCH Z, R2", ins.String())

	ins, _, err = Decode([]uint16{0x0000})
	assert.NoError(err)
	assert.Equal(OP_NOP, ins.Op)
	assert.Nil(ins.Args)

	// A lone first word of a double-length instruction does not decode.
	_, _, err = Decode([]uint16{0x940e})
	assert.ErrorIs(err, ErrDecode)

	_, _, err = Decode(nil)
	assert.ErrorIs(err, ErrDecode)
}

func FuzzDecode(f *testing.F) {
	f.Add(uint16(0x0000), uint16(0x0000))
	f.Add(uint16(0x940e), uint16(0x1234))
	f.Add(uint16(0x95ff), uint16(0xffff))
	f.Add(uint16(0xffff), uint16(0xffff))

	f.Fuzz(func(t *testing.T, w0 uint16, w1 uint16) {
		assert := assert.New(t)

		words := []uint16{w0, w1}
		ins, used, err := Decode(words)
		if err != nil {
			return
		}

		again, err := Encode(ins)
		assert.NoError(err, ins.String())
		assert.Equal(words[:used], again, ins.String())
	})
}
