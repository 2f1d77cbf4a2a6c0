package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMnemonic(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(95, MNEMONIC_COUNT)

	for _, op := range Mnemonics() {
		info := op.Info()
		assert.NotEmpty(info.Name)
		assert.Contains([]int{1, 2}, info.Words, info.Name)

		found, ok := LookupMnemonic(info.Name)
		assert.True(ok, info.Name)
		assert.Equal(op, found)

		assert.NotEmpty(Encodings(op), info.Name)
	}

	op, ok := LookupMnemonic("ldi")
	assert.True(ok)
	assert.Equal(OP_LDI, op)

	_, ok = LookupMnemonic("LPM")
	assert.False(ok)

	for _, op := range []Mnemonic{OP_CALL, OP_JMP, OP_LDS, OP_STS} {
		assert.Equal(2, op.Words(), op.String())
	}
}

func TestDomain(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		domain  Domain
		value   int
		allowed bool
	}){
		{DOM_REG, 0, true},
		{DOM_REG, 31, true},
		{DOM_REG, 32, false},
		{DOM_REG16, 15, false},
		{DOM_REG16, 16, true},
		{DOM_REG16_23, 24, false},
		{DOM_REGW, 24, true},
		{DOM_REGW, 25, false},
		{DOM_REGW, 22, false},
		{DOM_REGE, 14, true},
		{DOM_REGE, 15, false},
		{DOM_K8, -1, false},
		{DOM_K8, 255, true},
		{DOM_K6, 64, false},
		{DOM_K7, -64, true},
		{DOM_K7, 64, false},
		{DOM_K12, -2049, false},
		{DOM_K12, 2047, true},
		{DOM_K22, 4194303, true},
		{DOM_K22, 4194304, false},
		{DOM_K16, 255, false},
		{DOM_K16, 256, true},
		{DOM_K16, 65536, false},
	}

	for _, entry := range table {
		assert.Equal(entry.allowed, entry.domain.Contains(entry.value), "%v %v", entry.domain, entry.value)
	}
}

func TestBranchOf(t *testing.T) {
	assert := assert.New(t)

	br, ok := OP_BREQ.BranchOf()
	assert.True(ok)
	assert.Equal(Branch{FLAG_Z, true}, br)

	br, ok = OP_BRGE.BranchOf()
	assert.True(ok)
	assert.Equal(Branch{FLAG_S, false}, br)

	_, ok = OP_RJMP.BranchOf()
	assert.False(ok)

	fl, ok := OP_SET.FlagOf()
	assert.True(ok)
	assert.Equal(Branch{FLAG_T, true}, fl)
}
