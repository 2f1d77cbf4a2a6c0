package avr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSREG(t *testing.T) {
	assert := assert.New(t)

	var sr SREG
	assert.Equal("--------", sr.String())

	sr = sr.Set(FLAG_C, true).Set(FLAG_I, true)
	assert.True(sr.C())
	assert.True(sr.I())
	assert.False(sr.Z())
	assert.Equal("I------C", sr.String())
	assert.Equal(SREG(0x81), sr)

	sr = sr.Set(FLAG_C, false)
	assert.False(sr.C())
	assert.Equal(SREG(0x80), sr)

	table := [](struct {
		bit  int
		flag Flag
		name string
	}){
		{0, FLAG_C, "-------C"},
		{1, FLAG_Z, "------Z-"},
		{2, FLAG_N, "-----N--"},
		{3, FLAG_V, "----V---"},
		{4, FLAG_S, "---S----"},
		{5, FLAG_H, "--H-----"},
		{6, FLAG_T, "-T------"},
		{7, FLAG_I, "I-------"},
	}

	for _, entry := range table {
		assert.Equal(entry.flag, FlagBit(entry.bit))
		assert.Equal(entry.bit, entry.flag.Bit())
		assert.Equal(entry.name, SREG(0).Set(entry.flag, true).String())
	}
}
