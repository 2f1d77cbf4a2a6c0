package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/avrsim/avr"
)

func TestMemoryRange(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	table := [](struct {
		addr int
		ok   bool
	}){
		{0, true},
		{0x5f, true},
		{avr.SRAM_START, true},
		{avr.RAMEND, true},
		{avr.RAMEND + 1, false},
		{-1, false},
		{0xffff, false},
	}

	for _, entry := range table {
		err := mem.Write(entry.addr, 0x5a)
		_, rerr := mem.Read(entry.addr)
		if entry.ok {
			assert.NoError(err, "0x%x", entry.addr)
			assert.NoError(rerr, "0x%x", entry.addr)
		} else {
			assert.ErrorIs(err, ErrAddressRange(entry.addr))
			assert.ErrorIs(rerr, ErrAddressRange(entry.addr))
		}
	}
}

func TestMemoryRegisters(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	for n := range 32 {
		for _, value := range []int{0, 1, 127, 128, 255, 256, 511, -1} {
			mem.SetReg(n, byte(value))
			assert.Equal(byte(value&0xff), mem.Reg(n))
		}
	}

	mem.SetPC(0x1234)
	assert.Equal(0x1234, mem.PC())
	assert.Equal(uint16(0x1234), mem.Word(ADDR_PCL))
	value, _ := mem.Read(ADDR_PCH)
	assert.Equal(byte(0x12), value)

	mem.SetSP(avr.RAMEND)
	assert.Equal(avr.RAMEND, mem.SP())
	value, _ = mem.Read(ADDR_SPL)
	assert.Equal(byte(0xff), value)

	mem.SetSREG(avr.SREG(avr.FLAG_Z | avr.FLAG_C))
	assert.True(mem.SREG().Z())
	value, _ = mem.Read(ADDR_SREG)
	assert.Equal(byte(0x03), value)
}

func TestMemoryPointer(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		ptr   avr.Pointer
		start uint16
		addr  int
		after uint16
	}){
		{avr.PTR_X, 0x0100, 0x0100, 0x0100},
		{avr.PTR_X_INC, 0x0100, 0x0100, 0x0101},
		{avr.PTR_X_DEC, 0x0100, 0x00ff, 0x00ff},
		{avr.PTR_Y_INC, 0x01ff, 0x01ff, 0x0200},
		{avr.PTR_Y_DEC, 0x0200, 0x01ff, 0x01ff},
		{avr.PTR_Z_INC, 0x00ff, 0x00ff, 0x0100},
		{avr.PTR_Z_DEC, 0x0001, 0x0000, 0x0000},
	}

	for _, entry := range table {
		mem := &Memory{}
		reg := entry.ptr.Register()
		mem.SetWord(reg, entry.start)
		addr, err := mem.Pointer(entry.ptr)
		assert.NoError(err, entry.ptr.String())
		assert.Equal(entry.addr, addr, entry.ptr.String())
		assert.Equal(entry.after, mem.Word(reg), entry.ptr.String())
	}

	// 16 bit rollover
	mem := &Memory{}
	mem.SetWord(30, 0xffff)
	_, err := mem.Pointer(avr.PTR_Z_INC)
	assert.ErrorIs(err, ErrAddressRange(0xffff))
	assert.Equal(uint16(0), mem.Word(30))

	mem.SetWord(26, 0)
	_, err = mem.Pointer(avr.PTR_X_DEC)
	assert.ErrorIs(err, ErrAddressRange(0xffff))
	assert.Equal(uint16(0xffff), mem.Word(26))
}

func TestMemoryChanged(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	assert.False(mem.Changed(16))

	mem.SetReg(16, 1)
	assert.NoError(mem.Write(0x200, 2))
	assert.True(mem.Changed(16))
	assert.True(mem.Changed(0x200))
	assert.False(mem.Changed(17))
	assert.False(mem.Changed(-1))

	mem.Observe()
	assert.False(mem.Changed(16))
	assert.False(mem.Changed(0x200))
	assert.Equal(byte(1), mem.Reg(16))
}

func TestMemoryCopy(t *testing.T) {
	assert := assert.New(t)

	mem := Memory{}
	assert.NoError(mem.Load(avr.SRAM_START, []byte("abc")))

	dup := mem
	assert.NoError(dup.Write(avr.SRAM_START, 'x'))
	dup.SetReg(0, 9)

	value, _ := mem.Read(avr.SRAM_START)
	assert.Equal(byte('a'), value)
	assert.Equal(byte(0), mem.Reg(0))
	value, _ = dup.Read(avr.SRAM_START)
	assert.Equal(byte('x'), value)

	assert.Error(mem.Load(avr.RAMEND, []byte("ab")))
	assert.NoError(mem.Load(avr.RAMEND, nil))
}
