package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrames_Push(t *testing.T) {
	assert := assert.New(t)

	fr := &Frames{}
	assert.Equal(0, fr.Depth())
	assert.Equal(0, fr.Pushes())

	fr.Push()
	fr.Push()
	assert.Equal(2, fr.Pushes())
	assert.Equal(0, fr.Depth())
	assert.Equal([]int{2}, fr.Data)
}

func TestFrames_Pop(t *testing.T) {
	assert := assert.New(t)

	fr := &Frames{}
	fr.Reset()
	assert.False(fr.Pop())

	fr.Push()
	assert.True(fr.Pop())
	assert.False(fr.Pop())
	assert.Equal(0, fr.Pushes())
}

func TestFrames_Open(t *testing.T) {
	assert := assert.New(t)

	fr := &Frames{}
	fr.Reset()
	fr.Push()
	fr.Open()
	assert.Equal(1, fr.Depth())
	assert.Equal(0, fr.Pushes())
	assert.False(fr.Pop())

	fr.Push()
	fr.Push()
	pushes, ok := fr.Close()
	assert.True(ok)
	assert.Equal(2, pushes)
	assert.Equal(1, fr.Pushes())

	_, ok = fr.Close()
	assert.False(ok)
}

func TestFrames_Clone(t *testing.T) {
	assert := assert.New(t)

	fr := &Frames{}
	fr.Reset()
	fr.Push()

	dup := fr.Clone()
	dup.Push()
	dup.Open()

	assert.Equal([]int{1}, fr.Data)
	assert.Equal([]int{2, 0}, dup.Data)
}

func TestFrames_Reset(t *testing.T) {
	assert := assert.New(t)

	fr := &Frames{}
	fr.Reset()
	fr.Push()
	fr.Open()
	fr.Push()

	fr.Reset()
	assert.Equal([]int{0}, fr.Data)
	assert.Equal(0, fr.Depth())
}
