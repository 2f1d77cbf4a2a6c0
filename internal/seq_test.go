package internal

import (
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat2(t *testing.T) {
	assert := assert.New(t)

	a := map[string]int{"main": 0}
	b := map[string]int{"msg": 0x100}

	got := maps.Collect(Concat2(maps.All(a), maps.All(b)))
	assert.Equal(map[string]int{"main": 0, "msg": 0x100}, got)

	// Early termination
	count := 0
	for range Concat2(maps.All(a), maps.All(b)) {
		count++
		break
	}
	assert.Equal(1, count)
}

func TestSorted(t *testing.T) {
	assert := assert.New(t)

	m := map[string]int{"loop": 4, "end": 9, "main": 0}

	var keys []string
	for k := range Sorted(m) {
		keys = append(keys, k)
	}
	assert.Equal([]string{"end", "loop", "main"}, keys)

	keys = keys[:0]
	for k := range ByValue(m) {
		keys = append(keys, k)
	}
	assert.Equal([]string{"main", "loop", "end"}, keys)
}
