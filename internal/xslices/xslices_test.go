package xslices

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	in := []int{3, 1, 4, 1, 5}
	out := Map(in, func(v int) string { return fmt.Sprintf("#%d", v) })
	assert.Equal(t, []string{"#3", "#1", "#4", "#1", "#5"}, out)
	assert.Empty(t, Map(nil, func(v int) int { return v }))
}

func TestAtAndLast(t *testing.T) {
	slice := []int{0, 1, 2, 3, 4, 5}
	assert.Equal(t, 2, At(slice, 2))
	assert.Equal(t, 5, At(slice, -1))
	assert.Equal(t, 4, At(slice, -2))
	assert.Equal(t, 5, Last(slice))
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"vmcnt": 3, "lgkmcnt": 1, "vscnt": 0}
	assert.Equal(t, []string{"lgkmcnt", "vmcnt", "vscnt"}, SortedKeys(m))
	assert.Len(t, Keys(m), 3)
}

func TestIota(t *testing.T) {
	assert.Equal(t, []int{3, 4}, Iota(3, 2))
	assert.Equal(t, []float64{3.0, 4.0}, Iota(3.0, 2))
	assert.Empty(t, Iota(0, 0))
}
