package food

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSelectRepresentative(t *testing.T) {
	tests := []struct {
		name string
		n    int
		k    int
		want []int
	}{
		{"fewer than k", 3, 5, []int{0, 1, 2}},
		{"exactly k", 5, 5, []int{0, 1, 2, 3, 4}},
		{"even stride", 10, 5, []int{0, 2, 4, 6, 8}},
		{"uneven stride stops at k", 12, 5, []int{0, 2, 4, 6, 8}},
		{"stride of one", 7, 5, []int{0, 1, 2, 3, 4}},
		{"single", 9, 1, []int{0}},
		{"empty input", 0, 3, []int{}},
		{"k zero", 4, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectRepresentative(ints(tt.n), tt.k))
		})
	}
}

func TestSelectRepresentative_Properties(t *testing.T) {
	for n := 0; n <= 40; n++ {
		for k := 1; k <= 12; k++ {
			once := SelectRepresentative(ints(n), k)
			assert.Len(t, once, min(n, k), "n=%d k=%d", n, k)
			assert.Equal(t, once, SelectRepresentative(once, k), "n=%d k=%d", n, k)
			for i := 1; i < len(once); i++ {
				assert.Less(t, once[i-1], once[i])
			}
		}
	}
}
