package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermutation_Tables(t *testing.T) {
	assert.Equal(t, [8]int{0, 4, 1, 5, 2, 6, 3, 7}, Permutation(Proper))
	assert.Equal(t, [8]int{0, 5, 1, 6, 2, 7, 3, 4}, Permutation(Partyfinder))
	assert.Equal(t, [8]int{0, 1, 2, 3, 4, 5, 6, 7}, Permutation(LetterNumber))
	assert.Equal(t, Permutation(LetterNumber), Permutation(Order(-1)))
}

func TestPermutation_Bijection(t *testing.T) {
	for _, order := range Orders {
		seen := map[int]bool{}
		for _, slot := range Permutation(order) {
			assert.GreaterOrEqual(t, slot, 0)
			assert.Less(t, slot, 8)
			seen[slot] = true
		}
		assert.Len(t, seen, 8, order.String())
	}
}

func TestInverse_RecoversAssignment(t *testing.T) {
	for _, order := range Orders {
		p := Permutation(order)
		q := Inverse(p)
		for i := 0; i < 8; i++ {
			assert.Equal(t, i, q[p[i]], "%s index %d", order, i)
			assert.Equal(t, i, p[q[i]], "%s slot %d", order, i)
		}
	}
}
