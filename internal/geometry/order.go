package geometry

import "github.com/fastwaymarks/overlay/pkg/core"

var permutations = [...][core.SlotCount]int{
	Proper:       {0, 4, 1, 5, 2, 6, 3, 7},
	Partyfinder:  {0, 5, 1, 6, 2, 7, 3, 4},
	LetterNumber: {0, 1, 2, 3, 4, 5, 6, 7},
}

// Permutation maps a conceptual index around the shape to a marker slot.
// Unknown orders fall back to LetterNumber (identity).
func Permutation(order Order) [core.SlotCount]int {
	if order < 0 || int(order) >= len(permutations) {
		return permutations[LetterNumber]
	}
	return permutations[order]
}

// Inverse returns q such that q[p[i]] == i.
func Inverse(p [core.SlotCount]int) [core.SlotCount]int {
	var q [core.SlotCount]int
	for i, slot := range p {
		q[slot] = i
	}
	return q
}
