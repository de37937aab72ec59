// Package bitfield provides the packed 8-bit active-flag container used by
// the host's waymark preset structures.
package bitfield

import (
	"errors"
	"fmt"
)

// Size is the number of flags a BitField8 holds.
const Size = 8

// ErrIndexOutOfRange is returned for flag indices outside [0,8).
var ErrIndexOutOfRange = errors.New("bitfield index out of range")

// BitField8 packs eight boolean flags into a single byte; bit i holds flag i.
type BitField8 struct {
	data uint8
}

// New wraps an existing packed byte.
func New(data uint8) BitField8 {
	return BitField8{data: data}
}

// FromBools packs flags in index order.
func FromBools(flags [Size]bool) BitField8 {
	var b BitField8
	for i, f := range flags {
		if f {
			b.data |= 1 << uint(i)
		}
	}
	return b
}

// Data returns the packed byte.
func (b BitField8) Data() uint8 {
	return b.data
}

// Get returns flag i.
func (b BitField8) Get(i int) (bool, error) {
	if i < 0 || i >= Size {
		return false, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return b.data&(1<<uint(i)) != 0, nil
}

// Set sets or clears flag i.
func (b *BitField8) Set(i int, value bool) error {
	if i < 0 || i >= Size {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if value {
		b.data |= 1 << uint(i)
	} else {
		b.data &^= 1 << uint(i)
	}
	return nil
}

// Bools unpacks all flags in index order.
func (b BitField8) Bools() [Size]bool {
	var out [Size]bool
	for i := range out {
		out[i] = b.data&(1<<uint(i)) != 0
	}
	return out
}

func (b BitField8) String() string {
	return fmt.Sprintf("0x%X", b.data)
}
