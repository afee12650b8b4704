package exec

import "github.com/bits-and-blooms/bitset"

// bitmap tracks which positions of a logical tile are still visible.
type bitmap struct {
	bits *bitset.BitSet
}

func newFullBitmap(numBits int) bitmap {
	b := bitset.New(uint(numBits))
	for i := 0; i < numBits; i++ {
		b.Set(uint(i))
	}
	return bitmap{bits: b}
}

func (b bitmap) clone() bitmap {
	return bitmap{bits: b.bits.Clone()}
}

func (b bitmap) isSet(i int) bool {
	return b.bits.Test(uint(i))
}

// clear returns whether the bit was set before.
func (b bitmap) clear(i int) bool {
	was := b.bits.Test(uint(i))
	b.bits.Clear(uint(i))
	return was
}

func (b bitmap) count() int {
	return int(b.bits.Count())
}

// nextSet returns the first set position >= from, or -1.
func (b bitmap) nextSet(from int) int {
	i, ok := b.bits.NextSet(uint(from))
	if !ok {
		return -1
	}
	return int(i)
}
