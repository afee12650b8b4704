package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadUint32(t *testing.T) {
	buff := make([]byte, 12)
	for _, v := range []uint32{0, 1, 12345, math.MaxUint32} {
		off := WriteUint32ToBufferLE(buff, 3, v)
		require.Equal(t, 7, off)
		read, off := ReadUint32FromBufferLE(buff, 3)
		require.Equal(t, 7, off)
		require.Equal(t, v, read)
	}
}

func TestWriteReadUint64(t *testing.T) {
	buff := make([]byte, 16)
	for _, v := range []uint64{0, 1, 1 << 40, math.MaxUint64} {
		off := WriteUint64ToBufferLE(buff, 8, v)
		require.Equal(t, 16, off)
		read, off := ReadUint64FromBufferLE(buff, 8)
		require.Equal(t, 16, off)
		require.Equal(t, v, read)
	}
	WriteUint64ToBufferLE(buff, 0, uint64(0xFFFFFFFFFFFFFFFE))
	i, _ := ReadInt64FromBufferLE(buff, 0)
	require.Equal(t, int64(-2), i)
}

func TestWriteReadFloat64(t *testing.T) {
	buff := make([]byte, 8)
	for _, v := range []float64{0, -1.25, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1)} {
		WriteFloat64ToBufferLE(buff, 0, v)
		read, off := ReadFloat64FromBufferLE(buff, 0)
		require.Equal(t, 8, off)
		require.Equal(t, v, read)
	}
}

func TestLittleEndianLayout(t *testing.T) {
	buff := make([]byte, 4)
	WriteUint32ToBufferLE(buff, 0, 0x01020304)
	require.Equal(t, []byte{4, 3, 2, 1}, buff)
}
