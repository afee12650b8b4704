package common

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Tile slots are fixed width, so values are written in place at an offset rather than appended.

var littleEndian = binary.LittleEndian
var IsLittleEndian = isLittleEndian()

func WriteUint32ToBufferLE(buffer []byte, offset int, v uint32) int {
	littleEndian.PutUint32(buffer[offset:], v)
	return offset + 4
}

func WriteUint64ToBufferLE(buffer []byte, offset int, v uint64) int {
	littleEndian.PutUint64(buffer[offset:], v)
	return offset + 8
}

func WriteFloat64ToBufferLE(buffer []byte, offset int, v float64) int {
	return WriteUint64ToBufferLE(buffer, offset, math.Float64bits(v))
}

func ReadUint32FromBufferLE(buffer []byte, offset int) (uint32, int) {
	if IsLittleEndian {
		// nolint: gosec
		return *(*uint32)(unsafe.Pointer(&buffer[offset])), offset + 4
	}
	return littleEndian.Uint32(buffer[offset:]), offset + 4
}

func ReadUint64FromBufferLE(buffer []byte, offset int) (uint64, int) {
	if IsLittleEndian {
		// nolint: gosec
		return *(*uint64)(unsafe.Pointer(&buffer[offset])), offset + 8
	}
	return littleEndian.Uint64(buffer[offset:]), offset + 8
}

func ReadInt64FromBufferLE(buffer []byte, offset int) (int64, int) {
	u, off := ReadUint64FromBufferLE(buffer, offset)
	return int64(u), off
}

func ReadFloat64FromBufferLE(buffer []byte, offset int) (val float64, off int) {
	var u uint64
	u, offset = ReadUint64FromBufferLE(buffer, offset)
	val = math.Float64frombits(u)
	return val, offset
}

// Are we running on a machine with a little endian architecture?
func isLittleEndian() bool {
	val := uint64(123456)
	buffer := make([]byte, 8)
	WriteUint64ToBufferLE(buffer, 0, val)
	valRead := *(*uint64)(unsafe.Pointer(&buffer[0])) // nolint: gosec
	return val == valRead
}
