package airkiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRC8CheckValue(t *testing.T) {
	// S1: the reflected-0x8C CRC-8 check value for the standard "123456789"
	// test string, as used by 1-Wire / AirKiss.
	assert.Equal(t, byte(0xA1), crc8([]byte("123456789")))
}

func TestCRC8Empty(t *testing.T) {
	assert.Equal(t, byte(0), crc8(nil))
}

func TestCRC8Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		assert.Equal(t, crc8(data), crc8(data))
	})
}

func TestCRC8SensitiveToSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.SliceOfN(rapid.Byte(), 1, 32).Draw(t, "data")
		var idx = rapid.IntRange(0, len(data)-1).Draw(t, "idx")
		var bit = rapid.IntRange(0, 7).Draw(t, "bit")

		var original = crc8(data)
		var flipped = append([]byte(nil), data...)
		flipped[idx] ^= 1 << uint(bit)

		assert.NotEqual(t, original, crc8(flipped), "a single bit flip should almost always change the CRC")
	})
}
