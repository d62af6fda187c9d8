package stream

import (
	"encoding/binary"
	"math"
)

// ScalePCM16 multiplies interleaved little-endian signed 16-bit samples by
// gain in place, saturating at the int16 range.
func ScalePCM16(b []byte, gain float64) {
	if gain == 1 {
		return
	}
	for i := 0; i+1 < len(b); i += 2 {
		v := float64(int16(binary.LittleEndian.Uint16(b[i:]))) * gain
		v = math.Round(max(math.MinInt16, min(math.MaxInt16, v)))
		binary.LittleEndian.PutUint16(b[i:], uint16(int16(v)))
	}
}
