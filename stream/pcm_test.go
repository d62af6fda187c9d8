package stream

import (
	"encoding/binary"
	"math"
	"testing"
)

func samples(vs ...int16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(v))
	}
	return b
}

func decode(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

func TestScalePCM16(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
		gain float64
		want []int16
	}{
		{"unity", []int16{100, -100}, 1, []int16{100, -100}},
		{"half", []int16{1000, -1000, 3}, 0.5, []int16{500, -500, 2}},
		{"mute", []int16{12345, -12345}, 0, []int16{0, 0}},
		{"clip high", []int16{30000}, 2, []int16{math.MaxInt16}},
		{"clip low", []int16{-30000}, 2, []int16{math.MinInt16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := samples(tt.in...)
			ScalePCM16(b, tt.gain)
			got := decode(b)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScalePCM16OddLength(t *testing.T) {
	b := append(samples(200), 0x7f)
	ScalePCM16(b, 0.5)
	if got := decode(b[:2])[0]; got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	if b[2] != 0x7f {
		t.Error("Expected trailing byte untouched")
	}
}
