package glitch

import (
	"bytes"
	"math"
	"testing"
)

// seqSource replays a fixed sequence of values, wrapping around.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func patterned(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i*37 + 11)
	}
	return buf
}

func TestShiftChannelsIdentity(t *testing.T) {
	for pixels := 0; pixels <= 100; pixels++ {
		src := patterned(pixels * 4)
		got := ShiftChannels(src, Offsets{})
		if !bytes.Equal(got, src) {
			t.Fatalf("ShiftChannels(%d pixels, 0,0,0) changed the buffer", pixels)
		}
	}
}

func TestShiftChannelsBoundsSafety(t *testing.T) {
	offsets := []Offsets{
		{R: 1, G: -1, B: 2},
		{R: 1000, G: -1000, B: 0},
		{R: math.MaxInt, G: math.MinInt, B: math.MaxInt / 4},
		{R: math.MinInt, G: math.MaxInt, B: -(math.MaxInt / 4)},
	}
	sizes := []int{0, 3, 4, 7, 40, 4096}

	for _, off := range offsets {
		for _, n := range sizes {
			src := patterned(n)
			got := ShiftChannels(src, off)
			if len(got) != len(src) {
				t.Errorf("ShiftChannels(len=%d, %+v) len = %d", n, off, len(got))
			}
		}
	}
}

func TestShiftChannelsMovesChannels(t *testing.T) {
	src := []byte{
		10, 11, 12, 13,
		20, 21, 22, 23,
		30, 31, 32, 33,
	}
	orig := bytes.Clone(src)

	got := ShiftChannels(src, Offsets{R: 1, G: 0, B: -1})
	want := []byte{
		10, 11, 22, 13,
		10, 21, 32, 23,
		20, 31, 32, 33,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ShiftChannels() = %v, want %v", got, want)
	}
	if !bytes.Equal(src, orig) {
		t.Error("ShiftChannels modified its source")
	}
}

func TestShiftChannelsKeepsAlpha(t *testing.T) {
	src := patterned(4 * 16)
	got := ShiftChannels(src, BarOffsets)
	for i := 3; i < len(src); i += 4 {
		if got[i] != src[i] {
			t.Fatalf("alpha at byte %d = %d, want %d", i, got[i], src[i])
		}
	}
}

func TestShiftChannelsBarRowDropsEverything(t *testing.T) {
	// A bar narrower than its largest offset keeps nothing but the copy.
	src := patterned(4 * 2)
	if got := ShiftChannels(src, BarOffsets); !bytes.Equal(got, src) {
		t.Errorf("ShiftChannels() = %v, want unchanged %v", got, src)
	}
}

func TestFillNoise(t *testing.T) {
	buf := make([]byte, 4*3+2)
	FillNoise(buf, &seqSource{vals: []float64{0, 0.5, 0.999999}})

	for i := 0; i < 12; i += 4 {
		if buf[i+3] != 255 {
			t.Errorf("pixel %d alpha = %d, want 255", i/4, buf[i+3])
		}
	}
	if buf[0] != 0 || buf[1] != 128 || buf[2] != 255 {
		t.Errorf("first pixel = %v, want [0 128 255]", buf[:3])
	}
	if buf[12] != 0 || buf[13] != 0 {
		t.Errorf("partial trailing pixel was written: %v", buf[12:])
	}
}
