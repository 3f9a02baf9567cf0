package glitch

// Offsets are per-channel displacements in pixels. A positive offset moves
// the channel towards the end of the buffer, a negative one towards its start.
type Offsets struct {
	R, G, B int
}

// BarOffsets is the fixed channel split applied to every glitch bar.
var BarOffsets = Offsets{R: -10, G: 10, B: 20}

// ShiftChannels returns a copy of src in which the red, green and blue byte of
// every pixel i is also written at pixel i+offset for its channel. The
// destination starts as a copy of src, so bytes not overwritten keep their
// source value and alpha always stays in place. Writes outside the buffer are
// dropped. A trailing partial pixel is copied but never shifted.
func ShiftChannels(src []byte, off Offsets) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)

	n := len(src) - len(src)%4
	rs := clampStride(off.R, n)
	gs := clampStride(off.G, n)
	bs := clampStride(off.B, n)

	for i := 0; i < n; i += 4 {
		put(dst, i+0+rs, src[i+0])
		put(dst, i+1+gs, src[i+1])
		put(dst, i+2+bs, src[i+2])
	}
	return dst
}

// clampStride converts a pixel offset to a byte stride. Offsets larger than
// the buffer are clamped to one pixel past it, which drops every write the
// same way without risking integer overflow.
func clampStride(off, n int) int {
	limit := n/4 + 1
	if off > limit {
		off = limit
	}
	if off < -limit {
		off = -limit
	}
	return off * 4
}

func put(buf []byte, i int, v byte) {
	if i < 0 || i >= len(buf) {
		return
	}
	buf[i] = v
}

// FillNoise overwrites every whole pixel of buf with independent uniform
// random R, G and B in [0, 255] and full opacity.
func FillNoise(buf []byte, src Source) {
	n := len(buf) - len(buf)%4
	for i := 0; i < n; i += 4 {
		buf[i+0] = byte(intn(src, 256))
		buf[i+1] = byte(intn(src, 256))
		buf[i+2] = byte(intn(src, 256))
		buf[i+3] = 255
	}
}
