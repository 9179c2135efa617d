package pixel

import "fmt"

// Channels is the number of bytes per pixel.
const Channels = 3

// RGB is one pixel record as it appears on the wire.
type RGB struct {
	R, G, B uint8
}

// Buffer owns the bytes of one full frame. Pixel i lives at [i*3, i*3+3).
type Buffer struct {
	buf []byte
}

// NewBuffer allocates a zeroed buffer for count pixels.
func NewBuffer(count int) *Buffer {
	if count < 0 {
		count = 0
	}
	return &Buffer{buf: make([]byte, count*Channels)}
}

// Len returns the number of pixels.
func (b *Buffer) Len() int { return len(b.buf) / Channels }

// Size returns the number of bytes in a full frame.
func (b *Buffer) Size() int { return len(b.buf) }

// Bytes returns the raw byte view. The slice aliases the buffer until the next Swap.
func (b *Buffer) Bytes() []byte { return b.buf }

// Pixel interprets the i-th triplet as a color record.
func (b *Buffer) Pixel(i int) RGB {
	o := i * Channels
	return RGB{R: b.buf[o], G: b.buf[o+1], B: b.buf[o+2]}
}

// SetPixel overwrites the i-th triplet.
func (b *Buffer) SetPixel(i int, c RGB) {
	o := i * Channels
	b.buf[o], b.buf[o+1], b.buf[o+2] = c.R, c.G, c.B
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c RGB) {
	for i := 0; i < b.Len(); i++ {
		b.SetPixel(i, c)
	}
}

// Swap installs next as the buffer contents and hands back the previous backing
// slice so the caller can reuse it for staging. next must be exactly Size() bytes.
func (b *Buffer) Swap(next []byte) ([]byte, error) {
	if len(next) != len(b.buf) {
		return nil, fmt.Errorf("swap: got %d bytes, want %d", len(next), len(b.buf))
	}
	prev := b.buf
	b.buf = next
	return prev, nil
}

// Snapshot returns a copy of the current frame bytes.
func (b *Buffer) Snapshot() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
