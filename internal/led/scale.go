package led

// Scale writes src scaled by brightness/256 (255 leaves src unchanged, 0 is
// black) into dst, growing dst if needed, and returns it.
func Scale(dst, src []byte, brightness uint8) []byte {
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	s := uint16(brightness) + 1
	for i, v := range src {
		dst[i] = byte(uint16(v) * s >> 8)
	}
	return dst
}
