package layout

// Layout describes parallel strips driven from one buffer, strip-major.
type Layout struct {
	Strips   int
	PerStrip int
	// Serpentine reverses every odd strip, for strips folded back on themselves.
	Serpentine bool
}

// Index maps strip,pixel -> linear LED index (0..N-1)
func (l Layout) Index(strip, pixel int) int {
	p := pixel
	if l.Serpentine && strip%2 == 1 {
		p = l.PerStrip - 1 - pixel
	}
	return strip*l.PerStrip + p
}

func (l Layout) Count() int {
	return l.Strips * l.PerStrip
}

// BufSize is the byte length of one frame for this layout.
func (l Layout) BufSize() int {
	return l.Count() * 3
}
