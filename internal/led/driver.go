package led

// Sink abstracts an LED output.
type Sink interface {
	// Render pushes one frame to the strip and returns once it has been sent.
	// len(pixels) must be 3*N; pixels is never modified. brightness scales every
	// channel uniformly.
	Render(pixels []byte, brightness uint8) error
	// Close releases resources.
	Close() error
}
