package led

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

const (
	// ledRate is the WS2812B data rate.
	ledRate = 800 * physic.KiloHertz
	// spiBitRate encodes each LED bit as three SPI bits. nrzled accepts no
	// other rate.
	spiBitRate = ledRate*3 + 100*physic.KiloHertz
)

// SPI drives a WS281x strip with NRZ pulses generated on a SPI MOSI line.
type SPI struct {
	dev     *nrzled.Dev
	closer  io.Closer
	count   int
	scratch []byte
}

// OpenSPI initializes the host drivers and opens the named SPI port ("" picks
// the first available one).
func OpenSPI(port string, count int) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	s, err := NewSPI(p, p, count)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI wraps an already opened port. closer may be nil.
func NewSPI(p spi.Port, closer io.Closer, count int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      spiBitRate,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{dev: d, closer: closer, count: count}, nil
}

func (s *SPI) Render(pixels []byte, brightness uint8) error {
	if len(pixels) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(pixels), s.count)
	}
	s.scratch = Scale(s.scratch, pixels, brightness)
	if _, err := s.dev.Write(s.scratch); err != nil {
		return fmt.Errorf("nrzled write: %w", err)
	}
	return nil
}

func (s *SPI) String() string { return s.dev.String() }

func (s *SPI) Close() error {
	err := s.dev.Halt()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
