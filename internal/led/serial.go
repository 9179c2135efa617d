package led

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// adalightMagic opens every Adalight frame.
var adalightMagic = [3]byte{'A', 'd', 'a'}

// Serial streams frames to a USB-attached microcontroller speaking Adalight:
// "Ada", count-1 as big-endian u16, a checksum byte, then RGB triplets.
type Serial struct {
	port  io.WriteCloser
	count int
	frame []byte
}

// OpenSerial opens device (e.g. /dev/ttyACM0) at baud.
func OpenSerial(device string, baud, count int) (*Serial, error) {
	if baud <= 0 {
		baud = 115200
	}
	p, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return NewSerial(p, count)
}

func NewSerial(port io.WriteCloser, count int) (*Serial, error) {
	if count <= 0 || count > 1<<16 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	s := &Serial{port: port, count: count, frame: make([]byte, 6+count*3)}
	copy(s.frame, adalightHeader(count))
	return s, nil
}

func adalightHeader(count int) []byte {
	hi := byte((count - 1) >> 8)
	lo := byte(count - 1)
	return []byte{adalightMagic[0], adalightMagic[1], adalightMagic[2], hi, lo, hi ^ lo ^ 0x55}
}

func (s *Serial) Render(pixels []byte, brightness uint8) error {
	if len(pixels) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(pixels), s.count)
	}
	Scale(s.frame[6:], pixels, brightness)
	if _, err := s.port.Write(s.frame); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *Serial) Close() error { return s.port.Close() }
