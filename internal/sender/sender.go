package sender

import (
	"fmt"
	"net"
	"strconv"

	"github.com/coreman2200/pixelnode/internal/protocol"
)

// Sender drives a node over UDP the way a frame source would.
type Sender struct {
	variant protocol.Variant
	mtu     int
	frames  net.Conn
	control net.Conn
}

// Dial connects to host. The control port is unused on multiplexed variants.
func Dial(host string, framePort, controlPort int, v protocol.Variant, mtu int) (*Sender, error) {
	if mtu < 2 {
		return nil, fmt.Errorf("mtu %d too small", mtu)
	}
	f, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(framePort)))
	if err != nil {
		return nil, err
	}
	s := &Sender{variant: v, mtu: mtu, frames: f, control: f}
	if !v.Multiplexed {
		c, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(controlPort)))
		if err != nil {
			f.Close()
			return nil, err
		}
		s.control = c
	}
	return s, nil
}

// Frame sends one frame and returns the number of datagrams used.
func (s *Sender) Frame(rgb []byte) (int, error) {
	pkts, err := s.variant.FramePackets(rgb, s.mtu)
	if err != nil {
		return 0, err
	}
	for i, p := range pkts {
		if _, err := s.frames.Write(p); err != nil {
			return i, fmt.Errorf("fragment %d/%d: %w", i+1, len(pkts), err)
		}
	}
	return len(pkts), nil
}

func (s *Sender) Brightness(b uint8) error {
	_, err := s.control.Write(s.variant.BrightnessCommand(b))
	return err
}

func (s *Sender) Reboot() error {
	_, err := s.control.Write(s.variant.RebootCommand())
	return err
}

func (s *Sender) Close() error {
	err := s.frames.Close()
	if s.control != s.frames {
		if cerr := s.control.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
