// Package protocol defines the command bytes carried on the frame and control
// channels, and the encoders a sender uses to produce them.
package protocol

import "fmt"

const (
	DefaultFramePort   = 7000
	DefaultControlPort = 7001
)

// Variant is one revision of the wire protocol.
type Variant struct {
	Name string
	// Multiplexed variants carry commands and frame data on the frame channel,
	// each first datagram led by a command byte.
	Multiplexed bool

	Frame      byte
	Reboot     byte
	Brightness byte
}

var (
	// Split uses a dedicated frame channel and a separate control channel.
	Split = Variant{Name: "split", Reboot: 0x01, Brightness: 0x02}
	// Legacy is the original single-port revision.
	Legacy = Variant{Name: "legacy", Multiplexed: true, Frame: 0x01, Reboot: 0x02, Brightness: 0x03}
)

func Lookup(name string) (Variant, error) {
	switch name {
	case "", Split.Name:
		return Split, nil
	case Legacy.Name:
		return Legacy, nil
	}
	return Variant{}, fmt.Errorf("unknown protocol variant %q", name)
}

func (v Variant) RebootCommand() []byte { return []byte{v.Reboot} }

func (v Variant) BrightnessCommand(b uint8) []byte { return []byte{v.Brightness, b} }

// FramePackets splits one frame into datagrams of at most mtu bytes each,
// prefixing the first with the frame command on multiplexed variants.
func (v Variant) FramePackets(frame []byte, mtu int) ([][]byte, error) {
	if mtu < 2 {
		return nil, fmt.Errorf("mtu %d too small", mtu)
	}
	payload := frame
	if v.Multiplexed {
		payload = make([]byte, 0, len(frame)+1)
		payload = append(payload, v.Frame)
		payload = append(payload, frame...)
	}
	var out [][]byte
	for len(payload) > 0 {
		n := mtu
		if n > len(payload) {
			n = len(payload)
		}
		out = append(out, payload[:n])
		payload = payload[n:]
	}
	return out, nil
}
