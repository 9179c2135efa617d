package sender

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/pixelnode/internal/protocol"
	"github.com/coreman2200/pixelnode/internal/transport"
)

func listen(t *testing.T) (*transport.UDP, int) {
	t.Helper()
	u, err := transport.ListenUDP("127.0.0.1:0", 64, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { u.Close() })
	return u, u.LocalAddr().(*net.UDPAddr).Port
}

func recv(t *testing.T, src transport.Source) []byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p, ok := src.Poll(); ok {
			return p
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no datagram")
	return nil
}

func TestSplitVariant(t *testing.T) {
	frames, fport := listen(t)
	control, cport := listen(t)

	s, err := Dial("127.0.0.1", fport, cport, protocol.Split, 128)
	require.NoError(t, err)
	defer s.Close()

	rgb := make([]byte, 300)
	for i := range rgb {
		rgb[i] = byte(i)
	}
	n, err := s.Frame(rgb)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got []byte
	for len(got) < len(rgb) {
		got = append(got, recv(t, frames)...)
	}
	assert.Equal(t, rgb, got)

	require.NoError(t, s.Brightness(0x80))
	assert.Equal(t, []byte{0x02, 0x80}, recv(t, control))
	require.NoError(t, s.Reboot())
	assert.Equal(t, []byte{0x01}, recv(t, control))
}

func TestLegacyVariantSharesFramePort(t *testing.T) {
	frames, fport := listen(t)

	s, err := Dial("127.0.0.1", fport, 0, protocol.Legacy, 1024)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Frame([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 1, 2, 3}, recv(t, frames))

	require.NoError(t, s.Brightness(7))
	assert.Equal(t, []byte{0x03, 7}, recv(t, frames))
}

func TestDialRejectsTinyMTU(t *testing.T) {
	_, err := Dial("127.0.0.1", 7000, 7001, protocol.Split, 1)
	assert.Error(t, err)
}
