package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	v, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, Split, v)

	v, err = Lookup("legacy")
	require.NoError(t, err)
	assert.True(t, v.Multiplexed)

	_, err = Lookup("ddp")
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	assert.Equal(t, []byte{0x02, 0x80}, Split.BrightnessCommand(0x80))
	assert.Equal(t, []byte{0x01}, Split.RebootCommand())
	assert.Equal(t, []byte{0x03, 0x10}, Legacy.BrightnessCommand(0x10))
	assert.Equal(t, []byte{0x02}, Legacy.RebootCommand())
}

func TestFramePacketsSplit(t *testing.T) {
	frame := bytes.Repeat([]byte{0xAB}, 300)
	pkts, err := Split.FramePackets(frame, 100)
	require.NoError(t, err)
	require.Len(t, pkts, 3)
	assert.Equal(t, frame, bytes.Join(pkts, nil))
}

func TestFramePacketsLegacyPrefix(t *testing.T) {
	frame := []byte{1, 2, 3, 4, 5}
	pkts, err := Legacy.FramePackets(frame, 4)
	require.NoError(t, err)
	require.Len(t, pkts, 2)
	assert.Equal(t, []byte{0x01, 1, 2, 3}, pkts[0])
	assert.Equal(t, []byte{4, 5}, pkts[1])

	_, err = Legacy.FramePackets(frame, 1)
	assert.Error(t, err)
}
