package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferDualView(t *testing.T) {
	b := NewBuffer(4)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 12, b.Size())

	b.SetPixel(2, RGB{R: 0x11, G: 0x22, B: 0x33})
	assert.Equal(t, []byte{0x11, 0x22, 0x33}, b.Bytes()[6:9])

	copy(b.Bytes()[3:6], []byte{1, 2, 3})
	assert.Equal(t, RGB{R: 1, G: 2, B: 3}, b.Pixel(1))
}

func TestBufferFill(t *testing.T) {
	b := NewBuffer(3)
	b.Fill(RGB{R: 9, G: 8, B: 7})
	assert.Equal(t, []byte{9, 8, 7, 9, 8, 7, 9, 8, 7}, b.Bytes())
}

func TestBufferSwap(t *testing.T) {
	b := NewBuffer(2)
	b.Fill(RGB{R: 1, G: 1, B: 1})

	next := []byte{5, 5, 5, 6, 6, 6}
	prev, err := b.Swap(next)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1, 1, 1}, prev)
	assert.Equal(t, RGB{R: 6, G: 6, B: 6}, b.Pixel(1))

	_, err = b.Swap([]byte{1, 2})
	assert.Error(t, err)
	assert.Equal(t, next, b.Bytes(), "failed swap must not change contents")
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(1)
	s := b.Snapshot()
	s[0] = 0xFF
	assert.Equal(t, uint8(0), b.Pixel(0).R)
}
