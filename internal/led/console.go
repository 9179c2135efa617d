package led

import (
	"fmt"

	"periph.io/x/devices/v3/screen1d"
)

// Console prints the strip as a row of ANSI-colored cells, for benches without
// LEDs attached.
type Console struct {
	dev     *screen1d.Dev
	count   int
	scratch []byte
}

func NewConsole(count int) *Console {
	return &Console{dev: screen1d.New(&screen1d.Opts{X: count}), count: count}
}

func (c *Console) Render(pixels []byte, brightness uint8) error {
	if len(pixels) != c.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(pixels), c.count)
	}
	c.scratch = Scale(c.scratch, pixels, brightness)
	_, err := c.dev.Write(c.scratch)
	return err
}

func (c *Console) Close() error { return c.dev.Halt() }
