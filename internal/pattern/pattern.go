package pattern

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/coreman2200/pixelnode/internal/layout"
)

type Kind string

const (
	None       Kind = ""
	Strips     Kind = "strips"
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	Off        Kind = "off"
)

// stripPalette is cycled across strips by the Strips pattern.
var stripPalette = []string{"#ff0000", "#0000ff", "#008000", "#ffff00", "#800080"}

// Parse accepts a pattern name from config or flags.
func Parse(s string) (Kind, error) {
	switch k := Kind(s); k {
	case None, Strips, IndexSweep, RGBTest, Off:
		return k, nil
	}
	return None, fmt.Errorf("unknown pattern %q", s)
}

type Plan struct {
	Kind Kind
	Loop bool
}

type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step fills rgb with the next frame; returns false when complete.
func (r *Runner) Step(l layout.Layout, rgb []byte) bool {
	n := l.Count()
	if len(rgb) < n*3 {
		return false
	}
	for i := 0; i < n*3; i++ {
		rgb[i] = 0
	}

	switch r.plan.Kind {
	case Strips:
		for s := 0; s < l.Strips; s++ {
			c, _ := colorful.Hex(stripPalette[s%len(stripPalette)])
			cr, cg, cb := c.RGB255()
			for p := 0; p < l.PerStrip; p++ {
				i := l.Index(s, p)
				rgb[i*3+0], rgb[i*3+1], rgb[i*3+2] = cr, cg, cb
			}
		}
	case IndexSweep:
		idx := r.step
		if idx >= n {
			if !r.plan.Loop || n == 0 {
				return false
			}
			r.step, idx = 0, 0
		}
		rgb[idx*3+0], rgb[idx*3+1], rgb[idx*3+2] = 255, 255, 255
	case RGBTest:
		phase := r.step % 3
		for i := 0; i < n; i++ {
			rgb[i*3+phase] = 255
		}
	case Off:
	default:
		return false
	}
	r.step++
	return true
}

// Fill writes the first frame of kind into rgb.
func Fill(kind Kind, l layout.Layout, rgb []byte) error {
	if kind == None {
		return nil
	}
	if !NewRunner(Plan{Kind: kind}).Step(l, rgb) {
		return fmt.Errorf("pattern %q produced no frame", kind)
	}
	return nil
}
