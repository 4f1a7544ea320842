package stage

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

const (
	// MaxBackgroundShift bounds the brightness and contrast change (fraction of full range).
	MaxBackgroundShift = 0.05
	// MaxTint bounds the per-channel colour shift in levels out of 255.
	MaxTint = 8
)

// BackgroundStage applies a subtle global brightness, contrast and colour
// tint shift. Values outside the bounds above are clamped.
type BackgroundStage struct {
	Brightness float64
	Contrast   float64
	Tint       [3]int
}

func (s *BackgroundStage) Name() string { return "background" }

func (s *BackgroundStage) Process(p *photo.Photo) error {
	var img image.Image = p.Img
	var out *image.RGBA

	if s.Brightness != 0 {
		out = adjust.Brightness(img, clampShift(s.Brightness))
		img = out
	}
	if s.Contrast != 0 {
		out = adjust.Contrast(img, clampShift(s.Contrast))
		img = out
	}
	if s.Tint != [3]int{} {
		var tint [3]int
		for i, t := range s.Tint {
			tint[i] = clamp(t, -MaxTint, MaxTint)
		}
		out = adjust.Apply(img, func(c color.RGBA) color.RGBA {
			if c.A == 0 {
				return c
			}
			a := int(c.A)
			c.R = uint8(clamp(int(c.R)+tint[0], 0, a))
			c.G = uint8(clamp(int(c.G)+tint[1], 0, a))
			c.B = uint8(clamp(int(c.B)+tint[2], 0, a))
			return c
		})
	}

	if out != nil {
		p.Replace(out)
	}
	return nil
}

func clampShift(v float64) float64 {
	return math.Max(-MaxBackgroundShift, math.Min(MaxBackgroundShift, v))
}
