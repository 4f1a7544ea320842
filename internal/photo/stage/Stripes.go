package stage

import (
	"image"
	"image/color"
	"math"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"golang.org/x/image/vector"
)

// MaxStripeAlpha keeps stripes translucent enough that the subject shows through.
const MaxStripeAlpha = 90

// Stripe is a band of Width pixels through (X, Y) at Angle radians, long
// enough to cross the whole image.
type Stripe struct {
	X, Y  float64
	Angle float64
	Width float64
	Color color.NRGBA
}

type StripesStage struct {
	Stripes []Stripe
}

func (s *StripesStage) Name() string { return "stripes" }

// Process rasterizes each stripe as an anti-aliased quad and composites it
// over the image using the stripe's own alpha
func (s *StripesStage) Process(p *photo.Photo) error {
	w, h := p.Width(), p.Height()
	reach := math.Hypot(float64(w), float64(h))

	for _, stripe := range s.Stripes {
		if stripe.Width <= 0 || stripe.Color.A == 0 {
			continue
		}
		c := stripe.Color
		c.A = min(c.A, MaxStripeAlpha)

		dx, dy := math.Cos(stripe.Angle)*reach, math.Sin(stripe.Angle)*reach
		nx, ny := -math.Sin(stripe.Angle)*stripe.Width/2, math.Cos(stripe.Angle)*stripe.Width/2

		z := vector.NewRasterizer(w, h)
		z.MoveTo(float32(stripe.X-dx+nx), float32(stripe.Y-dy+ny))
		z.LineTo(float32(stripe.X+dx+nx), float32(stripe.Y+dy+ny))
		z.LineTo(float32(stripe.X+dx-nx), float32(stripe.Y+dy-ny))
		z.LineTo(float32(stripe.X-dx-nx), float32(stripe.Y-dy-ny))
		z.ClosePath()
		z.Draw(p.Img, p.Img.Bounds(), image.NewUniform(c), image.Point{})
	}
	return nil
}
