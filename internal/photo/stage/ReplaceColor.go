package stage

import (
	"image/color"
	"math"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

type ReplaceColorStage struct {
	Tolerance float64
	Replace   color.Color
}

func (s *ReplaceColorStage) Name() string { return "replace_color" }

// Process fades pixels close to the Replace color towards transparency.
// A pixel exactly matching the color becomes fully transparent, one at the
// edge of the tolerance keeps its alpha. Works on premultiplied data, so the
// colour channels are scaled together with alpha.
func (s *ReplaceColorStage) Process(p *photo.Photo) error {
	if s.Tolerance <= 0 {
		return nil
	}
	replaceR, replaceG, replaceB, _ := s.Replace.RGBA()
	rR, rG, rB := float64(replaceR>>8), float64(replaceG>>8), float64(replaceB>>8)

	pix := p.Img.Pix
	for i := 0; i < len(pix); i += 4 {
		A := float64(pix[i+3])
		if A == 0 {
			continue
		}
		R := float64(pix[i]) * 255 / A
		G := float64(pix[i+1]) * 255 / A
		B := float64(pix[i+2]) * 255 / A
		dist := math.Sqrt((rR-R)*(rR-R) + (rG-G)*(rG-G) + (rB-B)*(rB-B))
		if dist >= s.Tolerance {
			continue
		}
		k := dist / s.Tolerance
		for c := 0; c < 4; c++ {
			pix[i+c] = uint8(float64(pix[i+c]) * k)
		}
	}
	return nil
}
