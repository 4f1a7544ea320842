package stage

import (
	"github.com/anthonynsimon/bild/blur"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

// SigmaPerRadius maps the user-facing blur radius (0-10) onto a Gaussian sigma.
const SigmaPerRadius = 0.5

type GaussianBlurStage struct {
	Sigma float64
}

// BlurForRadius returns the blur stage for a user-facing radius, or nil when
// the radius asks for no blur at all.
func BlurForRadius(radius int) *GaussianBlurStage {
	if radius <= 0 {
		return nil
	}
	return &GaussianBlurStage{Sigma: float64(radius) * SigmaPerRadius}
}

func (s *GaussianBlurStage) Name() string { return "blur" }

// Process applies a Gaussian blur to the image using the specified Sigma value
// Higher Sigma values result in a more pronounced blur effect
func (s *GaussianBlurStage) Process(p *photo.Photo) error {
	if s.Sigma <= 0 {
		return nil
	}
	p.Replace(blur.Gaussian(p.Img, s.Sigma))
	return nil
}
