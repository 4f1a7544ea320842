package stage

import (
	"math/rand/v2"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

// MaxNoiseAmplitude caps the per-channel offset so noise stays invisible.
const MaxNoiseAmplitude = 8

// NoiseStage nudges every colour channel by an independent offset in
// [-Amplitude, Amplitude]. The offsets come from a PCG stream seeded by Seed,
// so a given configuration always produces the same pixels.
type NoiseStage struct {
	Amplitude int
	Seed      uint64
}

const noiseStream = 0x9e3779b97f4a7c15

func (s *NoiseStage) Name() string { return "noise" }

func (s *NoiseStage) Process(p *photo.Photo) error {
	amp := min(s.Amplitude, MaxNoiseAmplitude)
	if amp <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^noiseStream))
	span := 2*amp + 1

	pix := p.Img.Pix
	for i := 0; i < len(pix); i += 4 {
		// premultiplied: a channel can never exceed its alpha
		a := int(pix[i+3])
		if a == 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			offset := rng.IntN(span) - amp
			pix[i+c] = uint8(clamp(int(pix[i+c])+offset, 0, a))
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
