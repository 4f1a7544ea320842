package batch

import (
	"fmt"
	"strings"

	"github.com/rm-hull/photo-uniqualizer/internal/engine"
)

type Mode string

const (
	// Manual reuses the caller's ParameterSet for every output.
	Manual Mode = "manual"
	// Auto draws a fresh ParameterSet for every output.
	Auto Mode = "auto"
)

const (
	MinAutoCount = 3
	MaxAutoCount = 10
	MaxAutoBlur  = 5
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Manual:
		return Manual, nil
	case Auto:
		return Auto, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected manual or auto)", s)
	}
}

// AutoParams picks which stages run for a single auto-mode output. Count is
// always 1 since each draw covers one image. A draw that enables nothing
// falls back to noise so every output still differs from its source.
func AutoParams(rng engine.RandomSource) engine.ParameterSet {
	p := engine.ParameterSet{
		Noise:      rng.IntN(2) == 0,
		Stripes:    rng.IntN(2) == 0,
		Smiles:     rng.IntN(3) < 2,
		Background: rng.IntN(2) == 0,
		BlurRadius: rng.IntN(MaxAutoBlur + 1),
		Count:      1,
	}
	if !p.AnyEnabled() {
		p.Noise = true
	}
	return p
}

// AutoCount picks how many outputs an auto-mode request produces when the
// caller did not say.
func AutoCount(rng engine.RandomSource) int {
	return MinAutoCount + rng.IntN(MaxAutoCount-MinAutoCount+1)
}

// DefaultCount is the output count for a request that names none: one in
// manual mode, AutoCount in auto mode. A given seed fixes the auto count, so
// a seeded batch is the same size on every run.
func DefaultCount(mode Mode, seed *uint64) int {
	if mode != Auto {
		return 1
	}
	s := engine.NewSeed()
	if seed != nil {
		s = *seed
	}
	return AutoCount(engine.NewRandomSource(s))
}
