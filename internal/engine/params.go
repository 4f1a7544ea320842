package engine

import "fmt"

const (
	MaxBlurRadius   = 10
	DefaultMaxCount = 50
)

// ParameterSet selects which stages run for one call. Count is how many
// outputs the caller wants in total; the engine only validates it, each
// call produces exactly one image.
type ParameterSet struct {
	Noise      bool `json:"noise" yaml:"noise"`
	Stripes    bool `json:"stripes" yaml:"stripes"`
	Smiles     bool `json:"smiles" yaml:"smiles"`
	Background bool `json:"background" yaml:"background"`
	BlurRadius int  `json:"blur_radius" yaml:"blur_radius"`
	Count      int  `json:"count" yaml:"count"`
}

// DefaultParameterSet matches a fresh user session: everything off, one copy.
func DefaultParameterSet() ParameterSet {
	return ParameterSet{Count: 1}
}

func (p ParameterSet) Validate(maxCount int) error {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if p.BlurRadius < 0 || p.BlurRadius > MaxBlurRadius {
		return &Error{
			Kind: ErrInvalidParameters,
			Op:   "validate",
			Err:  fmt.Errorf("blur_radius %d outside [0, %d]", p.BlurRadius, MaxBlurRadius),
		}
	}
	if p.Count < 1 || p.Count > maxCount {
		return &Error{
			Kind: ErrInvalidParameters,
			Op:   "validate",
			Err:  fmt.Errorf("count %d outside [1, %d]", p.Count, maxCount),
		}
	}
	return nil
}

// AnyEnabled reports whether at least one stage was asked for.
func (p ParameterSet) AnyEnabled() bool {
	return p.Noise || p.Stripes || p.Smiles || p.Background || p.BlurRadius > 0
}
