package engine

import (
	"encoding/binary"
	"image"
	"image/color"
	"math"

	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"github.com/rm-hull/photo-uniqualizer/internal/photo/stage"
)

// Ranges the orchestrator draws stage configuration from.
const (
	minNoise, maxNoise = 2, 6

	minStripes, maxStripes             = 3, 8
	stripeWidthFraction                = 0.015
	minStripeOpacity, maxStripeOpacity = 0.04, 0.18

	minOverlays, maxOverlays         = 1, 3
	minOverlaySize, maxOverlaySize   = 0.08, 0.20
	maxOverlayAngle                  = 30.0
	minOverlayAlpha, maxOverlayAlpha = 0.55, 0.95

	maxBackgroundShift = 0.03
	maxTint            = 4

	saltSize = 8
)

// Plan is the fully configured, ordered list of stages for one call.
type Plan struct {
	Stages []photo.PipelineStage
	Salt   []byte
}

func (p Plan) Names() []string {
	names := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		names[i] = s.Name()
	}
	return names
}

type Orchestrator struct {
	store *assets.Store
}

func NewOrchestrator(store *assets.Store) *Orchestrator {
	return &Orchestrator{store: store}
}

// Plan builds the enabled stages in canonical order
// (noise, stripes, smiles, background, blur), drawing each stage's
// configuration from rng in that same order. Disabled stages draw nothing,
// so the same seed gives the same plan for whatever subset is enabled.
// Stages that had to be dropped are reported as warnings.
func (o *Orchestrator) Plan(params ParameterSet, bounds image.Rectangle, rng RandomSource) (Plan, []error) {
	var plan Plan
	var warnings []error

	if params.Noise {
		plan.Stages = append(plan.Stages, &stage.NoiseStage{
			Amplitude: inclusive(rng, minNoise, maxNoise),
			Seed:      rng.Uint64(),
		})
	}

	if params.Stripes {
		plan.Stages = append(plan.Stages, planStripes(bounds, rng))
	}

	if params.Smiles {
		if o.store.Count() == 0 {
			warnings = append(warnings, &Error{Kind: ErrAssetNotFound, Op: "plan smiles", Err: errEmptyStore})
		} else {
			plan.Stages = append(plan.Stages, o.planOverlay(bounds, rng))
		}
	}

	if params.Background {
		plan.Stages = append(plan.Stages, &stage.BackgroundStage{
			Brightness: between(rng, -maxBackgroundShift, maxBackgroundShift),
			Contrast:   between(rng, -maxBackgroundShift, maxBackgroundShift),
			Tint: [3]int{
				inclusive(rng, -maxTint, maxTint),
				inclusive(rng, -maxTint, maxTint),
				inclusive(rng, -maxTint, maxTint),
			},
		})
	}

	if blur := stage.BlurForRadius(params.BlurRadius); blur != nil {
		plan.Stages = append(plan.Stages, blur)
	}

	if len(plan.Stages) > 0 {
		plan.Salt = binary.BigEndian.AppendUint64(make([]byte, 0, saltSize), rng.Uint64())
	}

	return plan, warnings
}

func (o *Orchestrator) Run(p *photo.Photo, plan Plan) error {
	return p.Pipeline(plan.Stages...)
}

func planStripes(bounds image.Rectangle, rng RandomSource) *stage.StripesStage {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	maxWidth := math.Max(1, stripeWidthFraction*math.Min(w, h))

	n := inclusive(rng, minStripes, maxStripes)
	stripes := make([]stage.Stripe, n)
	for i := range stripes {
		stripes[i] = stage.Stripe{
			X:     rng.Float64() * w,
			Y:     rng.Float64() * h,
			Angle: rng.Float64() * math.Pi,
			Width: between(rng, 1, maxWidth+1),
			Color: color.NRGBA{
				R: uint8(rng.IntN(256)),
				G: uint8(rng.IntN(256)),
				B: uint8(rng.IntN(256)),
				A: uint8(math.Round(between(rng, minStripeOpacity, maxStripeOpacity) * 255)),
			},
		}
	}
	return &stage.StripesStage{Stripes: stripes}
}

func (o *Orchestrator) planOverlay(bounds image.Rectangle, rng RandomSource) *stage.OverlayStage {
	w, h := bounds.Dx(), bounds.Dy()
	short := float64(min(w, h))

	n := inclusive(rng, minOverlays, maxOverlays)
	placements := make([]stage.Placement, 0, n)
	for range n {
		asset, err := o.store.Get(rng.IntN(o.store.Count()))
		if err != nil {
			continue
		}

		size := max(4, int(between(rng, minOverlaySize, maxOverlaySize)*short))
		angle := between(rng, -maxOverlayAngle, maxOverlayAngle)
		sw, sh := stage.SpriteBounds(asset.Img.Bounds(), size, angle)

		placements = append(placements, stage.Placement{
			Asset: asset.Img,
			Size:  size,
			Angle: angle,
			X:     overlapping(rng, sw, w),
			Y:     overlapping(rng, sh, h),
			Alpha: between(rng, minOverlayAlpha, maxOverlayAlpha),
		})
	}
	return &stage.OverlayStage{Placements: placements}
}

// overlapping picks an offset for a sprite of the given extent so that at
// least half of it lies inside [0, limit).
func overlapping(rng RandomSource, extent, limit int) int {
	lo := -extent / 2
	hi := limit - (extent+1)/2
	if hi < lo {
		return (limit - extent) / 2
	}
	return inclusive(rng, lo, hi)
}
