package engine

import (
	"image"
	"math"
	"testing"

	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/photo/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_CanonicalOrder(t *testing.T) {
	o := NewOrchestrator(smileStore())
	bounds := image.Rect(0, 0, 200, 100)

	plan, warnings := o.Plan(everything, bounds, NewRandomSource(1))
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"noise", "stripes", "smiles", "background", "blur"}, plan.Names())
	assert.Len(t, plan.Salt, saltSize)

	plan, _ = o.Plan(ParameterSet{BlurRadius: 1, Stripes: true, Count: 1}, bounds, NewRandomSource(1))
	assert.Equal(t, []string{"stripes", "blur"}, plan.Names())
}

func TestPlan_NothingEnabled(t *testing.T) {
	o := NewOrchestrator(smileStore())
	plan, warnings := o.Plan(DefaultParameterSet(), image.Rect(0, 0, 10, 10), NewRandomSource(1))
	assert.Empty(t, plan.Stages)
	assert.Nil(t, plan.Salt)
	assert.Empty(t, warnings)
}

func TestPlan_Ranges(t *testing.T) {
	o := NewOrchestrator(smileStore())
	bounds := image.Rect(0, 0, 300, 200)

	for seed := range uint64(200) {
		plan, _ := o.Plan(everything, bounds, NewRandomSource(seed))
		require.Len(t, plan.Stages, 5)

		noise := plan.Stages[0].(*stage.NoiseStage)
		assert.GreaterOrEqual(t, noise.Amplitude, minNoise)
		assert.LessOrEqual(t, noise.Amplitude, maxNoise)

		stripes := plan.Stages[1].(*stage.StripesStage)
		assert.GreaterOrEqual(t, len(stripes.Stripes), minStripes)
		assert.LessOrEqual(t, len(stripes.Stripes), maxStripes)
		for _, s := range stripes.Stripes {
			assert.GreaterOrEqual(t, s.Width, 1.0)
			assert.LessOrEqual(t, int(s.Color.A), int(math.Ceil(maxStripeOpacity*255)))
		}

		overlay := plan.Stages[2].(*stage.OverlayStage)
		assert.GreaterOrEqual(t, len(overlay.Placements), minOverlays)
		assert.LessOrEqual(t, len(overlay.Placements), maxOverlays)
		for _, pl := range overlay.Placements {
			assert.InDelta(t, 0, pl.Angle, maxOverlayAngle)
			assert.GreaterOrEqual(t, pl.Alpha, minOverlayAlpha)
			assert.Less(t, pl.Alpha, maxOverlayAlpha)

			sw, sh := stage.SpriteBounds(pl.Asset.Bounds(), pl.Size, pl.Angle)
			sprite := image.Rect(pl.X, pl.Y, pl.X+sw, pl.Y+sh)
			assert.True(t, sprite.Overlaps(bounds), "placement %v outside %v", sprite, bounds)
		}

		bg := plan.Stages[3].(*stage.BackgroundStage)
		assert.InDelta(t, 0, bg.Brightness, maxBackgroundShift)
		assert.InDelta(t, 0, bg.Contrast, maxBackgroundShift)
		for _, c := range bg.Tint {
			assert.InDelta(t, 0, c, maxTint)
		}
	}
}

func TestPlan_EmptyStoreWarns(t *testing.T) {
	o := NewOrchestrator(assets.NewStore())
	plan, warnings := o.Plan(ParameterSet{Smiles: true, Count: 1}, image.Rect(0, 0, 10, 10), NewRandomSource(1))
	assert.Empty(t, plan.Stages)
	require.Len(t, warnings, 1)
	assert.Equal(t, ErrAssetNotFound, KindOf(warnings[0]))
}

func TestOverlapping(t *testing.T) {
	rng := NewRandomSource(3)
	for range 500 {
		x := overlapping(rng, 20, 100)
		assert.GreaterOrEqual(t, x, -10)
		assert.LessOrEqual(t, x, 90)
	}
	for range 100 {
		x := overlapping(rng, 30, 10)
		assert.GreaterOrEqual(t, x, -15)
		assert.LessOrEqual(t, x, -5)
	}
	assert.Equal(t, -2, overlapping(rng, 4, 0))
}

func TestParameterSet(t *testing.T) {
	assert.False(t, DefaultParameterSet().AnyEnabled())
	assert.True(t, ParameterSet{BlurRadius: 1}.AnyEnabled())
	assert.NoError(t, ParameterSet{Count: 3}.Validate(3))
	assert.ErrorIs(t, ParameterSet{Count: 4}.Validate(3), ErrInvalidParameters)
	assert.NoError(t, ParameterSet{Count: DefaultMaxCount}.Validate(0))
}
