package photo

import (
	"bytes"
	"errors"
	"image"

	"github.com/kettek/apng"
)

// Animate builds a looping APNG that cycles through the given variants,
// showing each for frameDelay seconds. All frames are drawn at the size of
// the first one.
func Animate(frames []image.Image, frameDelay float64) ([]byte, error) {
	if len(frames) == 0 {
		return nil, errors.New("photo: no frames to animate")
	}

	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0,
	}

	bounds := frames[0].Bounds()
	for i, img := range frames {
		if img.Bounds().Dx() != bounds.Dx() || img.Bounds().Dy() != bounds.Dy() {
			return nil, errors.New("photo: animation frames differ in size")
		}
		a.Frames[i] = apng.Frame{
			Image:            img,
			DelayNumerator:   uint16(frameDelay * 1000),
			DelayDenominator: 1000,
		}
	}

	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeFrames decodes already encoded variants for Animate.
func DecodeFrames(encoded [][]byte, limits Limits) ([]image.Image, error) {
	frames := make([]image.Image, 0, len(encoded))
	for _, data := range encoded {
		p, err := Decode(data, limits)
		if err != nil {
			return nil, err
		}
		frames = append(frames, p.Img)
	}
	return frames, nil
}
