package photo

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
)

// Photo is the working pixel buffer of a single uniqualization call.
// Img is always anchored at the origin with Stride == 4*width, so the
// pixel data is row-major and len(Img.Pix) == width*height*4.
type Photo struct {
	Img    *image.RGBA
	Bounds image.Rectangle
	Format string

	// Palette is the colour table of a paletted source, reused on encode.
	Palette color.Palette
}

type PipelineStage interface {
	Name() string
	Process(p *Photo) error
}

// NewPhoto copies img into a freshly allocated buffer owned by the returned Photo.
func NewPhoto(img image.Image, format string) *Photo {
	rgba := toOrigin(clone.AsRGBA(img))
	return &Photo{
		Img:    rgba,
		Bounds: rgba.Bounds(),
		Format: format,
	}
}

func (p *Photo) Width() int  { return p.Bounds.Dx() }
func (p *Photo) Height() int { return p.Bounds.Dy() }

// Replace swaps in the output of a stage, re-anchoring it at the origin when
// a library hands back an offset rectangle.
func (p *Photo) Replace(img *image.RGBA) {
	p.Img = toOrigin(img)
}

func (p *Photo) Pipeline(stages ...PipelineStage) error {
	for _, stage := range stages {
		if err := stage.Process(p); err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
		if p.Img.Bounds() != p.Bounds {
			return fmt.Errorf("stage %s changed image bounds from %v to %v", stage.Name(), p.Bounds, p.Img.Bounds())
		}
	}
	return nil
}

func toOrigin(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src[:4*b.Dx()])
	}
	return out
}
