package stage

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"golang.org/x/image/draw"
)

// Placement positions one overlay asset: scaled so its longer side is Size
// pixels, rotated by Angle degrees clockwise, drawn with its top-left corner
// at (X, Y) and faded to Alpha.
type Placement struct {
	Asset *image.RGBA
	Size  int
	Angle float64
	X, Y  int
	Alpha float64
}

type OverlayStage struct {
	Placements []Placement
}

func (s *OverlayStage) Name() string { return "smiles" }

func (s *OverlayStage) Process(p *photo.Photo) error {
	for _, pl := range s.Placements {
		if pl.Asset == nil {
			return errors.New("overlay placement has no asset")
		}
		if pl.Size <= 0 || pl.Alpha <= 0 {
			continue
		}

		sprite := scaleToFit(pl.Asset, pl.Size)
		if pl.Angle != 0 {
			sprite = transform.Rotate(sprite, pl.Angle, &transform.RotationOptions{ResizeBounds: true})
		}

		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(math.Min(pl.Alpha, 1) * 255))})
		sb := sprite.Bounds()
		r := image.Rect(pl.X, pl.Y, pl.X+sb.Dx(), pl.Y+sb.Dy())
		draw.DrawMask(p.Img, r, sprite, sb.Min, mask, image.Point{}, draw.Over)
	}
	return nil
}

// SpriteBounds returns the size a placement occupies once scaled and
// rotated, without rendering it.
func SpriteBounds(asset image.Rectangle, size int, angle float64) (int, int) {
	w, h := fitSize(asset.Dx(), asset.Dy(), size)
	rad := angle * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	rw := int(math.Ceil(float64(w)*cos + float64(h)*sin))
	rh := int(math.Ceil(float64(w)*sin + float64(h)*cos))
	return max(rw, 1), max(rh, 1)
}

func scaleToFit(src *image.RGBA, size int) *image.RGBA {
	b := src.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), size)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func fitSize(w, h, size int) (int, int) {
	if w <= 0 || h <= 0 {
		return size, size
	}
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}
