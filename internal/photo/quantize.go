package photo

import (
	"cmp"
	"image"
	"image/color"
	"slices"

	"golang.org/x/image/draw"
)

// bucketShift groups colours at 5 bits per channel when counting them.
const bucketShift = 3

type bucket struct {
	key           uint32
	r, g, b, a, n int
}

// Paletted returns the photo as an image of at most n colours. When every
// pixel is still a colour of the source palette the indices are rebuilt
// exactly, otherwise the buffer is quantized and dithered.
func (p *Photo) Paletted(n int) *image.Paletted {
	if len(p.Palette) > 0 && len(p.Palette) <= n {
		if pm, ok := exactPaletted(p.Img, p.Palette); ok {
			return pm
		}
	}

	pm := image.NewPaletted(p.Img.Bounds(), quantize(p.Img, n))
	draw.FloydSteinberg.Draw(pm, pm.Bounds(), p.Img, image.Point{})
	return pm
}

func exactPaletted(img *image.RGBA, pal color.Palette) (*image.Paletted, bool) {
	index := make(map[color.RGBA]uint8, len(pal))
	// lowest index wins for duplicate entries
	for i := len(pal) - 1; i >= 0; i-- {
		index[color.RGBAModel.Convert(pal[i]).(color.RGBA)] = uint8(i)
	}

	pm := image.NewPaletted(img.Bounds(), pal)
	for i, j := 0, 0; i < len(img.Pix); i, j = i+4, j+1 {
		idx, ok := index[color.RGBA{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}]
		if !ok {
			return nil, false
		}
		pm.Pix[j] = idx
	}
	return pm, true
}

// quantize picks the n most common colours of img. Each palette entry is the
// mean of the pixels in its bucket, and mostly transparent pixels share one
// fully transparent entry.
func quantize(img *image.RGBA, n int) color.Palette {
	counts := make(map[uint32]*bucket)
	transparent := false
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]
		if a < 0x80 {
			transparent = true
			continue
		}
		key := uint32(r>>bucketShift)<<10 | uint32(g>>bucketShift)<<5 | uint32(b>>bucketShift)
		bk, ok := counts[key]
		if !ok {
			bk = &bucket{key: key}
			counts[key] = bk
		}
		bk.r += int(r)
		bk.g += int(g)
		bk.b += int(b)
		bk.a += int(a)
		bk.n++
	}

	buckets := make([]*bucket, 0, len(counts))
	for _, bk := range counts {
		buckets = append(buckets, bk)
	}
	slices.SortFunc(buckets, func(x, y *bucket) int {
		if c := cmp.Compare(y.n, x.n); c != 0 {
			return c
		}
		return cmp.Compare(x.key, y.key)
	})

	pal := make(color.Palette, 0, n)
	if transparent || len(buckets) == 0 {
		pal = append(pal, color.RGBA{})
	}
	for _, bk := range buckets {
		if len(pal) == n {
			break
		}
		pal = append(pal, color.RGBA{
			R: uint8(bk.r / bk.n),
			G: uint8(bk.g / bk.n),
			B: uint8(bk.b / bk.n),
			A: uint8(bk.a / bk.n),
		})
	}
	return pal
}
