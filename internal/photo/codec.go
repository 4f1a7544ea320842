package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var (
	ErrEmptyImage        = errors.New("photo: empty image data")
	ErrInvalidImage      = errors.New("photo: invalid image data")
	ErrUnsupportedFormat = errors.New("photo: unsupported image format")
	ErrInputTooLarge     = errors.New("photo: input exceeds maximum size")
	ErrDimensions        = errors.New("photo: image dimensions out of range")
	ErrMemoryLimit       = errors.New("photo: decoded image exceeds memory limit")
	ErrOutputTooLarge    = errors.New("photo: encoded image exceeds maximum size")
)

// Limits bounds what the decoder is prepared to allocate for one input.
// A zero field disables that particular check.
type Limits struct {
	MaxInputBytes int
	MaxDimension  int
	MaxPixelBytes int64
}

type EncodeOptions struct {
	MaxBytes    int
	Quality     int
	MinQuality  int
	QualityStep int
	Salt        []byte
}

const (
	DefaultQuality     = 95
	DefaultMinQuality  = 40
	DefaultQualityStep = 5
	bytesPerPixel      = 4
)

func Decode(data []byte, limits Limits) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if limits.MaxInputBytes > 0 && len(data) > limits.MaxInputBytes {
		return nil, fmt.Errorf("%w: %d bytes > %d", ErrInputTooLarge, len(data), limits.MaxInputBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	format = normalizeFormat(format)
	decode, ok := decoders[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	if cfg.Width <= 0 || cfg.Height <= 0 ||
		(limits.MaxDimension > 0 && (cfg.Width > limits.MaxDimension || cfg.Height > limits.MaxDimension)) {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, cfg.Width, cfg.Height)
	}

	need := int64(cfg.Width) * int64(cfg.Height) * bytesPerPixel
	if limits.MaxPixelBytes > 0 && need > limits.MaxPixelBytes {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes > %d", ErrMemoryLimit, cfg.Width, cfg.Height, need, limits.MaxPixelBytes)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	var pal color.Palette
	if pm, ok := img.(*image.Paletted); ok {
		pal = pm.Palette
	}

	// a GIF frame may cover only part of its logical screen
	canvas := image.Rect(0, 0, cfg.Width, cfg.Height)
	if img.Bounds() != canvas {
		full := image.NewRGBA(canvas)
		draw.Draw(full, img.Bounds(), img, img.Bounds().Min, draw.Over)
		img = full
	}

	p := NewPhoto(img, format)
	p.Palette = pal
	return p, nil
}

var decoders = map[string]func(io.Reader) (image.Image, error){
	"png":  png.Decode,
	"jpeg": jpeg.Decode,
	"gif":  gif.Decode,
	"webp": webp.Decode,
}

// normalizeFormat folds the names image.DecodeConfig reports into the
// families this package decodes. The apng package registers itself for the
// PNG signature, so plain PNGs can be reported as "apng".
func normalizeFormat(format string) string {
	if format == "apng" {
		return "png"
	}
	return format
}

// EncodedFormat is the family a photo of the given source format is written
// back as. WebP has no encoder in the Go ecosystem, so it falls back to JPEG.
func EncodedFormat(format string) string {
	switch format = normalizeFormat(format); format {
	case "png", "gif":
		return format
	default:
		return "jpeg"
	}
}

// ContentType returns the MIME type for an encoded format.
func ContentType(format string) string {
	return "image/" + EncodedFormat(format)
}

// Extension returns the file extension used for an encoded format.
func Extension(format string) string {
	switch EncodedFormat(format) {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// Encode writes the photo in its source format family, walking down a
// quality ladder until the output fits in opts.MaxBytes. The returned int is
// the quality setting that was used (JPEG quality, PNG compression level or
// GIF palette size). The first GIF rung keeps the source palette if the
// pixels still fit it.
func (p *Photo) Encode(opts EncodeOptions) ([]byte, int, error) {
	format := EncodedFormat(p.Format)

	var last int
	for _, q := range ladder(format, opts) {
		var buf bytes.Buffer
		if err := p.encodeOnce(&buf, format, q); err != nil {
			return nil, 0, fmt.Errorf("failed to encode %s: %w", format, err)
		}

		out := buf.Bytes()
		if len(opts.Salt) > 0 {
			salted, err := Salt(format, out, opts.Salt)
			if err != nil {
				return nil, 0, err
			}
			out = salted
		}

		last = len(out)
		if opts.MaxBytes <= 0 || len(out) <= opts.MaxBytes {
			return out, q, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: %d bytes > %d at lowest quality", ErrOutputTooLarge, last, opts.MaxBytes)
}

func (p *Photo) encodeOnce(buf *bytes.Buffer, format string, q int) error {
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.CompressionLevel(q)}
		return enc.Encode(buf, p.Img)
	case "gif":
		pm := p.Paletted(q)
		return gif.Encode(buf, pm, &gif.Options{NumColors: len(pm.Palette)})
	default:
		return jpeg.Encode(buf, p.Img, &jpeg.Options{Quality: q})
	}
}

func ladder(format string, opts EncodeOptions) []int {
	switch format {
	case "png":
		return []int{int(png.DefaultCompression), int(png.BestCompression)}
	case "gif":
		return []int{256, 128, 64, 32}
	}

	start := opts.Quality
	if start <= 0 || start > 100 {
		start = DefaultQuality
	}
	floor := opts.MinQuality
	if floor <= 0 {
		floor = DefaultMinQuality
	}
	if floor > start {
		floor = start
	}
	step := opts.QualityStep
	if step <= 0 {
		step = DefaultQualityStep
	}

	var qs []int
	for q := start; q > floor; q -= step {
		qs = append(qs, q)
	}
	return append(qs, floor)
}
