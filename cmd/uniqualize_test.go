package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string) string {
	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 10), uint8(y * 15), 60, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestUniqualize(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASSET_DIR", filepath.Join(dir, "no-assets"))
	outDir := filepath.Join(dir, "out")
	seed := uint64(3)

	var out bytes.Buffer
	err := Uniqualize(context.Background(), UniqualizeOptions{
		Input:   writeTestPNG(t, dir),
		OutDir:  outDir,
		Params:  engine.ParameterSet{Noise: true, BlurRadius: 1, Count: 2},
		Seed:    &seed,
		Preview: true,
	}, &out)
	require.NoError(t, err)

	for _, name := range []string{"unique_1.png", "unique_2.png", "preview.png"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.Contains(t, out.String(), "2 of 2 variants written")
	assert.Contains(t, out.String(), "seed 3")
}

func TestUniqualize_SeededAutoCount(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASSET_DIR", filepath.Join(dir, "no-assets"))
	in := writeTestPNG(t, dir)
	seed := uint64(21)
	want := fmt.Sprintf("%[1]d of %[1]d variants written", batch.DefaultCount(batch.Auto, &seed))

	for i := range 2 {
		var out bytes.Buffer
		err := Uniqualize(context.Background(), UniqualizeOptions{
			Input:  in,
			OutDir: filepath.Join(dir, fmt.Sprintf("out%d", i)),
			Mode:   "auto",
			Seed:   &seed,
		}, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), want)
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir)

	_, err := readInput(context.Background(), UniqualizeOptions{}, 100, nil)
	assert.Error(t, err)

	_, err = readInput(context.Background(), UniqualizeOptions{Input: path, URL: "http://x"}, 100, nil)
	assert.Error(t, err)

	_, err = readInput(context.Background(), UniqualizeOptions{Input: path}, 10, nil)
	assert.ErrorContains(t, err, "exceeds maximum size")

	data, err := readInput(context.Background(), UniqualizeOptions{Input: path}, 1<<20, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
