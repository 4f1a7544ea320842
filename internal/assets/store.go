// Package assets holds the overlay art ("smiles") stamped onto photos.
//
// A Store is filled once at startup and never mutated afterwards, so any
// number of engine calls may read from it concurrently without locking.
package assets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"github.com/rm-hull/photo-uniqualizer/internal/photo/stage"
	"go.uber.org/zap"
)

var ErrAssetNotFound = errors.New("assets: asset not found")

// MaxAssetDimension bounds the size of a single overlay image on disk.
const MaxAssetDimension = 4096

var extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

type Asset struct {
	Name string
	Img  *image.RGBA
}

type Store struct {
	assets []*Asset
}

func NewStore(assets ...*Asset) *Store {
	return &Store{assets: slices.Clone(assets)}
}

// Load reads every supported image in dir, ordered by file name. A missing
// or empty directory yields an empty store: the overlay stage is then
// skipped rather than failing whole calls. Files that cannot be decoded are
// logged and left out.
func Load(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		logger.Warn("no asset directory configured, overlays disabled")
		return NewStore(), nil
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("asset directory does not exist, overlays disabled", zap.String("dir", dir))
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset directory %s: %w", dir, err)
	}

	store := NewStore()
	for _, entry := range entries {
		if entry.IsDir() || !slices.Contains(extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		asset, err := loadAsset(path)
		if err != nil {
			logger.Warn("skipping asset", zap.String("path", path), zap.Error(err))
			continue
		}
		store.assets = append(store.assets, asset)
	}

	if store.Count() == 0 {
		logger.Warn("asset directory contains no usable images, overlays disabled", zap.String("dir", dir))
	} else {
		logger.Info("loaded overlay assets", zap.String("dir", dir), zap.Int("count", store.Count()))
	}
	return store, nil
}

func loadAsset(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := photo.Decode(data, photo.Limits{MaxDimension: MaxAssetDimension})
	if err != nil {
		return nil, err
	}

	// Opaque art (typically JPEG emoji on white) gets its background keyed out.
	if opaque(p.Img) {
		if err := p.Pipeline(&stage.ReplaceColorStage{Tolerance: 50, Replace: color.White}); err != nil {
			return nil, err
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Asset{Name: name, Img: p.Img}, nil
}

func opaque(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0xff {
			return false
		}
	}
	return true
}

func (s *Store) Count() int {
	if s == nil {
		return 0
	}
	return len(s.assets)
}

func (s *Store) Get(index int) (*Asset, error) {
	if s.Count() == 0 {
		return nil, fmt.Errorf("%w: store is empty", ErrAssetNotFound)
	}
	if index < 0 || index >= len(s.assets) {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrAssetNotFound, index, len(s.assets))
	}
	return s.assets[index], nil
}

func (s *Store) Names() []string {
	names := make([]string, 0, s.Count())
	for i := 0; i < s.Count(); i++ {
		names = append(names, s.assets[i].Name)
	}
	return names
}
