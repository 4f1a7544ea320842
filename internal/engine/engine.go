// Package engine turns one photo into one visually identical but
// byte-distinct variant. It is a pure function of its input bytes, the
// ParameterSet and a random seed: the only state an Engine holds is
// read-only configuration and the overlay asset store, so a single Engine
// may serve any number of concurrent calls.
package engine

import (
	"time"

	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"go.uber.org/zap"
)

type Config struct {
	MaxInputBytes  int
	MaxDimension   int
	MaxPixelBytes  int64
	MaxOutputBytes int
	Quality        int
	MinQuality     int
	MaxCount       int
}

func DefaultConfig() Config {
	return Config{
		MaxInputBytes:  20 << 20,
		MaxDimension:   12000,
		MaxPixelBytes:  256 << 20,
		MaxOutputBytes: 10 << 20,
		Quality:        photo.DefaultQuality,
		MinQuality:     photo.DefaultMinQuality,
		MaxCount:       DefaultMaxCount,
	}
}

type Result struct {
	Data     []byte
	Format   string
	Quality  int
	Seed     uint64
	Stages   []string
	Warnings []error
}

type Engine struct {
	cfg          Config
	store        *assets.Store
	orchestrator *Orchestrator
	logger       *zap.Logger
}

func New(cfg Config, store *assets.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = assets.NewStore()
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxCount
	}
	return &Engine{
		cfg:          cfg,
		store:        store,
		orchestrator: NewOrchestrator(store),
		logger:       logger,
	}
}

func (e *Engine) Config() Config { return e.cfg }
func (e *Engine) Assets() *assets.Store { return e.store }

func (e *Engine) Limits() photo.Limits {
	return photo.Limits{
		MaxInputBytes: e.cfg.MaxInputBytes,
		MaxDimension:  e.cfg.MaxDimension,
		MaxPixelBytes: e.cfg.MaxPixelBytes,
	}
}

// Uniqualize produces one variant using a fresh random seed. The seed is
// reported in the result so the exact output can be reproduced later.
func (e *Engine) Uniqualize(data []byte, params ParameterSet) (*Result, error) {
	return e.UniqualizeWithSeed(data, params, NewSeed())
}

// UniqualizeWithSeed is Uniqualize with an explicit seed: the same bytes,
// parameters and seed always produce byte-identical output.
func (e *Engine) UniqualizeWithSeed(data []byte, params ParameterSet, seed uint64) (*Result, error) {
	if err := params.Validate(e.cfg.MaxCount); err != nil {
		return nil, err
	}

	started := time.Now()
	p, err := photo.Decode(data, e.Limits())
	if err != nil {
		return nil, decodeError(err)
	}

	plan, warnings := e.orchestrator.Plan(params, p.Bounds, NewRandomSource(seed))
	for _, w := range warnings {
		e.logger.Warn("stage skipped", zap.Error(w), zap.Uint64("seed", seed))
	}

	if err := e.orchestrator.Run(p, plan); err != nil {
		return nil, &Error{Kind: ErrTransform, Op: "transform", Err: err}
	}

	out, quality, err := p.Encode(photo.EncodeOptions{
		MaxBytes:   e.cfg.MaxOutputBytes,
		Quality:    e.cfg.Quality,
		MinQuality: e.cfg.MinQuality,
		Salt:       plan.Salt,
	})
	if err != nil {
		return nil, encodeError(err)
	}

	result := &Result{
		Data:     out,
		Format:   photo.EncodedFormat(p.Format),
		Quality:  quality,
		Seed:     seed,
		Stages:   plan.Names(),
		Warnings: warnings,
	}

	e.logger.Debug("uniqualized photo",
		zap.String("format", result.Format),
		zap.Int("width", p.Width()),
		zap.Int("height", p.Height()),
		zap.Strings("stages", result.Stages),
		zap.Int("quality", quality),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_bytes", len(out)),
		zap.Duration("elapsed", time.Since(started)))

	return result, nil
}
