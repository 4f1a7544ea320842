package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rm-hull/photo-uniqualizer/internal"
	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/batch"
	"github.com/rm-hull/photo-uniqualizer/internal/config"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/rm-hull/photo-uniqualizer/internal/logging"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

const previewFrameDelay = 0.6

type UniqualizeOptions struct {
	ConfigPath string
	Input      string
	URL        string
	OutDir     string
	Mode       string
	Params     engine.ParameterSet
	Seed       *uint64
	Preview    bool
	Verbose    bool
}

func Uniqualize(ctx context.Context, opts UniqualizeOptions, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Dev || opts.Verbose, cfg.LogFile)
	defer func() {
		_ = logger.Sync()
	}()

	data, err := readInput(ctx, opts, cfg.MaxInputBytes, internal.NewPhotoClient(cfg.MaxInputBytes, logger))
	if err != nil {
		return err
	}

	store, err := assets.Load(cfg.AssetDir, logger)
	if err != nil {
		return err
	}

	runner, err := batch.NewRunner(engine.New(cfg.Engine(), store, logger), cfg.Workers, logger)
	if err != nil {
		return err
	}

	mode, err := batch.ParseMode(opts.Mode)
	if err != nil {
		return err
	}

	params := opts.Params
	if params.Count == 0 {
		params.Count = batch.DefaultCount(mode, opts.Seed)
	}

	report, err := runner.Run(ctx, data, batch.Request{Mode: mode, Params: params, Seed: opts.Seed})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	encoded := make([][]byte, 0, len(report.Outputs))
	for _, o := range report.Outputs {
		path := filepath.Join(opts.OutDir, o.Name)
		if err := os.WriteFile(path, o.Result.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		encoded = append(encoded, o.Result.Data)
		_, _ = fmt.Fprintf(out, "%s %s %s\n", ok("✓"), path,
			dim(fmt.Sprintf("(%d bytes, q=%d, stages=%s)", len(o.Result.Data), o.Result.Quality, stageList(o.Result.Stages))))
	}
	for _, f := range report.Failures {
		_, _ = fmt.Fprintf(out, "%s #%d %v\n", bad("✗"), f.Index+1, f.Err)
	}

	_, _ = fmt.Fprintf(out, "%d of %d variants written in %s (seed %d)\n",
		len(report.Outputs), params.Count, report.Elapsed.Round(time.Millisecond), report.Seed)

	if len(report.Outputs) == 0 {
		return fmt.Errorf("no variants produced: %w", report.FirstError())
	}

	if opts.Preview {
		path := filepath.Join(opts.OutDir, "preview.png")
		if err := writePreview(path, encoded); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", ok("▶"), path)
	}

	return nil
}

func readInput(ctx context.Context, opts UniqualizeOptions, maxBytes int, client internal.PhotoClient) ([]byte, error) {
	switch {
	case opts.Input != "" && opts.URL != "":
		return nil, errors.New("specify either a file or --url, not both")
	case opts.URL != "":
		return client.Fetch(ctx, opts.URL)
	case opts.Input != "":
		info, err := os.Stat(opts.Input)
		if err != nil {
			return nil, err
		}
		if info.Size() > int64(maxBytes) {
			return nil, fmt.Errorf("%w: %s is %d bytes", photo.ErrInputTooLarge, opts.Input, info.Size())
		}
		return os.ReadFile(opts.Input)
	default:
		return nil, errors.New("no input photo given")
	}
}

func writePreview(path string, encoded [][]byte) error {
	frames, err := photo.DecodeFrames(encoded, photo.Limits{})
	if err != nil {
		return fmt.Errorf("failed to decode variants for preview: %w", err)
	}
	data, err := photo.Animate(frames, previewFrameDelay)
	if err != nil {
		return fmt.Errorf("failed to build preview: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func stageList(stages []string) string {
	if len(stages) == 0 {
		return "none"
	}
	return strings.Join(stages, "+")
}
