// Package batch fans a single source photo out into several uniqualized
// variants by running the engine once per requested output over a small
// worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"go.uber.org/zap"
)

type Request struct {
	Mode   Mode
	Params engine.ParameterSet
	// Seed makes the whole batch reproducible: output i uses Seed+i.
	Seed *uint64
}

type Output struct {
	Index  int
	Name   string
	Params engine.ParameterSet
	Result *engine.Result
}

type Failure struct {
	Index int
	Err   error
}

type Report struct {
	Outputs  []Output
	Failures []Failure
	Seed     uint64
	Elapsed  time.Duration
}

// FirstError is the error of the lowest-numbered failed output, if any.
func (r *Report) FirstError() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}

type job struct {
	index  int
	seed   uint64
	params engine.ParameterSet
}

type outcome struct {
	job    job
	result *engine.Result
	err    error
}

// Uniqualizer is the part of *engine.Engine a Runner needs.
type Uniqualizer interface {
	Config() engine.Config
	UniqualizeWithSeed(data []byte, params engine.ParameterSet, seed uint64) (*engine.Result, error)
}

type Runner struct {
	engine  Uniqualizer
	workers int
	logger  *zap.Logger
	stats   *Stats
}

func NewRunner(eng Uniqualizer, workers int, logger *zap.Logger) (*Runner, error) {
	if workers < 1 {
		return nil, errors.New("pool size must be at least 1")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: eng, workers: workers, logger: logger, stats: &Stats{}}, nil
}

func (r *Runner) Stats() *Stats {
	return r.stats
}

// Run produces Params.Count variants of data. Individual failures are
// recorded in the report and never stop the remaining outputs; the returned
// error is only for a request that could not start at all.
func (r *Runner) Run(ctx context.Context, data []byte, req Request) (*Report, error) {
	started := time.Now()
	r.stats.requests.Add(1)

	if err := req.Params.Validate(r.engine.Config().MaxCount); err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = Manual
	}
	if mode != Manual && mode != Auto {
		return nil, &engine.Error{Kind: engine.ErrInvalidParameters, Op: "batch", Err: fmt.Errorf("unknown mode %q", mode)}
	}

	seed := engine.NewSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	queued := r.plan(mode, req.Params, seed)
	report := &Report{Seed: seed}

	jobs := make(chan job)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := range min(r.workers, len(queued)) {
		wg.Add(1)
		go r.worker(i, data, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for _, j := range queued {
			select {
			case <-ctx.Done():
				return
			case jobs <- j:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make(map[int]bool, len(queued))
	for o := range results {
		seen[o.job.index] = true
		if o.err != nil {
			r.logger.Warn("uniqualization failed",
				zap.Int("index", o.job.index),
				zap.Uint64("seed", o.job.seed),
				zap.Error(o.err))
			report.Failures = append(report.Failures, Failure{Index: o.job.index, Err: o.err})
			continue
		}
		report.Outputs = append(report.Outputs, Output{
			Index:  o.job.index,
			Name:   OutputName(o.job.index, o.result.Format),
			Params: o.job.params,
			Result: o.result,
		})
	}

	if err := ctx.Err(); err != nil {
		for _, j := range queued {
			if !seen[j.index] {
				report.Failures = append(report.Failures, Failure{Index: j.index, Err: err})
			}
		}
	}

	slices.SortFunc(report.Outputs, func(a, b Output) int { return a.Index - b.Index })
	slices.SortFunc(report.Failures, func(a, b Failure) int { return a.Index - b.Index })

	r.stats.outputs.Add(int64(len(report.Outputs)))
	r.stats.failures.Add(int64(len(report.Failures)))

	report.Elapsed = time.Since(started)
	r.logger.Info("batch finished",
		zap.String("mode", string(mode)),
		zap.Int("requested", len(queued)),
		zap.Int("outputs", len(report.Outputs)),
		zap.Int("failures", len(report.Failures)),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}

// plan fixes the seed and parameters of every output before any work starts,
// so the batch is reproducible regardless of worker scheduling.
func (r *Runner) plan(mode Mode, params engine.ParameterSet, seed uint64) []job {
	rng := engine.NewRandomSource(seed)
	queued := make([]job, params.Count)
	for i := range queued {
		p := params
		p.Count = 1
		if mode == Auto {
			p = AutoParams(rng)
		}
		queued[i] = job{index: i, seed: seed + uint64(i), params: p}
	}
	return queued
}

func (r *Runner) worker(i int, data []byte, jobs <-chan job, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()
	r.logger.Debug("worker started", zap.Int("worker", i))
	for j := range jobs {
		res, err := r.engine.UniqualizeWithSeed(data, j.params, j.seed)
		if err == nil && len(res.Warnings) > 0 {
			r.stats.degraded.Add(1)
		}
		results <- outcome{job: j, result: res, err: err}
	}
	r.logger.Debug("worker finished", zap.Int("worker", i))
}

// OutputName is the file name of the index'th (zero based) output.
func OutputName(index int, format string) string {
	return fmt.Sprintf("unique_%d%s", index+1, photo.Extension(format))
}
