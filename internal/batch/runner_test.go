package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockUniqualizer is a mock implementation of Uniqualizer for testing
type MockUniqualizer struct {
	UniqualizeFunc func(data []byte, params engine.ParameterSet, seed uint64) (*engine.Result, error)

	mu    sync.Mutex
	calls []engine.ParameterSet
}

func (m *MockUniqualizer) Config() engine.Config {
	return engine.DefaultConfig()
}

func (m *MockUniqualizer) UniqualizeWithSeed(data []byte, params engine.ParameterSet, seed uint64) (*engine.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	return m.UniqualizeFunc(data, params, seed)
}

func okResult(_ []byte, _ engine.ParameterSet, seed uint64) (*engine.Result, error) {
	return &engine.Result{Data: []byte{byte(seed)}, Format: "jpeg", Seed: seed}, nil
}

func seedPtr(v uint64) *uint64 { return &v }

func samplePNG(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 6), uint8(y * 8), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewRunner(t *testing.T) {
	_, err := NewRunner(&MockUniqualizer{}, 0, nil)
	assert.Error(t, err)
}

func TestRunner_Manual(t *testing.T) {
	mock := &MockUniqualizer{UniqualizeFunc: okResult}
	runner, err := NewRunner(mock, 3, nil)
	require.NoError(t, err)

	params := engine.ParameterSet{Noise: true, BlurRadius: 2, Count: 7}
	report, err := runner.Run(context.Background(), []byte("img"), Request{Params: params, Seed: seedPtr(100)})
	require.NoError(t, err)

	require.Len(t, report.Outputs, 7)
	assert.Empty(t, report.Failures)
	assert.Equal(t, uint64(100), report.Seed)
	for i, out := range report.Outputs {
		assert.Equal(t, i, out.Index)
		assert.Equal(t, uint64(100+i), out.Result.Seed)
		assert.Equal(t, OutputName(i, "jpeg"), out.Name)
		assert.Equal(t, engine.ParameterSet{Noise: true, BlurRadius: 2, Count: 1}, out.Params)
	}
	assert.Equal(t, "unique_1.jpg", report.Outputs[0].Name)
	assert.Len(t, mock.calls, 7)
}

func TestRunner_FailuresAreSkipped(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockUniqualizer{UniqualizeFunc: func(data []byte, params engine.ParameterSet, seed uint64) (*engine.Result, error) {
		if seed%2 == 1 {
			return nil, boom
		}
		return okResult(data, params, seed)
	}}
	runner, err := NewRunner(mock, 2, nil)
	require.NoError(t, err)

	report, err := runner.Run(context.Background(), nil, Request{Params: engine.ParameterSet{Noise: true, Count: 5}, Seed: seedPtr(0)})
	require.NoError(t, err)

	assert.Len(t, report.Outputs, 3)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 1, report.Failures[0].Index)
	assert.Equal(t, 3, report.Failures[1].Index)
	assert.ErrorIs(t, report.FirstError(), boom)

	snap := runner.Stats().Snapshot()
	assert.Equal(t, StatsSnapshot{Requests: 1, Outputs: 3, Failures: 2}, snap)
}

func TestRunner_InvalidRequest(t *testing.T) {
	mock := &MockUniqualizer{UniqualizeFunc: okResult}
	runner, err := NewRunner(mock, 1, nil)
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), nil, Request{Params: engine.ParameterSet{Count: 0}})
	assert.ErrorIs(t, err, engine.ErrInvalidParameters)

	_, err = runner.Run(context.Background(), nil, Request{Mode: "random", Params: engine.ParameterSet{Count: 1}})
	assert.ErrorIs(t, err, engine.ErrInvalidParameters)
	assert.Empty(t, mock.calls)
}

func TestRunner_Cancelled(t *testing.T) {
	mock := &MockUniqualizer{UniqualizeFunc: okResult}
	runner, err := NewRunner(mock, 2, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := runner.Run(ctx, nil, Request{Params: engine.ParameterSet{Noise: true, Count: 10}})
	require.NoError(t, err)
	assert.Equal(t, 10, len(report.Outputs)+len(report.Failures))
	for _, f := range report.Failures {
		assert.ErrorIs(t, f.Err, context.Canceled)
	}
}

func TestRunner_AutoIsReproducible(t *testing.T) {
	sprite := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range sprite.Pix {
		sprite.Pix[i] = 200
	}
	store := assets.NewStore(&assets.Asset{Name: "smile", Img: sprite})
	eng := engine.New(engine.DefaultConfig(), store, nil)
	runner, err := NewRunner(eng, 4, nil)
	require.NoError(t, err)
	data := samplePNG(t)

	req := Request{Mode: Auto, Params: engine.ParameterSet{Count: 6}, Seed: seedPtr(42)}
	a, err := runner.Run(context.Background(), data, req)
	require.NoError(t, err)
	b, err := runner.Run(context.Background(), data, req)
	require.NoError(t, err)

	require.Len(t, a.Outputs, 6)
	require.Len(t, b.Outputs, 6)
	distinct := make(map[string]struct{})
	for i := range a.Outputs {
		assert.Equal(t, a.Outputs[i].Params, b.Outputs[i].Params)
		assert.Equal(t, a.Outputs[i].Result.Data, b.Outputs[i].Result.Data)
		assert.NotEqual(t, data, a.Outputs[i].Result.Data)
		distinct[string(a.Outputs[i].Result.Data)] = struct{}{}
	}
	assert.Len(t, distinct, 6)
}

func TestAutoParams(t *testing.T) {
	rng := engine.NewRandomSource(9)
	var smiles int
	for range 300 {
		p := AutoParams(rng)
		assert.True(t, p.AnyEnabled())
		assert.Equal(t, 1, p.Count)
		assert.GreaterOrEqual(t, p.BlurRadius, 0)
		assert.LessOrEqual(t, p.BlurRadius, MaxAutoBlur)
		if p.Smiles {
			smiles++
		}
	}
	// two in three on average
	assert.InDelta(t, 200, smiles, 40)

	for range 100 {
		n := AutoCount(rng)
		assert.GreaterOrEqual(t, n, MinAutoCount)
		assert.LessOrEqual(t, n, MaxAutoCount)
	}
}

func TestDefaultCount(t *testing.T) {
	assert.Equal(t, 1, DefaultCount(Manual, nil))
	assert.Equal(t, 1, DefaultCount(Manual, seedPtr(3)))

	for seed := range uint64(50) {
		n := DefaultCount(Auto, seedPtr(seed))
		assert.Equal(t, n, DefaultCount(Auto, seedPtr(seed)))
		assert.Equal(t, AutoCount(engine.NewRandomSource(seed)), n)
	}

	n := DefaultCount(Auto, nil)
	assert.GreaterOrEqual(t, n, MinAutoCount)
	assert.LessOrEqual(t, n, MaxAutoCount)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: Manual},
		{in: "manual", want: Manual},
		{in: " AUTO ", want: Auto},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
