package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type PhotoClient interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type PhotoFetcher struct {
	client   HTTPClient
	maxBytes int
	logger   *zap.Logger
}

func NewPhotoClient(maxBytes int, logger *zap.Logger) PhotoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch downloads a source photo, refusing anything larger than maxBytes
// whether or not the server announced the length up front.
func (f *PhotoFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.logger.Info("retrieving photo", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/gif, image/webp")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", url, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode > 299 {
		return nil, fmt.Errorf("http status response from %s: %s", url, res.Status)
	}

	if f.maxBytes > 0 && res.ContentLength > int64(f.maxBytes) {
		return nil, fmt.Errorf("%w: %s declares %d bytes", photo.ErrInputTooLarge, url, res.ContentLength)
	}

	body := io.Reader(res.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(res.Body, int64(f.maxBytes)+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %s: %w", url, err)
	}
	if f.maxBytes > 0 && len(data) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", photo.ErrInputTooLarge, url, f.maxBytes)
	}

	return data, nil
}
