package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rm-hull/photo-uniqualizer/internal/photo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// MockHTTPClient is a mock implementation of http.Client for testing
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.DoFunc(req)
}

func respond(status int, body string) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode:    status,
				Status:        http.StatusText(status),
				Body:          io.NopCloser(bytes.NewBufferString(body)),
				ContentLength: -1,
				Header:        make(http.Header),
			}, nil
		},
	}
}

func TestPhotoFetcher_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("successful response", func(t *testing.T) {
		var accept string
		mock := respond(http.StatusOK, "image bytes")
		inner := mock.DoFunc
		mock.DoFunc = func(req *http.Request) (*http.Response, error) {
			accept = req.Header.Get("Accept")
			return inner(req)
		}

		f := &PhotoFetcher{client: mock, maxBytes: 100, logger: zap.NewNop()}
		data, err := f.Fetch(ctx, "http://test-url/cat.jpg")
		assert.NoError(t, err)
		assert.Equal(t, "image bytes", string(data))
		assert.Contains(t, accept, "image/jpeg")
	})

	t.Run("http error response", func(t *testing.T) {
		f := &PhotoFetcher{client: respond(http.StatusNotFound, "Not Found"), logger: zap.NewNop()}
		data, err := f.Fetch(ctx, "http://test-url/missing.jpg")
		assert.Nil(t, data)
		assert.EqualError(t, err, "http status response from http://test-url/missing.jpg: Not Found")
	})

	t.Run("body larger than limit", func(t *testing.T) {
		f := &PhotoFetcher{client: respond(http.StatusOK, strings.Repeat("x", 11)), maxBytes: 10, logger: zap.NewNop()}
		_, err := f.Fetch(ctx, "http://test-url/big.jpg")
		assert.ErrorIs(t, err, photo.ErrInputTooLarge)
	})

	t.Run("declared length larger than limit", func(t *testing.T) {
		mock := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode:    http.StatusOK,
					Body:          io.NopCloser(bytes.NewBufferString("")),
					ContentLength: 1 << 30,
					Header:        make(http.Header),
				}, nil
			},
		}
		f := &PhotoFetcher{client: mock, maxBytes: 10, logger: zap.NewNop()}
		_, err := f.Fetch(ctx, "http://test-url/huge.jpg")
		assert.ErrorIs(t, err, photo.ErrInputTooLarge)
	})

	t.Run("transport failure", func(t *testing.T) {
		mock := &MockHTTPClient{
			DoFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
		}
		f := &PhotoFetcher{client: mock, logger: zap.NewNop()}
		_, err := f.Fetch(ctx, "http://test-url/cat.jpg")
		assert.ErrorContains(t, err, "connection refused")
	})
}
