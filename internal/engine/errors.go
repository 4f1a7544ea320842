package engine

import (
	"errors"
	"fmt"

	"github.com/rm-hull/photo-uniqualizer/internal/assets"
	"github.com/rm-hull/photo-uniqualizer/internal/photo"
)

// Error kinds. Every error returned by the engine is an *Error whose Kind is
// one of these; test with errors.Is.
var (
	ErrInvalidParameters     = errors.New("invalid parameters")
	ErrDecode                = errors.New("decode error")
	ErrAssetNotFound         = assets.ErrAssetNotFound
	ErrEncodeTooLarge        = errors.New("encoded image too large")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
	ErrTransform             = errors.New("transform failed")
)

var errEmptyStore = errors.New("overlay requested but the asset store is empty")

type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the engine error kind of err, or nil if err did not come
// from the engine.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

func decodeError(err error) error {
	kind := ErrDecode
	if errors.Is(err, photo.ErrMemoryLimit) {
		kind = ErrResourceLimitExceeded
	}
	return &Error{Kind: kind, Op: "decode", Err: err}
}

func encodeError(err error) error {
	kind := ErrTransform
	if errors.Is(err, photo.ErrOutputTooLarge) {
		kind = ErrEncodeTooLarge
	}
	return &Error{Kind: kind, Op: "encode", Err: err}
}
