// Package ocr turns uploaded documents into recognized text. Providers here
// wrap external tools or file formats; the scoring engine never calls them.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

// Result is the recognized text of one document.
type Result struct {
	Text   string
	Pages  int
	Source string // provider that produced the text
}

// Provider recognizes the text of the document at path.
type Provider interface {
	Recognize(ctx context.Context, path string) (Result, error)
}

// ErrUnsupported is returned for documents no provider can read.
var ErrUnsupported = errors.New("unsupported document type")

// Error is an upstream recognition failure for one document.
type Error struct {
	Path string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ocr %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err stems from context cancellation or
// deadline rather than the document itself.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
