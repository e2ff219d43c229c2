package ocr

import (
	"context"
	"os"
)

// TextFile reads documents that are already plain text, such as recognized
// output saved by a scanner.
type TextFile struct{}

// Recognize returns the normalized file contents.
func (TextFile) Recognize(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &Error{Path: path, Op: "read", Err: err}
	}
	return Result{Text: Normalize(string(data)), Pages: 1, Source: "text"}, nil
}
