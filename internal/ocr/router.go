package ocr

import (
	"context"
	"path/filepath"
	"strings"
)

// Router dispatches documents to a provider by file extension.
type Router struct {
	byExt map[string]Provider
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{byExt: make(map[string]Provider)}
}

// Handle routes files with the given extensions (".pdf", "jpg", ...) to p.
func (r *Router) Handle(p Provider, exts ...string) {
	for _, ext := range exts {
		r.byExt[normExt(ext)] = p
	}
}

// Recognize finds the provider for path and runs it.
func (r *Router) Recognize(ctx context.Context, path string) (Result, error) {
	p, ok := r.byExt[normExt(filepath.Ext(path))]
	if !ok {
		return Result{}, &Error{Path: path, Op: "route", Err: ErrUnsupported}
	}
	return p.Recognize(ctx, path)
}

// DefaultRouter reads text files directly, PDFs through their text layer
// with rasterized page OCR as fallback, and images with tesseract. Unset
// Pages and Runner of scan default to tess and its runner.
func DefaultRouter(tess Tesseract, scan ScannedPDF) *Router {
	if scan.Pages == nil {
		scan.Pages = tess
	}
	if scan.Runner == nil {
		scan.Runner = tess.Runner
	}
	r := NewRouter()
	r.Handle(TextFile{}, ".txt")
	r.Handle(PDF{Fallback: scan}, ".pdf")
	r.Handle(tess, ".png", ".jpg", ".jpeg", ".tif", ".tiff")
	return r
}

func normExt(ext string) string {
	return "." + strings.TrimPrefix(strings.ToLower(ext), ".")
}
