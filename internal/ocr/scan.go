package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ScannedPDF renders each page of an image-only PDF to PNG with pdftoppm and
// recognizes the page images with Pages.
type ScannedPDF struct {
	Binary   string   // default "pdftoppm"
	DPI      int      // default 300
	MaxPages int      // 0 renders every page
	Runner   Runner   // default ExecRunner
	Pages    Provider // usually Tesseract
}

// Recognize rasterizes the PDF at path and joins the text of its pages.
// Pages that fail to recognize are skipped unless all of them fail.
func (s ScannedPDF) Recognize(ctx context.Context, path string) (Result, error) {
	if s.Pages == nil {
		return Result{}, &Error{Path: path, Op: "rasterize", Err: errors.New("no page recognizer")}
	}
	bin := s.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	dpi := s.DPI
	if dpi <= 0 {
		dpi = 300
	}
	runner := s.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	tmpDir, err := os.MkdirTemp("", "billcheck-pages-*")
	if err != nil {
		return Result{}, &Error{Path: path, Op: "rasterize", Err: err}
	}
	defer os.RemoveAll(tmpDir)

	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := runner.Run(ctx, bin, "-r", strconv.Itoa(dpi), "-png", path, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			err = fmt.Errorf("%w: %s", err, truncate(msg, 512))
		}
		return Result{}, &Error{Path: path, Op: "rasterize", Err: err}
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return Result{}, &Error{Path: path, Op: "rasterize", Err: err}
	}
	sort.Strings(images)
	if s.MaxPages > 0 && len(images) > s.MaxPages {
		images = images[:s.MaxPages]
	}
	if len(images) == 0 {
		return Result{}, &Error{Path: path, Op: "rasterize", Err: errors.New("no pages rendered")}
	}

	var texts []string
	var lastErr error
	for _, img := range images {
		res, err := s.Pages.Recognize(ctx, img)
		if err != nil {
			if IsCanceled(err) {
				return Result{}, err
			}
			lastErr = err
			continue
		}
		texts = append(texts, res.Text)
	}
	if len(texts) == 0 {
		return Result{}, &Error{Path: path, Op: "rasterize", Err: lastErr}
	}
	return Result{Text: Normalize(strings.Join(texts, "\n\n")), Pages: len(images), Source: "pdf-ocr"}, nil
}
