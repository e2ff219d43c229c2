package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF reads the embedded text layer of a PDF. Scanned PDFs have no text
// layer; for those Fallback is used when set.
type PDF struct {
	Fallback Provider
}

// Recognize extracts the text layer of the PDF at path.
func (p PDF) Recognize(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, &Error{Path: path, Op: "read", Err: err}
	}

	text, pages, err := pdfText(data)
	if err != nil {
		return Result{}, &Error{Path: path, Op: "pdf", Err: err}
	}
	text = Normalize(text)
	if strings.TrimSpace(text) == "" && p.Fallback != nil {
		return p.Fallback.Recognize(ctx, path)
	}
	return Result{Text: text, Pages: pages, Source: "pdf"}, nil
}

func pdfText(data []byte) (text string, pages int, err error) {
	// The pdf package panics on some malformed object streams.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, err
	}
	return buf.String(), r.NumPage(), nil
}
