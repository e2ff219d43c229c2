package bills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InboxDir is the subdirectory documents are dropped into.
const InboxDir = "inbox"

// ProcessedDir is the subdirectory for assessed documents.
var ProcessedDir = filepath.Join(InboxDir, "processed")

// Kind tells how a document is assessed.
type Kind string

const (
	// KindItemized files are structured bills compared item by item.
	KindItemized Kind = "itemized"
	// KindDocument files are scans or text whose content must be recognized.
	KindDocument Kind = "document"
)

var kindByExt = map[string]Kind{
	".json": KindItemized,
	".csv":  KindItemized,
	".txt":  KindDocument,
	".pdf":  KindDocument,
	".png":  KindDocument,
	".jpg":  KindDocument,
	".jpeg": KindDocument,
	".tif":  KindDocument,
	".tiff": KindDocument,
}

// FileInfo describes a document in the inbox.
type FileInfo struct {
	Name   string
	Path   string
	Size   int64
	Kind   Kind
	LoanID string
}

// KindOf returns the kind for a file name and whether it is supported.
func KindOf(name string) (Kind, bool) {
	k, ok := kindByExt[strings.ToLower(filepath.Ext(name))]
	return k, ok
}

// LoanIDFromName returns the loan a document belongs to. Files are named
// LOANID__anything.ext; a name without the separator is all loan ID.
func LoanIDFromName(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if id, _, ok := strings.Cut(stem, "__"); ok {
		return strings.TrimSpace(id)
	}
	return strings.TrimSpace(stem)
}

// Scan returns supported documents in <repoRoot>/inbox/, sorted by name.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, InboxDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading inbox dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind, ok := KindOf(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   filepath.Join(dir, e.Name()),
			Size:   info.Size(),
			Kind:   kind,
			LoanID: LoanIDFromName(e.Name()),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from inbox/ to inbox/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, InboxDir, fileName)
	dstDir := filepath.Join(repoRoot, ProcessedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
