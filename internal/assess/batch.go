package assess

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loanguard/billcheck/internal/bills"
	"github.com/loanguard/billcheck/internal/model"
	"github.com/loanguard/billcheck/internal/ocr"
)

// Item is the outcome for one file of a batch. Err is set when the file
// could not be assessed at all, for example a malformed bill fixture.
type Item struct {
	File       bills.FileInfo
	Assessment Assessment
	Err        error
}

// Summary counts batch outcomes by category.
type Summary struct {
	Total       int
	Failed      int
	AutoApprove int
	ByCategory  map[model.Category]int
}

// Batch assesses files in parallel, bounded by the configured worker count.
// Items keep the order of files. Only cancellation aborts the batch.
func (s *Service) Batch(ctx context.Context, files []bills.FileInfo) ([]Item, error) {
	start := time.Now()
	items := make([]Item, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			a, err := s.AssessFile(gctx, f)
			if err != nil && ocr.IsCanceled(err) {
				return err
			}
			items[i] = Item{File: f, Assessment: a, Err: err}
			if err != nil {
				s.logger.Error("batch.file_failed", "file", f.Name, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := Summarize(items)
	s.logger.Info("batch.done",
		"files", sum.Total,
		"failed", sum.Failed,
		"green", sum.ByCategory[model.CategoryGreen],
		"amber", sum.ByCategory[model.CategoryAmber],
		"red", sum.ByCategory[model.CategoryRed],
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}

// Summarize counts items by outcome.
func Summarize(items []Item) Summary {
	sum := Summary{Total: len(items), ByCategory: make(map[model.Category]int)}
	for _, it := range items {
		if it.Err != nil {
			sum.Failed++
			continue
		}
		sum.ByCategory[it.Assessment.Result.RiskCategory]++
		if it.Assessment.AutoApprove {
			sum.AutoApprove++
		}
	}
	return sum
}
