package classify

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/datafog/datafog-go/internal/files"
)

// DefaultConcurrency bounds the number of in-flight classification requests
// in ClassifyDir.
const DefaultConcurrency = 4

// BatchResult is the outcome for one file. Exactly one of Classification
// and Err is meaningful.
type BatchResult struct {
	Path           string
	Classification FileClassification
	Err            error
}

// ClassifyDir classifies every text file selected by opts. Per-file failures
// are recorded in the result; the returned error is non-nil only when the
// walk itself fails or ctx is cancelled. Results are sorted by path.
func (c *Classifier) ClassifyDir(ctx context.Context, opts files.Options, concurrency int) ([]BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu      sync.Mutex
		results []BatchResult
	)
	walkErr := files.Walk(gctx, opts, func(rel string, data []byte) error {
		content := string(data)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fc, err := c.ClassifyFile(gctx, content, rel)
			if err != nil {
				c.logger.Warn("classification failed", zap.String("file", rel), zap.Error(err))
			}
			mu.Lock()
			results = append(results, BatchResult{Path: rel, Classification: fc, Err: err})
			mu.Unlock()
			return nil
		})
		return nil
	})
	if err := g.Wait(); err != nil && walkErr == nil {
		walkErr = err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	c.logger.Info("batch classification complete", zap.Int("files", len(results)))
	return results, walkErr
}
