package scan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// PageLister lists pages in a stable order. Both simpleslots.Service and
// simpleslots.RevisionStore satisfy it.
type PageLister interface {
	ListPages(ctx context.Context, params simpleslots.ListPagesParams) ([]*simpleslots.Page, error)
}

// Scanner lists pages and processes them with the provided processor.
type Scanner struct {
	pages  PageLister
	logger *slog.Logger
}

// New creates a new Scanner instance.
func New(pages PageLister) *Scanner {
	return &Scanner{pages: pages, logger: slog.Default()}
}

// WithLogger sets the logger used to report failures.
func (s *Scanner) WithLogger(logger *slog.Logger) *Scanner {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// ScanOptions configures the scan operation.
type ScanOptions struct {
	// Processor defines the processing logic (required unless DryRun is true)
	Processor PageProcessor

	// BatchSize controls how many pages to list at once (default: 100)
	BatchSize int

	// Limit stops the scan after this many pages (0 means all)
	Limit int

	// DryRun if true, doesn't process pages, just reports what would be processed
	DryRun bool

	// OnProgress is called after each batch is processed (optional)
	OnProgress func(processed, total int64)
}

// ScanResult contains statistics about the scan operation.
type ScanResult struct {
	// TotalFound is the number of pages listed
	TotalFound int64

	// TotalProcessed is the number of pages successfully processed
	TotalProcessed int64

	// TotalFailed is the number of pages that failed processing
	TotalFailed int64

	// FailedTitles contains the titles of pages that failed processing
	FailedTitles []string
}

// Scan lists pages in batches and processes each one. If a page fails
// processing, the error is recorded and scanning continues with the next
// page. Listing errors and context cancellation stop the scan.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	result := &ScanResult{}

	if !opts.DryRun && opts.Processor == nil {
		return result, fmt.Errorf("processor is required when DryRun is false")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		limit := opts.BatchSize
		if opts.Limit > 0 {
			remaining := opts.Limit - int(result.TotalFound)
			if remaining <= 0 {
				break
			}
			limit = min(limit, remaining)
		}

		pages, err := s.pages.ListPages(ctx, simpleslots.ListPagesParams{Limit: limit, Offset: offset})
		if err != nil {
			return result, fmt.Errorf("failed to list pages: %w", err)
		}
		if len(pages) == 0 {
			break
		}

		result.TotalFound += int64(len(pages))

		for _, page := range pages {
			if opts.DryRun {
				s.logger.InfoContext(ctx, "Dry run: would process page", "page_id", page.ID, "title", page.Title)
				result.TotalProcessed++
				continue
			}

			if err := opts.Processor.Process(ctx, page); err != nil {
				result.TotalFailed++
				result.FailedTitles = append(result.FailedTitles, page.Title)
				s.logger.ErrorContext(ctx, "Failed to process page", "page_id", page.ID, "title", page.Title, "error", err)
				continue
			}

			result.TotalProcessed++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(result.TotalProcessed+result.TotalFailed, result.TotalFound)
		}

		if len(pages) < limit {
			break
		}
		offset += len(pages)
	}

	return result, nil
}

// ForEach is a convenience method that processes each page with a callback function.
//
// Example:
//
//	scanner.ForEach(ctx, func(ctx context.Context, page *simpleslots.Page) error {
//	    fmt.Printf("Processing %s\n", page.Title)
//	    return nil
//	})
func (s *Scanner) ForEach(ctx context.Context, fn func(context.Context, *simpleslots.Page) error) (*ScanResult, error) {
	return s.Scan(ctx, ScanOptions{Processor: &funcProcessor{fn: fn}})
}

// funcProcessor adapts a function to the PageProcessor interface.
type funcProcessor struct {
	fn func(context.Context, *simpleslots.Page) error
}

func (p *funcProcessor) Process(ctx context.Context, page *simpleslots.Page) error {
	return p.fn(ctx, page)
}
