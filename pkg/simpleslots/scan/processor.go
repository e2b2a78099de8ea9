package scan

import (
	"context"

	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// PageProcessor processes individual pages.
//
// Example implementations:
//   - Refresher (null edits so derived data is recomputed)
//   - Exporter (dumps slot content)
//   - Validator (checks content models of stored slots)
type PageProcessor interface {
	// Process is called for each page found during scan.
	// Return error to mark this page as failed (scan continues with next page).
	Process(ctx context.Context, page *simpleslots.Page) error
}

// Refresher is the part of simpleslots.Service a RefreshProcessor needs
type Refresher interface {
	Refresh(ctx context.Context, req simpleslots.RefreshRequest) (*simpleslots.Revision, error)
}

// RefreshProcessor performs a null edit on every page so semantic data
// is rebuilt from the current slots.
type RefreshProcessor struct {
	Service Refresher
	Actor   simpleslots.Actor
}

// NewRefreshProcessor creates a processor refreshing pages as actor
func NewRefreshProcessor(service Refresher, actor simpleslots.Actor) *RefreshProcessor {
	return &RefreshProcessor{Service: service, Actor: actor}
}

// Process refreshes page
func (p *RefreshProcessor) Process(ctx context.Context, page *simpleslots.Page) error {
	_, err := p.Service.Refresh(ctx, simpleslots.RefreshRequest{
		Actor: p.Actor,
		Title: page.Title,
	})
	return err
}
