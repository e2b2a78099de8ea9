package simpleslots

import (
	"context"
	"log/slog"
)

// LevelAlert is the severity used for failed slot edits.
const LevelAlert = slog.LevelError + 4

// Service defines the main interface for the simple-slots library
type Service interface {
	// Slot edit operations
	EditSlot(ctx context.Context, req EditSlotRequest) (*EditResult, error)
	Refresh(ctx context.Context, req RefreshRequest) (*Revision, error)

	// Page read operations
	GetPage(ctx context.Context, ref PageRef) (*Page, error)
	GetCurrentRevision(ctx context.Context, title string) (*Revision, error)
	GetSlotContent(ctx context.Context, title, role string) (*Content, error)
	ListRevisions(ctx context.Context, title string) ([]*Revision, error)
	ListPages(ctx context.Context, params ListPagesParams) ([]*Page, error)

	// Semantic data operations
	GetSemanticData(ctx context.Context, title string) (*SemanticData, error)

	// Registries
	SlotRoles() SlotRoleRegistry
	ContentModels() *ContentModels
}
