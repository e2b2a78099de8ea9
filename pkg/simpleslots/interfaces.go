package simpleslots

import (
	"context"
	"io"
	"time"
)

// RevisionStore defines the interface for page and revision persistence
type RevisionStore interface {
	// Page operations
	GetPage(ctx context.Context, title string) (*Page, error)
	GetPageByID(ctx context.Context, id int64) (*Page, error)
	ListPages(ctx context.Context, params ListPagesParams) ([]*Page, error)

	// Revision operations
	GetCurrentRevision(ctx context.Context, title string) (*Revision, error)
	GetRevision(ctx context.Context, id int64) (*Revision, error)
	ListRevisions(ctx context.Context, title string) ([]*Revision, error)

	// Save applies edit on top of the current revision of title, creating the
	// page when it does not exist. A save without effective change returns
	// the current revision with Changed=false unless edit.Null is set.
	Save(ctx context.Context, title string, edit *PendingEdit) (*SaveResult, error)
}

// SlotRoleRegistry knows which slot roles exist and their default models
type SlotRoleRegistry interface {
	// IsRegisteredSlot reports whether name is a defined slot role
	IsRegisteredSlot(name string) bool

	// DefaultModelFor returns the content model for a new slot on title
	DefaultModelFor(role, title string) string

	// Roles lists the defined roles
	Roles() []string
}

// PageStore is the collaborator the slot editor works against
type PageStore interface {
	RevisionStore
	SlotRoleRegistry
}

// SemanticStore persists the aggregate semantic data of pages
type SemanticStore interface {
	SetSemanticData(ctx context.Context, data *SemanticData) error
	GetSemanticData(ctx context.Context, subject string) (*SemanticData, error)
}

// Extractor derives semantic data from slot content
type Extractor interface {
	// Extract returns the data declared by content. It may return nil.
	Extract(ctx context.Context, subject string, content *Content) (*SemanticData, error)
}

// BlobStore defines the interface for slot body storage backends
type BlobStore interface {
	// Upload stores content under key
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns the content stored under key
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// GetObjectMeta retrieves metadata for key
	GetObjectMeta(ctx context.Context, key string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about a stored blob
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// EventSink defines the interface for event handling
type EventSink interface {
	// RevisionSaved is fired when a save produced a revision
	RevisionSaved(ctx context.Context, page *Page, revision *Revision) error

	// SlotRemoved is fired for each slot a save removed
	SlotRemoved(ctx context.Context, page *Page, role string) error

	// PageRefreshed is fired after a null edit
	PageRefreshed(ctx context.Context, page *Page, revision *Revision) error
}
