package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/blobkey"
)

var errMissingMain = errors.New("revision has no main slot")

// Repository implements simpleslots.RevisionStore and
// simpleslots.SemanticStore using in-memory storage
type Repository struct {
	mu           sync.RWMutex
	pages        map[int64]*simpleslots.Page
	pagesByTitle map[string]int64
	revisions    map[int64]*simpleslots.Revision
	history      map[int64][]int64 // page_id -> []revision_id, oldest first
	semantic     map[string]*simpleslots.SemanticData
	nextPageID   int64
	nextRevID    int64

	blobs simpleslots.BlobStore
	keys  blobkey.Generator
}

// Option configures the repository
type Option func(*Repository)

// WithBlobStore writes every new slot body through to store under keys
// built by keys. Reads are still served from memory.
func WithBlobStore(store simpleslots.BlobStore, keys blobkey.Generator) Option {
	return func(r *Repository) {
		r.blobs = store
		r.keys = keys
	}
}

// New creates a new in-memory repository
func New(options ...Option) *Repository {
	r := &Repository{
		pages:        make(map[int64]*simpleslots.Page),
		pagesByTitle: make(map[string]int64),
		revisions:    make(map[int64]*simpleslots.Revision),
		history:      make(map[int64][]int64),
		semantic:     make(map[string]*simpleslots.SemanticData),
	}
	for _, option := range options {
		option(r)
	}
	if r.blobs != nil && r.keys == nil {
		r.keys = blobkey.NewRecommendedGenerator()
	}
	return r
}

// Page operations

func (r *Repository) GetPage(ctx context.Context, title string) (*simpleslots.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.pagesByTitle[title]
	if !exists {
		return nil, simpleslots.ErrPageNotFound
	}
	pageCopy := *r.pages[id]
	return &pageCopy, nil
}

func (r *Repository) GetPageByID(ctx context.Context, id int64) (*simpleslots.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, exists := r.pages[id]
	if !exists {
		return nil, simpleslots.ErrPageNotFound
	}
	pageCopy := *page
	return &pageCopy, nil
}

func (r *Repository) ListPages(ctx context.Context, params simpleslots.ListPagesParams) ([]*simpleslots.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.pages))
	for id := range r.pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if params.Offset >= len(ids) {
		return nil, nil
	}
	ids = ids[params.Offset:]
	if params.Limit > 0 && params.Limit < len(ids) {
		ids = ids[:params.Limit]
	}

	result := make([]*simpleslots.Page, 0, len(ids))
	for _, id := range ids {
		pageCopy := *r.pages[id]
		result = append(result, &pageCopy)
	}
	return result, nil
}

// Revision operations

func (r *Repository) GetCurrentRevision(ctx context.Context, title string) (*simpleslots.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.pagesByTitle[title]
	if !exists {
		return nil, simpleslots.ErrPageNotFound
	}
	return copyRevision(r.revisions[r.pages[id].LatestRevisionID]), nil
}

func (r *Repository) GetRevision(ctx context.Context, id int64) (*simpleslots.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rev, exists := r.revisions[id]
	if !exists {
		return nil, simpleslots.ErrRevisionNotFound
	}
	return copyRevision(rev), nil
}

func (r *Repository) ListRevisions(ctx context.Context, title string) ([]*simpleslots.Revision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pageID, exists := r.pagesByTitle[title]
	if !exists {
		return nil, simpleslots.ErrPageNotFound
	}

	// Newest first
	ids := r.history[pageID]
	result := make([]*simpleslots.Revision, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		result = append(result, copyRevision(r.revisions[ids[i]]))
	}
	return result, nil
}

func (r *Repository) Save(ctx context.Context, title string, edit *simpleslots.PendingEdit) (*simpleslots.SaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		page   *simpleslots.Page
		parent *simpleslots.Revision
	)
	if id, exists := r.pagesByTitle[title]; exists {
		page = r.pages[id]
		parent = r.revisions[page.LatestRevisionID]
	} else if edit.Null {
		return nil, simpleslots.ErrPageNotFound
	}

	slots := edit.Apply(parent)
	if _, ok := slots[simpleslots.MainSlot]; !ok {
		return nil, &simpleslots.PageError{Title: title, Op: "save", Err: errMissingMain}
	}
	hash := simpleslots.RevisionHash(slots)

	if parent != nil && !edit.Null && parent.Hash == hash {
		pageCopy := *page
		return &simpleslots.SaveResult{Page: &pageCopy, Revision: copyRevision(parent)}, nil
	}

	if err := r.writeThrough(ctx, slots, parent); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := false
	if page == nil {
		r.nextPageID++
		page = &simpleslots.Page{
			ID:        r.nextPageID,
			Title:     title,
			CreatedAt: now,
		}
		r.pages[page.ID] = page
		r.pagesByTitle[title] = page.ID
		created = true
	}

	r.nextRevID++
	rev := &simpleslots.Revision{
		ID:        r.nextRevID,
		PageID:    page.ID,
		Slots:     slots,
		Actor:     edit.Actor,
		Comment:   edit.Comment,
		Flags:     edit.Flags,
		Tags:      append([]string(nil), edit.Tags()...),
		Hash:      hash,
		Null:      edit.Null,
		CreatedAt: now,
	}
	if parent != nil {
		rev.ParentID = parent.ID
	}

	r.revisions[rev.ID] = rev
	r.history[page.ID] = append(r.history[page.ID], rev.ID)
	page.LatestRevisionID = rev.ID
	page.UpdatedAt = now

	pageCopy := *page
	return &simpleslots.SaveResult{
		Page:     &pageCopy,
		Revision: copyRevision(rev),
		Changed:  parent == nil || parent.Hash != hash,
		Created:  created,
	}, nil
}

// writeThrough uploads the bodies of slots whose content differs from
// parent. Nothing is recorded when an upload fails.
func (r *Repository) writeThrough(ctx context.Context, slots map[string]*simpleslots.Slot, parent *simpleslots.Revision) error {
	if r.blobs == nil {
		return nil
	}
	for role, slot := range slots {
		if previous := parent.Slot(role); previous != nil && previous.Hash == slot.Hash {
			continue
		}
		key := r.keys.GenerateKey(slot.Hash, &blobkey.KeyMetadata{Role: role, Model: slot.Content.Model})
		if err := r.blobs.Upload(ctx, key, strings.NewReader(slot.Content.Data)); err != nil {
			return err
		}
	}
	return nil
}

// Semantic data operations

func (r *Repository) SetSemanticData(ctx context.Context, data *simpleslots.SemanticData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.semantic[data.Subject] = data.Clone()
	return nil
}

func (r *Repository) GetSemanticData(ctx context.Context, subject string) (*simpleslots.SemanticData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, exists := r.semantic[subject]
	if !exists {
		return nil, simpleslots.ErrSemanticDataNotFound
	}
	return data.Clone(), nil
}

// copyRevision returns a copy whose slot map and tags can be modified
// without affecting the stored revision. Slots themselves are immutable.
func copyRevision(rev *simpleslots.Revision) *simpleslots.Revision {
	revCopy := *rev
	revCopy.Slots = make(map[string]*simpleslots.Slot, len(rev.Slots))
	for role, slot := range rev.Slots {
		revCopy.Slots[role] = slot
	}
	revCopy.Tags = append([]string(nil), rev.Tags...)
	return &revCopy
}
