package simpleslots

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
)

// MainSlot is the role every revision must carry.
const MainSlot = "main"

// SlotEditTag marks revisions produced by editing a slot other than main.
const SlotEditTag = "slot-edit"

// WatchlistNoChange is the watchlist mode that suppresses recent changes.
const WatchlistNoChange = "nochange"

// EditFlags controls how a save is recorded.
type EditFlags uint

// Edit flag constants.
const (
	// FlagInternal marks edits issued by this library rather than a user form
	FlagInternal EditFlags = 1 << iota
	// FlagSuppressRC keeps the edit out of recent changes and watchlists
	FlagSuppressRC
	// FlagAutoSummary lets the store generate a summary
	FlagAutoSummary
)

// Has reports whether all bits of f are set.
func (e EditFlags) Has(f EditFlags) bool {
	return e&f == f
}

// Actor identifies who performs an edit.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PageRef identifies a page either by title or by page ID.
// Title takes precedence when both are set.
type PageRef struct {
	Title string `json:"title,omitempty"`
	ID    int64  `json:"pageid,omitempty"`
}

// Page represents a wiki page.
type Page struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	LatestRevisionID int64     `json:"latest_revision_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Content is a serialized payload interpreted under a content model.
type Content struct {
	Model string `json:"model"`
	Data  string `json:"data"`
}

// Hash returns the sha1 of the model id and the serialized data.
func (c *Content) Hash() string {
	h := sha1.New()
	h.Write([]byte(c.Model))
	h.Write([]byte{0})
	h.Write([]byte(c.Data))
	return hex.EncodeToString(h.Sum(nil))
}

// IsEmpty reports whether the payload carries no data.
func (c *Content) IsEmpty() bool {
	return c == nil || c.Data == ""
}

// Slot is one named content compartment of a revision.
type Slot struct {
	Role    string   `json:"role"`
	Content *Content `json:"content"`
	Hash    string   `json:"hash"`
}

// NewSlot builds a slot and computes its hash.
func NewSlot(role string, content *Content) *Slot {
	return &Slot{Role: role, Content: content, Hash: content.Hash()}
}

// Revision is an immutable snapshot of all slots of a page.
type Revision struct {
	ID        int64            `json:"id"`
	PageID    int64            `json:"page_id"`
	ParentID  int64            `json:"parent_id,omitempty"`
	Slots     map[string]*Slot `json:"slots"`
	Actor     Actor            `json:"actor"`
	Comment   string           `json:"comment,omitempty"`
	Flags     EditFlags        `json:"flags"`
	Tags      []string         `json:"tags,omitempty"`
	Hash      string           `json:"hash"`
	Null      bool             `json:"null,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Slot returns the slot with the given role, or nil.
func (r *Revision) Slot(role string) *Slot {
	if r == nil {
		return nil
	}
	return r.Slots[role]
}

// HasSlot reports whether the revision carries the role.
func (r *Revision) HasSlot(role string) bool {
	return r.Slot(role) != nil
}

// Roles returns the slot roles of the revision, main first, then sorted.
func (r *Revision) Roles() []string {
	roles := make([]string, 0, len(r.Slots))
	for role := range r.Slots {
		if role != MainSlot {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	if _, ok := r.Slots[MainSlot]; ok {
		roles = append([]string{MainSlot}, roles...)
	}
	return roles
}

// HasTag reports whether the revision was tagged with tag.
func (r *Revision) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// RevisionHash combines slot hashes in role order.
func RevisionHash(slots map[string]*Slot) string {
	roles := make([]string, 0, len(slots))
	for role := range slots {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	h := sha1.New()
	for _, role := range roles {
		h.Write([]byte(role))
		h.Write([]byte{0})
		h.Write([]byte(slots[role].Hash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PendingEdit collects the changes of a single save. It is discarded after
// the save commits or fails.
type PendingEdit struct {
	Actor   Actor
	Comment string
	Flags   EditFlags
	// Null requests a revision identical to the current one.
	Null bool

	set    map[string]*Content
	remove map[string]struct{}
	tags   []string
}

// NewPendingEdit creates an empty edit for actor.
func NewPendingEdit(actor Actor) *PendingEdit {
	return &PendingEdit{
		Actor:  actor,
		set:    make(map[string]*Content),
		remove: make(map[string]struct{}),
	}
}

// SetSlot schedules role to receive content.
func (p *PendingEdit) SetSlot(role string, content *Content) {
	delete(p.remove, role)
	p.set[role] = content
}

// RemoveSlot schedules role for removal. main cannot be removed.
func (p *PendingEdit) RemoveSlot(role string) {
	if role == MainSlot {
		return
	}
	delete(p.set, role)
	p.remove[role] = struct{}{}
}

// AddTag tags the resulting revision.
func (p *PendingEdit) AddTag(tag string) {
	for _, t := range p.tags {
		if t == tag {
			return
		}
	}
	p.tags = append(p.tags, tag)
}

// SetSlots returns the scheduled slot updates.
func (p *PendingEdit) SetSlots() map[string]*Content {
	return p.set
}

// RemovedSlots returns the roles scheduled for removal, sorted.
func (p *PendingEdit) RemovedSlots() []string {
	roles := make([]string, 0, len(p.remove))
	for role := range p.remove {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Tags returns the tags to apply.
func (p *PendingEdit) Tags() []string {
	return p.tags
}

// Apply computes the slots of the next revision from base. base may be nil
// for a new page.
func (p *PendingEdit) Apply(base *Revision) map[string]*Slot {
	slots := make(map[string]*Slot)
	if base != nil {
		for role, slot := range base.Slots {
			slots[role] = slot
		}
	}
	if p.Null {
		return slots
	}
	for role := range p.remove {
		delete(slots, role)
	}
	for role, content := range p.set {
		slots[role] = NewSlot(role, content)
	}
	return slots
}

// SaveResult reports the outcome of RevisionStore.Save.
type SaveResult struct {
	// Page is the page after the save
	Page *Page
	// Revision is the new revision, or the unchanged current one
	Revision *Revision
	// Changed is true when the slot hash differs from the parent
	Changed bool
	// Created is true when the save created the page
	Created bool
}

// ListPagesParams pages through ListPages.
type ListPagesParams struct {
	Limit  int
	Offset int
}

// SlotRoleLayout describes where a slot is displayed.
type SlotRoleLayout struct {
	Display   string `json:"display" yaml:"display"`
	Region    string `json:"region" yaml:"region"`
	Placement string `json:"placement" yaml:"placement"`
}

// SlotDefinition configures a slot role.
type SlotDefinition struct {
	ContentModel   string          `json:"content_model" yaml:"content_model"`
	SlotRoleLayout *SlotRoleLayout `json:"slot_role_layout,omitempty" yaml:"slot_role_layout"`
}

// EditResult is returned on a successful slot edit.
type EditResult struct {
	Page     *Page
	Revision *Revision
	Changed  bool
	// Refreshed is set when a null edit followed the save
	Refreshed *Revision
}
