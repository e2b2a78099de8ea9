package simpleslots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// service implements the Service interface
type service struct {
	store         RevisionStore
	roles         SlotRoleRegistry
	models        *ContentModels
	semantic      SemanticStore
	extractor     Extractor
	semanticSlots []string
	hooks         *Hooks
	eventSink     EventSink
	logger        *slog.Logger
	doPurge       bool
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the revision store for the service
func WithRepository(store RevisionStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithPageStore sets both the revision store and the slot role registry
func WithPageStore(store PageStore) Option {
	return func(s *service) {
		s.store = store
		s.roles = store
	}
}

// WithSlotRoles sets the slot role registry
func WithSlotRoles(roles SlotRoleRegistry) Option {
	return func(s *service) {
		s.roles = roles
	}
}

// WithContentModels sets the content model registry
func WithContentModels(models *ContentModels) Option {
	return func(s *service) {
		s.models = models
	}
}

// WithSemanticStore sets where aggregate semantic data is stored
func WithSemanticStore(store SemanticStore) Option {
	return func(s *service) {
		s.semantic = store
	}
}

// WithExtractor sets the semantic data extractor
func WithExtractor(extractor Extractor) Option {
	return func(s *service) {
		s.extractor = extractor
	}
}

// WithSemanticSlots lists the slots whose data is merged into the page's
// primary data, in precedence order
func WithSemanticSlots(slots ...string) Option {
	return func(s *service) {
		s.semanticSlots = append(s.semanticSlots, slots...)
	}
}

// WithHooks adds lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks.Merge(hooks)
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithDoPurge enables the null edit that follows every changing slot edit
func WithDoPurge(enabled bool) Option {
	return func(s *service) {
		s.doPurge = enabled
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		hooks:   &Hooks{},
		logger:  slog.Default(),
		doPurge: true,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.roles == nil {
		s.roles = NewSlotRoleRegistry(ModelWikitext, nil, nil)
	}
	if s.models == nil {
		s.models = NewContentModels()
	}

	if len(s.semanticSlots) > 0 {
		if s.extractor == nil {
			return nil, fmt.Errorf("extractor is required for semantic slots")
		}
		adapter := NewSemanticMergeAdapter(s.store, s.extractor, s.semanticSlots, s.logger)
		s.hooks.BeforeDataUpdateComplete = append([]DataUpdateHook{adapter.Hook()}, s.hooks.BeforeDataUpdateComplete...)
	}

	return s, nil
}

// Slot edit operations

func (s *service) EditSlot(ctx context.Context, req EditSlotRequest) (*EditResult, error) {
	slot := NormalizeSlotName(req.Slot)

	title, err := s.resolveTitle(ctx, req.Page)
	if err != nil {
		return nil, s.editFailed(ctx, req, slot, err)
	}

	current, err := s.store.GetCurrentRevision(ctx, title)
	if errors.Is(err, ErrPageNotFound) {
		current = nil
	} else if err != nil {
		return nil, s.editFailed(ctx, req, slot, err)
	}

	if !s.roles.IsRegisteredSlot(slot) {
		return nil, s.editFailed(ctx, req, slot, NewUnknownSlotError(slot))
	}

	text := req.Text
	if req.Append {
		if existing := current.Slot(slot); existing != nil {
			model := existing.Content.Model
			if !s.models.Handler(model).IsText() {
				return nil, s.editFailed(ctx, req, slot, NewAppendNotSupportedError(model))
			}
			text = existing.Content.Data + text
		}
	}

	edit := NewPendingEdit(req.Actor)
	if text == "" && slot != MainSlot {
		edit.RemoveSlot(slot)
	} else {
		content, err := s.models.Handler(s.modelFor(current, slot, title)).MakeContent(text)
		if err != nil {
			return nil, s.editFailed(ctx, req, slot, err)
		}
		edit.SetSlot(slot, content)
	}

	// A revision always carries main.
	if current == nil && slot != MainSlot {
		main, err := s.models.Handler(s.roles.DefaultModelFor(MainSlot, title)).MakeContent("")
		if err != nil {
			return nil, s.editFailed(ctx, req, slot, err)
		}
		edit.SetSlot(MainSlot, main)
	}

	if slot != MainSlot {
		edit.AddTag(SlotEditTag)
	}

	edit.Comment = req.Summary
	edit.Flags = FlagInternal
	if req.Watchlist == WatchlistNoChange {
		edit.Flags |= FlagSuppressRC
	}

	if err := s.hooks.executeBeforeSlotEdit(ctx, &req, edit); err != nil {
		return nil, s.editFailed(ctx, req, slot, err)
	}

	saved, err := s.store.Save(ctx, title, edit)
	if err != nil {
		return nil, s.editFailed(ctx, req, slot, err)
	}

	result := &EditResult{
		Page:     saved.Page,
		Revision: saved.Revision,
		Changed:  saved.Changed,
	}

	if saved.Changed {
		s.fireRevisionSaved(ctx, saved.Page, saved.Revision, current, edit)
		s.updateSecondaryData(ctx, saved.Page, saved.Revision)

		if s.doPurge {
			refreshed, err := s.refresh(ctx, req.Actor, saved.Page)
			if err != nil {
				return nil, s.editFailed(ctx, req, slot, err)
			}
			result.Refreshed = refreshed
		}
	}

	s.logger.InfoContext(ctx, "Slot edited",
		"page", title, "slot", slot, "revision_id", saved.Revision.ID, "changed", saved.Changed)

	if err := s.hooks.executeAfterSlotEdit(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*Revision, error) {
	title, ok := NormalizeTitle(req.Title)
	if !ok {
		return nil, NewInvalidPageError(CodeInvalidTitle, fmt.Sprintf("Bad title %q.", req.Title))
	}
	page, err := s.store.GetPage(ctx, title)
	if err != nil {
		return nil, &PageError{Title: title, Op: "refresh", Err: err}
	}
	return s.refresh(ctx, req.Actor, page)
}

// refresh performs a null edit so derived data is recomputed.
func (s *service) refresh(ctx context.Context, actor Actor, page *Page) (*Revision, error) {
	edit := NewPendingEdit(actor)
	edit.Null = true
	edit.Flags = FlagSuppressRC | FlagAutoSummary

	saved, err := s.store.Save(ctx, page.Title, edit)
	if err != nil {
		s.hooks.executeOnError(ctx, "refresh", err)
		return nil, &PageError{Title: page.Title, Op: "refresh", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.PageRefreshed(ctx, saved.Page, saved.Revision); err != nil {
			s.logger.WarnContext(ctx, "Event sink failed", "event", "page_refreshed", "page", page.Title, "error", err)
		}
	}
	s.updateSecondaryData(ctx, saved.Page, saved.Revision)

	return saved.Revision, nil
}

// updateSecondaryData recomputes the aggregate semantic data of page from
// revision.
func (s *service) updateSecondaryData(ctx context.Context, page *Page, revision *Revision) {
	if s.semantic == nil {
		return
	}

	primary := NewSemanticData(page.Title)
	if main := revision.Slot(MainSlot); main != nil && s.extractor != nil {
		data, err := s.extractor.Extract(ctx, page.Title, main.Content)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to extract semantic data", "page", page.Title, "slot", MainSlot, "error", err)
			s.hooks.executeOnError(ctx, "data_update", err)
			return
		}
		primary.ImportFrom(data)
	}

	s.hooks.executeBeforeDataUpdateComplete(ctx, primary)

	if err := s.semantic.SetSemanticData(ctx, primary); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store semantic data", "page", page.Title, "error", err)
		s.hooks.executeOnError(ctx, "data_update", err)
	}
}

func (s *service) fireRevisionSaved(ctx context.Context, page *Page, revision, parent *Revision, edit *PendingEdit) {
	if s.eventSink == nil {
		return
	}
	if err := s.eventSink.RevisionSaved(ctx, page, revision); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "revision_saved", "page", page.Title, "error", err)
	}
	for _, role := range edit.RemovedSlots() {
		if !parent.HasSlot(role) {
			continue
		}
		if err := s.eventSink.SlotRemoved(ctx, page, role); err != nil {
			s.logger.WarnContext(ctx, "Event sink failed", "event", "slot_removed", "page", page.Title, "error", err)
		}
	}
}

// modelFor keeps the model of an existing slot, else uses the role default.
func (s *service) modelFor(current *Revision, slot, title string) string {
	if existing := current.Slot(slot); existing != nil {
		return existing.Content.Model
	}
	return s.roles.DefaultModelFor(slot, title)
}

// resolveTitle turns a page reference into a normalized title.
func (s *service) resolveTitle(ctx context.Context, ref PageRef) (string, error) {
	if ref.Title != "" {
		title, ok := NormalizeTitle(ref.Title)
		if !ok {
			return "", NewInvalidPageError(CodeInvalidTitle, fmt.Sprintf("Bad title %q.", ref.Title))
		}
		return title, nil
	}
	if ref.ID > 0 {
		page, err := s.store.GetPageByID(ctx, ref.ID)
		if errors.Is(err, ErrPageNotFound) {
			return "", NewInvalidPageError(CodeNoSuchPageID, fmt.Sprintf("There is no page with ID %d.", ref.ID))
		}
		if err != nil {
			return "", err
		}
		return page.Title, nil
	}
	return "", NewInvalidPageError(CodeInvalidTitle, "Either the title or the pageid parameter must be set.")
}

// editFailed logs a failed edit and passes err through unchanged.
func (s *service) editFailed(ctx context.Context, req EditSlotRequest, slot string, err error) error {
	attrs := []any{"slot", slot, "title", req.Page.Title, "pageid", req.Page.ID, "error", err}
	if editErr, ok := AsEditError(err); ok {
		attrs = append(attrs, "code", editErr.Code)
	}
	s.logger.Log(ctx, LevelAlert, "Slot edit failed", attrs...)
	s.hooks.executeOnError(ctx, "edit_slot", err)
	return err
}

// Page read operations

func (s *service) GetPage(ctx context.Context, ref PageRef) (*Page, error) {
	title, err := s.resolveTitle(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.store.GetPage(ctx, title)
}

func (s *service) GetCurrentRevision(ctx context.Context, title string) (*Revision, error) {
	normalized, ok := NormalizeTitle(title)
	if !ok {
		return nil, NewInvalidPageError(CodeInvalidTitle, fmt.Sprintf("Bad title %q.", title))
	}
	return s.store.GetCurrentRevision(ctx, normalized)
}

func (s *service) GetSlotContent(ctx context.Context, title, role string) (*Content, error) {
	revision, err := s.GetCurrentRevision(ctx, title)
	if err != nil {
		return nil, err
	}
	slot := revision.Slot(NormalizeSlotName(role))
	if slot == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSlot, role)
	}
	return slot.Content, nil
}

func (s *service) ListRevisions(ctx context.Context, title string) ([]*Revision, error) {
	normalized, ok := NormalizeTitle(title)
	if !ok {
		return nil, NewInvalidPageError(CodeInvalidTitle, fmt.Sprintf("Bad title %q.", title))
	}
	return s.store.ListRevisions(ctx, normalized)
}

func (s *service) ListPages(ctx context.Context, params ListPagesParams) ([]*Page, error) {
	return s.store.ListPages(ctx, params)
}

// Semantic data operations

func (s *service) GetSemanticData(ctx context.Context, title string) (*SemanticData, error) {
	if s.semantic == nil {
		return nil, ErrSemanticDataNotFound
	}
	normalized, ok := NormalizeTitle(title)
	if !ok {
		return nil, NewInvalidPageError(CodeInvalidTitle, fmt.Sprintf("Bad title %q.", title))
	}
	return s.semantic.GetSemanticData(ctx, normalized)
}

// Registries

func (s *service) SlotRoles() SlotRoleRegistry {
	return s.roles
}

func (s *service) ContentModels() *ContentModels {
	return s.models
}
