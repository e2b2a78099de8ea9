package simpleslots

import (
	"context"
	"log/slog"
)

// SemanticMergeAdapter folds the semantic data of configured slots into the
// primary data of a page.
type SemanticMergeAdapter struct {
	store     RevisionStore
	extractor Extractor
	slots     []string
	logger    *slog.Logger
}

// NewSemanticMergeAdapter creates an adapter for slots. Slot order is
// precedence order: a later slot's built-in properties replace an earlier
// slot's.
func NewSemanticMergeAdapter(store RevisionStore, extractor Extractor, slots []string, logger *slog.Logger) *SemanticMergeAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]string, 0, len(slots))
	for _, slot := range slots {
		normalized = append(normalized, NormalizeSlotName(slot))
	}
	return &SemanticMergeAdapter{
		store:     store,
		extractor: extractor,
		slots:     normalized,
		logger:    logger,
	}
}

// Slots returns the configured semantic slots.
func (a *SemanticMergeAdapter) Slots() []string {
	return a.slots
}

// BeforeDataUpdateComplete merges slot data into primary. It never blocks
// the data update and always returns true.
func (a *SemanticMergeAdapter) BeforeDataUpdateComplete(ctx context.Context, primary *SemanticData) bool {
	revision, err := a.store.GetCurrentRevision(ctx, primary.Subject)
	if err != nil {
		a.logger.DebugContext(ctx, "Skipping semantic merge", "subject", primary.Subject, "error", err)
		return true
	}

	for _, role := range a.slots {
		slot := revision.Slot(role)
		if slot == nil || slot.Content == nil {
			continue
		}

		data, err := a.extractor.Extract(ctx, primary.Subject, slot.Content)
		if err != nil {
			a.logger.WarnContext(ctx, "Failed to extract slot data", "subject", primary.Subject, "slot", role, "error", err)
			continue
		}
		if data.IsEmpty() {
			continue
		}

		// Built-in properties declared by the slot replace the primary
		// set's instead of accumulating.
		for _, property := range data.PropertyKeys() {
			if !IsUserDefinedProperty(property) {
				primary.RemoveProperty(property)
			}
		}
		primary.ImportFrom(data)
	}

	return true
}

// Hook adapts the adapter to the data update hook chain.
func (a *SemanticMergeAdapter) Hook() DataUpdateHook {
	return func(hctx *HookContext, data *SemanticData) bool {
		return a.BeforeDataUpdateComplete(hctx.Context, data)
	}
}
