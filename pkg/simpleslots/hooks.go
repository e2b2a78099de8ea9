package simpleslots

import (
	"context"
)

// Hook system allows extending slot editing without modifying core code.
// Hooks are called at specific points of an edit and of the data update
// that follows it.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	// Edit lifecycle hooks
	BeforeSlotEdit []BeforeSlotEditHook
	AfterSlotEdit  []AfterSlotEditHook

	// Data update hooks
	BeforeDataUpdateComplete []DataUpdateHook

	// Error hooks
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeSlotEditHook is called after validation, before the edit is saved.
// Returning an error aborts the edit.
type BeforeSlotEditHook func(hctx *HookContext, req *EditSlotRequest, edit *PendingEdit) error

// AfterSlotEditHook is called after the edit is saved
type AfterSlotEditHook func(hctx *HookContext, result *EditResult) error

// DataUpdateHook is called before the aggregate semantic data of a page is
// stored. It returns false to stop the chain.
type DataUpdateHook func(hctx *HookContext, data *SemanticData) bool

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

// Merge appends the hooks of other to h.
func (h *Hooks) Merge(other *Hooks) {
	if other == nil {
		return
	}
	h.BeforeSlotEdit = append(h.BeforeSlotEdit, other.BeforeSlotEdit...)
	h.AfterSlotEdit = append(h.AfterSlotEdit, other.AfterSlotEdit...)
	h.BeforeDataUpdateComplete = append(h.BeforeDataUpdateComplete, other.BeforeDataUpdateComplete...)
	h.OnError = append(h.OnError, other.OnError...)
}

// executeBeforeSlotEdit runs all BeforeSlotEdit hooks
func (h *Hooks) executeBeforeSlotEdit(ctx context.Context, req *EditSlotRequest, edit *PendingEdit) error {
	if len(h.BeforeSlotEdit) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeSlotEdit {
		if err := hook(hctx, req, edit); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeAfterSlotEdit runs all AfterSlotEdit hooks
func (h *Hooks) executeAfterSlotEdit(ctx context.Context, result *EditResult) error {
	if len(h.AfterSlotEdit) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterSlotEdit {
		if err := hook(hctx, result); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

// executeBeforeDataUpdateComplete runs the data update hooks until one
// returns false
func (h *Hooks) executeBeforeDataUpdateComplete(ctx context.Context, data *SemanticData) {
	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeDataUpdateComplete {
		if !hook(hctx, data) || hctx.StopChain {
			return
		}
	}
}

// executeOnError runs all OnError hooks
func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// ValidationHook adds custom validation of edit requests
func ValidationHook(validator func(*EditSlotRequest) error) BeforeSlotEditHook {
	return func(hctx *HookContext, req *EditSlotRequest, edit *PendingEdit) error {
		return validator(req)
	}
}

// MetricsHook tracks metrics
func MetricsHook(metrics interface {
	IncrementCounter(name string)
}) *Hooks {
	return &Hooks{
		AfterSlotEdit: []AfterSlotEditHook{
			func(hctx *HookContext, result *EditResult) error {
				if result.Changed {
					metrics.IncrementCounter("slot.edit.changed")
				} else {
					metrics.IncrementCounter("slot.edit.nochange")
				}
				return nil
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				metrics.IncrementCounter(operation + ".failed")
			},
		},
	}
}
