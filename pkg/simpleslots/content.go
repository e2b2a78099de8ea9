package simpleslots

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tidwall/gjson"
)

// Content model identifiers.
const (
	ModelWikitext   = "wikitext"
	ModelText       = "text"
	ModelCSS        = "css"
	ModelJavaScript = "javascript"
	ModelJSON       = "json"
)

// ContentHandler builds and interprets content for one content model.
type ContentHandler interface {
	// ModelID returns the content model identifier
	ModelID() string

	// IsText reports whether the serialized form is plain text that can be
	// concatenated
	IsText() bool

	// MakeContent builds content from text
	MakeContent(text string) (*Content, error)
}

// TextHandler handles text based models. Validate is optional.
type TextHandler struct {
	Model    string
	Validate func(text string) error
}

// ModelID returns the content model identifier
func (h *TextHandler) ModelID() string { return h.Model }

// IsText always returns true
func (h *TextHandler) IsText() bool { return true }

// MakeContent builds content from text, validating it if configured
func (h *TextHandler) MakeContent(text string) (*Content, error) {
	if h.Validate != nil {
		if err := h.Validate(text); err != nil {
			return nil, err
		}
	}
	return &Content{Model: h.Model, Data: text}, nil
}

// FallbackHandler stands in for content models nobody registered. It keeps
// existing data readable but refuses to build new content.
type FallbackHandler struct {
	Model string
}

// ModelID returns the content model identifier
func (h *FallbackHandler) ModelID() string { return h.Model }

// IsText always returns false
func (h *FallbackHandler) IsText() bool { return false }

// MakeContent always fails
func (h *FallbackHandler) MakeContent(text string) (*Content, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, h.Model)
}

func validateJSON(text string) error {
	// An empty JSON page is allowed, as with wikitext.
	if text == "" {
		return nil
	}
	if !gjson.Valid(text) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidContent)
	}
	return nil
}

// ContentModels is a registry of content handlers.
type ContentModels struct {
	mu       sync.RWMutex
	handlers map[string]ContentHandler
}

// NewContentModels returns a registry with the built-in text models.
func NewContentModels() *ContentModels {
	m := &ContentModels{handlers: make(map[string]ContentHandler)}
	m.Register(&TextHandler{Model: ModelWikitext})
	m.Register(&TextHandler{Model: ModelText})
	m.Register(&TextHandler{Model: ModelCSS})
	m.Register(&TextHandler{Model: ModelJavaScript})
	m.Register(&TextHandler{Model: ModelJSON, Validate: validateJSON})
	return m
}

// Register adds or replaces a handler.
func (m *ContentModels) Register(h ContentHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[h.ModelID()] = h
}

// Handler returns the handler for model, falling back to FallbackHandler.
func (m *ContentModels) Handler(model string) ContentHandler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.handlers[model]; ok {
		return h
	}
	return &FallbackHandler{Model: model}
}

// IsRegistered reports whether a real handler exists for model.
func (m *ContentModels) IsRegistered(model string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handlers[model]
	return ok
}

// Models lists registered model ids, sorted.
func (m *ContentModels) Models() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	models := make([]string, 0, len(m.handlers))
	for id := range m.handlers {
		models = append(models, id)
	}
	sort.Strings(models)
	return models
}
