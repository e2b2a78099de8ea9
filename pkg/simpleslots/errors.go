package simpleslots

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPageNotFound indicates a page does not exist
	ErrPageNotFound = errors.New("page not found")

	// ErrRevisionNotFound indicates a revision does not exist
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrInvalidPage indicates the page identity could not be resolved
	ErrInvalidPage = errors.New("invalid page")

	// ErrUnknownSlot indicates the slot role is not registered
	ErrUnknownSlot = errors.New("unknown slot")

	// ErrAppendNotSupported indicates append was requested on non-text content
	ErrAppendNotSupported = errors.New("append not supported")

	// ErrInvalidContent indicates text cannot be represented under a content model
	ErrInvalidContent = errors.New("invalid content")

	// ErrUnsupportedModel indicates no handler can build content for a model
	ErrUnsupportedModel = errors.New("unsupported content model")

	// ErrBlobNotFound indicates a blob store has no object under the key
	ErrBlobNotFound = errors.New("object not found")

	// ErrSemanticDataNotFound indicates no semantic data is stored for a subject
	ErrSemanticDataNotFound = errors.New("semantic data not found")
)

// Machine codes carried by EditError.
const (
	CodeInvalidTitle = "invalidtitle"
	CodeNoSuchPageID = "nosuchpageid"
	CodeUnknownSlot  = "unknownslot"
	CodeNoAppend     = "noappend"
)

// EditError is a structured slot-edit failure returned to the caller.
// Kind is one of ErrInvalidPage, ErrUnknownSlot or ErrAppendNotSupported.
type EditError struct {
	Kind    error
	Code    string
	Message string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EditError) Unwrap() error {
	return e.Kind
}

// NewInvalidPageError reports a page that could not be resolved.
func NewInvalidPageError(code, message string) *EditError {
	return &EditError{Kind: ErrInvalidPage, Code: code, Message: message}
}

// NewUnknownSlotError reports an unregistered slot role.
func NewUnknownSlotError(slot string) *EditError {
	return &EditError{
		Kind:    ErrUnknownSlot,
		Code:    CodeUnknownSlot,
		Message: fmt.Sprintf("The slot %q is not registered.", slot),
	}
}

// NewAppendNotSupportedError reports append on content that is not text.
func NewAppendNotSupportedError(model string) *EditError {
	return &EditError{
		Kind:    ErrAppendNotSupported,
		Code:    CodeNoAppend,
		Message: fmt.Sprintf("Appending is not supported for content model %q.", model),
	}
}

// AsEditError extracts an EditError from err.
func AsEditError(err error) (*EditError, bool) {
	var editErr *EditError
	if errors.As(err, &editErr) {
		return editErr, true
	}
	return nil, false
}

// PageError represents an error related to page storage operations
type PageError struct {
	Title string
	Op    string
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page operation %s failed for page %q: %v", e.Op, e.Title, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
