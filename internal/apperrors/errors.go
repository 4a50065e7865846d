package apperrors

import "fmt"

// DefaultUpstreamMessage is used when the provider declares failure
// without a human-readable message in the payload.
const DefaultUpstreamMessage = "the provider could not serve this request"

// ErrTransport represents a network-level failure: connection errors,
// timeouts, or a non-2xx response from either transport.
type ErrTransport struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ErrTransport) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap exposes the underlying network error, if any.
func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrTransport) Is(target error) bool {
	_, ok := target.(*ErrTransport)
	return ok
}

// NewTransportError creates a new ErrTransport.
func NewTransportError(op, url string, statusCode int, err error) *ErrTransport {
	return &ErrTransport{
		Op:         op,
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ErrUpstream represents a response the provider delivered but declared
// failed (success=false in the AJAX envelope). The message is the
// provider's own, or DefaultUpstreamMessage when absent.
type ErrUpstream struct {
	Message string
}

// Error implements the error interface.
func (e *ErrUpstream) Error() string {
	return e.Message
}

// Is allows for error checking with errors.Is().
func (e *ErrUpstream) Is(target error) bool {
	_, ok := target.(*ErrUpstream)
	return ok
}

// NewUpstreamError creates a new ErrUpstream, substituting the default
// message when the payload carried none.
func NewUpstreamError(message string) *ErrUpstream {
	if message == "" {
		message = DefaultUpstreamMessage
	}
	return &ErrUpstream{Message: message}
}

// ErrNotFound represents a translator, season, or episode that was
// expected to exist in already-fetched state but is absent. With
// clamping applied before lookup this indicates an internal invariant
// violation, not a user-facing condition.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewTranslatorNotFoundError creates a specific error for a translator
// id that is absent from an item's translator list.
func NewTranslatorNotFoundError(translatorID int) *ErrNotFound {
	return &ErrNotFound{
		Resource: "translator",
		ID:       translatorID,
	}
}
