package messaging

import "errors"

var (
	// ErrNotFound is returned when the message does not exist within the
	// caller's tenant scope.
	ErrNotFound = errors.New("messaging: message not found")

	// ErrTemplateNotFound is returned when the gallery holds no template
	// with the requested name and language.
	ErrTemplateNotFound = errors.New("messaging: template not found")

	// ErrMissingParam is returned when a template placeholder has no value.
	ErrMissingParam = errors.New("messaging: missing template parameter")

	// ErrNotCancellable is returned when cancelling a message that already
	// left the queued state.
	ErrNotCancellable = errors.New("messaging: only queued messages can be cancelled")

	// ErrInvalidGallery is returned when the template gallery fails to parse.
	ErrInvalidGallery = errors.New("messaging: invalid template gallery")
)
