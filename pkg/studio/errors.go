package studio

import "errors"

// Every failure in this package is recoverable: the session that produced it
// stays resumable and the operation can be retried after the user corrects
// the input.
var (
	ErrFileTooLarge            = errors.New("file exceeds upload size cap")
	ErrUnsupportedFile         = errors.New("unsupported file extension")
	ErrIncompleteConfiguration = errors.New("configuration incomplete")
	ErrInvalidReference        = errors.New("reference resolves to an empty name")
	ErrMalformedConfiguration  = errors.New("malformed configuration file")
	ErrSubmissionFailed        = errors.New("fine-tune submission failed")
	ErrUploadNotReady          = errors.New("upload has not completed")
	ErrUnknownField            = errors.New("unknown configuration field")
	ErrSessionNotFound         = errors.New("session not found")
	ErrUnknownCatalogEntry     = errors.New("unknown catalog entry")
)
