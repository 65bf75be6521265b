package domain

import "errors"

// Request-level errors. Any of these makes the whole extraction fail
// and produces a FAILURE envelope.
var (
	ErrFetchNotFound       = errors.New("document not found at source URL")
	ErrFetchForbidden      = errors.New("access to document denied by source")
	ErrFetchTimeout        = errors.New("document download timed out")
	ErrFetchNetwork        = errors.New("document download failed")
	ErrUnsupportedFileType = errors.New("unsupported document format")
	ErrPreprocessingFailed = errors.New("document could not be converted to page images")
	ErrModelFailure        = errors.New("extraction model call failed")
	ErrMalformedResponse   = errors.New("extraction model returned malformed output")
	ErrNoLineItems         = errors.New("no valid line items extracted")
	ErrCancelled           = errors.New("request cancelled")
)

// Item-level errors. These are recovered locally: the offending item is
// dropped with a logged warning and processing continues.
var (
	ErrInvalidNumericValue = errors.New("numeric field is not parseable")
	ErrIncompleteLineItem  = errors.New("line item has no amount, quantity, or rate")
)

// ClassifyError returns the human-readable error string carried in a
// FAILURE envelope.
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, ErrFetchNotFound):
		return "document retrieval failed: not found"
	case errors.Is(err, ErrFetchForbidden):
		return "document retrieval failed: access denied"
	case errors.Is(err, ErrFetchTimeout):
		return "document retrieval failed: timed out"
	case errors.Is(err, ErrFetchNetwork):
		return "document retrieval failed: network error"
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported document format; allowed: pdf, jpg, png"
	case errors.Is(err, ErrPreprocessingFailed):
		return "document preprocessing failed: corrupt or unreadable file"
	case errors.Is(err, ErrMalformedResponse):
		return "extraction failed: model returned malformed output"
	case errors.Is(err, ErrNoLineItems):
		return "extraction produced no valid line items"
	case errors.Is(err, ErrCancelled):
		return "request cancelled before extraction completed"
	case errors.Is(err, ErrModelFailure):
		return "extraction failed: model call error"
	default:
		return "internal error during extraction"
	}
}
