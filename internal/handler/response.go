package handler

import (
	"errors"
	"net/http"

	"medibill/internal/domain"
)

// MapExtractionError translates an extraction failure class to an HTTP
// status code. The response body is always the full envelope; the status
// only signals the failure class to the caller.
func MapExtractionError(err error) int {
	switch {
	case errors.Is(err, domain.ErrFetchNotFound),
		errors.Is(err, domain.ErrFetchForbidden),
		errors.Is(err, domain.ErrPreprocessingFailed),
		errors.Is(err, domain.ErrNoLineItems):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrFetchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrFetchNetwork),
		errors.Is(err, domain.ErrModelFailure),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrCancelled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
