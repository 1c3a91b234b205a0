package apperr

import "net/http"

// HTTPStatus maps a domain error kind to the status code handlers return.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-visible message for err. Internal errors are
// masked so storage detail does not leak through the API.
func Message(err error) string {
	if KindOf(err) == Internal {
		return "internal server error"
	}
	return err.Error()
}
