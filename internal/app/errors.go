package app

import "errors"

// InvalidRequestError is special error type returned when any request params are invalid
type InvalidRequestError string

// Error implements error interface
func (e InvalidRequestError) Error() string {
	return string(e)
}

// IsInvalidRequest tells that this error is 'invalid request'.
// Returns always true.
func (InvalidRequestError) IsInvalidRequest() bool {
	return true
}

// IsInvalidRequestError checks if given error is caused by invalid request
func IsInvalidRequestError(err error) bool {
	var e interface {
		IsInvalidRequest() bool
	}
	if errors.As(err, &e) {
		return e.IsInvalidRequest()
	}

	return false
}

// NotFoundError is returned when a requested resource doesn't exist.
type NotFoundError string

// Error implements error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// IsNotFound tells that this error is 'not found'.
func (NotFoundError) IsNotFound() bool {
	return true
}

// IsNotFoundError checks if given error is caused by missing resource
func IsNotFoundError(err error) bool {
	var e interface {
		IsNotFound() bool
	}
	if errors.As(err, &e) {
		return e.IsNotFound()
	}

	return false
}

// NoResultsError is returned when a crawl finishes without anything to report:
// no containers in the organization, or no contributors in the activity window.
// It's a terminal condition, retrying won't help.
type NoResultsError string

// Error implements error interface
func (e NoResultsError) Error() string {
	return string(e)
}

// IsNoResults tells that this error is 'no results'.
func (NoResultsError) IsNoResults() bool {
	return true
}

// IsNoResultsError checks if given error means an empty crawl outcome
func IsNoResultsError(err error) bool {
	var e interface {
		IsNoResults() bool
	}
	if errors.As(err, &e) {
		return e.IsNoResults()
	}

	return false
}

// TooManyRequestsError is returned when the local outbound limiter couldn't grant a request slot.
type TooManyRequestsError string

// Error implements error interface
func (e TooManyRequestsError) Error() string {
	return string(e)
}
