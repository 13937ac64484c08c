package gitlab

import (
	"net/http"

	"github.com/m-zajac/contribcount/internal/fetch"
)

// groupError replaces a raw api failure with a message the user can act on.
type groupError struct {
	msg string
	err error
}

func (e *groupError) Error() string {
	return e.msg
}

func (e *groupError) Unwrap() error {
	return e.err
}

func translateGroupError(err error) error {
	var msg string
	switch fetch.StatusCodeOf(err) {
	case http.StatusUnauthorized:
		msg = "Invalid token. Please check your GitLab personal access token."
	case http.StatusForbidden:
		msg = "Access denied. Please check your token permissions and ensure you have access to this group."
	case http.StatusNotFound:
		msg = "Group not found. Please check the group name and ensure it exists."
	case http.StatusUnprocessableEntity:
		msg = "Invalid group name or URL. Please check your input."
	default:
		return err
	}

	return &groupError{msg: msg, err: err}
}
