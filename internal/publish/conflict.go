package publish

import (
	"errors"
	"net/http"
	"strings"

	"github.com/joescharf/mdb/internal/api"
)

// ConflictClass classifies a failed publish attempt.
type ConflictClass int

const (
	Fatal ConflictClass = iota
	NameConflict
	DomainConflict
)

func (c ConflictClass) String() string {
	switch c {
	case NameConflict:
		return "name conflict"
	case DomainConflict:
		return "domain conflict"
	default:
		return "fatal"
	}
}

// ClassifyError derives the conflict class from the HTTP status and message of
// a platform error. Anything that is not an api.Error is Fatal.
func ClassifyError(err error) ConflictClass {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return Fatal
	}
	msg := strings.ToLower(apiErr.Error())
	switch {
	case apiErr.StatusCode == http.StatusConflict && strings.Contains(msg, "project name"):
		return NameConflict
	case (apiErr.StatusCode == http.StatusConflict || apiErr.StatusCode == http.StatusForbidden) &&
		strings.Contains(msg, "domain name"):
		return DomainConflict
	default:
		return Fatal
	}
}
