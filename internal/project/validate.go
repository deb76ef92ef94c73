package project

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError is returned for user input rejected before any network call.
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
}

var domainLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidateDomain checks that d is a plausible fully qualified host name.
func ValidateDomain(d string) error {
	if d == "" {
		return &ValidationError{Field: "domain", Value: d, Msg: "must not be empty"}
	}
	if len(d) > 253 {
		return &ValidationError{Field: "domain", Value: d, Msg: "longer than 253 characters"}
	}
	labels := strings.Split(strings.ToLower(d), ".")
	if len(labels) < 2 {
		return &ValidationError{Field: "domain", Value: d, Msg: "must contain at least one dot"}
	}
	for _, l := range labels {
		if !domainLabel.MatchString(l) {
			return &ValidationError{Field: "domain", Value: d, Msg: fmt.Sprintf("label %q is not valid", l)}
		}
	}
	return nil
}

// ValidateName checks a project name supplied by the user.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "project name", Value: name, Msg: "must not be empty"}
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return &ValidationError{Field: "project name", Value: name, Msg: "must not contain whitespace"}
	}
	return nil
}
