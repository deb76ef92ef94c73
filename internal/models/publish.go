package models

import (
	"fmt"
	"strings"
)

// PublishMethod selects how a project is delivered to the platform.
type PublishMethod string

const (
	PublishMethodFtp      PublishMethod = "ftp"
	PublishMethodPipeline PublishMethod = "pipeline"
)

// ParsePublishMethod converts user input into a PublishMethod.
func ParsePublishMethod(s string) (PublishMethod, error) {
	switch PublishMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PublishMethodFtp:
		return PublishMethodFtp, nil
	case PublishMethodPipeline:
		return PublishMethodPipeline, nil
	default:
		return "", fmt.Errorf("unknown publish method %q (expected ftp or pipeline)", s)
	}
}

// Framework is the front-end framework detected from package.json.
type Framework string

const (
	FrameworkAngular Framework = "angular"
	FrameworkReact   Framework = "react"
	FrameworkVue     Framework = "vue"
	FrameworkGeneric Framework = "generic"
)

// BuildStatus is the state of a BuildOutcome.
type BuildStatus int

const (
	BuildNone BuildStatus = iota
	BuildSuccess
	BuildFailure
)

// BuildOutcome describes the result of the build step.
type BuildOutcome struct {
	Status    BuildStatus
	Framework Framework
	OutputDir string // "dist" or "build", relative to the project dir
	Reason    string
}

// PublishResult is the successful response of a publish call.
type PublishResult struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}
