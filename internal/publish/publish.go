// Package publish chooses a delivery mechanism for a project, runs it, and
// recovers once from a name or domain conflict reported by the platform.
package publish

import (
	"context"
	"io"

	"github.com/joescharf/mdb/internal/api"
	"github.com/joescharf/mdb/internal/archive"
	"github.com/joescharf/mdb/internal/models"
)

// Strategy delivers a project to the platform.
type Strategy interface {
	Method() models.PublishMethod
	Publish(ctx context.Context, meta *models.ProjectMetadata) (*models.PublishResult, error)
}

// Notifier receives user-facing messages.
type Notifier interface {
	Info(format string, a ...any)
	Success(format string, a ...any)
	Warning(format string, a ...any)
	VerboseLog(format string, a ...any)
}

// Builder runs the front-end build step.
type Builder interface {
	Run(ctx context.Context, meta *models.ProjectMetadata) (models.BuildOutcome, error)
}

// Sender streams an archive of root into an upload.
type Sender interface {
	Send(ctx context.Context, root string, up archive.Uploader) (*models.PublishResult, error)
}

// ProjectAPI is the subset of the platform API used for publishing.
type ProjectAPI interface {
	Publish(ctx context.Context, h api.ProjectHeaders, body io.Reader) (*models.PublishResult, error)
	SaveProject(ctx context.Context, h api.ProjectHeaders, body api.SaveRequest) (*models.PublishResult, error)
}

// MetadataSaver persists ProjectMetadata to the dot-config.
type MetadataSaver func(meta *models.ProjectMetadata) error

// ResolutionSaver persists a name or domain chosen during conflict resolution
// and returns the changed files relative to the project directory.
type ResolutionSaver func(meta *models.ProjectMetadata) ([]string, error)

// Committer is implemented by strategies that publish from version control.
// Files changed by conflict resolution are committed before the retry, so the
// clean-tree check passes.
type Committer interface {
	CommitMetadata(meta *models.ProjectMetadata, files []string) error
}

// headersFor builds the identifying headers. Technology and starter are only
// sent for the project kinds that use them.
func headersFor(meta *models.ProjectMetadata) api.ProjectHeaders {
	h := api.ProjectHeaders{
		ProjectName: meta.Name,
		PackageName: meta.PackageName,
		Domain:      meta.Domain,
		Hash:        meta.Hash,
	}
	switch meta.Kind {
	case models.ProjectKindBackend:
		h.Technology = meta.Technology
	case models.ProjectKindWordPress:
		h.Starter = meta.Starter
	}
	return h
}
