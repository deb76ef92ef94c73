package publish

import (
	"context"
	"io"
	"path/filepath"

	"github.com/joescharf/mdb/internal/models"
)

// FtpStrategy builds the project and uploads an archive of the result.
type FtpStrategy struct {
	Builder Builder
	Sender  Sender
	API     ProjectAPI
	Notify  Notifier
}

func (s *FtpStrategy) Method() models.PublishMethod { return models.PublishMethodFtp }

// Publish builds (front-end projects only) and uploads the output directory,
// or the project root when nothing was built.
func (s *FtpStrategy) Publish(ctx context.Context, meta *models.ProjectMetadata) (*models.PublishResult, error) {
	root := meta.Dir
	if meta.Kind.NeedsBuild() {
		outcome, err := s.Builder.Run(ctx, meta)
		if err != nil {
			return nil, err
		}
		if outcome.Status == models.BuildSuccess {
			s.Notify.Success("Built %s project into %s", outcome.Framework, outcome.OutputDir)
			root = filepath.Join(meta.Dir, outcome.OutputDir)
		}
	}

	s.Notify.Info("Uploading %s", meta.Name)
	headers := headersFor(meta)
	return s.Sender.Send(ctx, root, uploadFunc(func(ctx context.Context, body io.Reader) (*models.PublishResult, error) {
		return s.API.Publish(ctx, headers, body)
	}))
}

// uploadFunc adapts a function to archive.Uploader.
type uploadFunc func(ctx context.Context, body io.Reader) (*models.PublishResult, error)

func (f uploadFunc) Upload(ctx context.Context, body io.Reader) (*models.PublishResult, error) {
	return f(ctx, body)
}
