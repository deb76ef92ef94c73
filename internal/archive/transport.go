package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/joescharf/mdb/internal/models"
)

// Uploader sends a request body to the platform and returns its parsed response.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader) (*models.PublishResult, error)
}

// Transport pipes an archive of a directory into an Uploader.
type Transport struct {
	Excludes []string
	Progress func(mb string)
	Warn     func(err error)
}

// errUploadFinished unblocks the archive writer once the request has completed.
var errUploadFinished = errors.New("upload finished")

// Send archives root and streams it as the body of up. A hard archive error
// aborts the upload and is returned in preference to the upload error.
func (t *Transport) Send(ctx context.Context, root string, up Uploader) (*models.PublishResult, error) {
	pr, pw := io.Pipe()

	var (
		g          errgroup.Group
		result     *models.PublishResult
		archiveErr error
		uploadErr  error
	)
	g.Go(func() error {
		archiveErr = Write(ctx, pw, Options{
			Root:     root,
			Excludes: t.Excludes,
			OnProgress: func(n int64) {
				if t.Progress != nil {
					t.Progress(FormatMB(n))
				}
			},
			OnWarning: t.Warn,
		})
		_ = pw.CloseWithError(archiveErr)
		return archiveErr
	})
	g.Go(func() error {
		result, uploadErr = up.Upload(ctx, pr)
		_ = pr.CloseWithError(errUploadFinished)
		return uploadErr
	})
	_ = g.Wait()

	if archiveErr != nil && !errors.Is(archiveErr, errUploadFinished) {
		return nil, fmt.Errorf("publish aborted: %w", archiveErr)
	}
	if uploadErr != nil {
		return nil, uploadErr
	}
	return result, nil
}
