package publish

import (
	"context"
	"fmt"

	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/project"
	"github.com/joescharf/mdb/internal/prompt"
)

// maxAttempts bounds strategy invocations per publish: the first attempt and
// at most one retry after a resolved conflict.
const maxAttempts = 2

// History records publish attempts.
type History interface {
	RecordAttempt(ctx context.Context, a *models.Attempt) error
}

// Coordinator runs a Strategy and resolves a single name or domain conflict.
type Coordinator struct {
	Strategy Strategy
	Prompt   prompt.Prompter
	Save     ResolutionSaver
	History  History // optional
	Notify   Notifier
}

// Publish invokes the strategy. On a name or domain conflict in the first
// attempt the user supplies a replacement, metadata is persisted and the
// strategy is invoked once more, whatever the outcome.
func (c *Coordinator) Publish(ctx context.Context, meta *models.ProjectMetadata) (*models.PublishResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := c.Strategy.Publish(ctx, meta)
		class := Fatal
		if err != nil {
			class = ClassifyError(err)
		}
		c.record(ctx, meta, attempt, res, err, class)

		if err == nil {
			return res, nil
		}
		lastErr = err
		if class == Fatal || attempt == maxAttempts {
			break
		}

		c.Notify.Warning("%v", err)
		if err := c.resolve(class, meta); err != nil {
			return nil, err
		}
		c.Notify.Info("Retrying publish of %s", meta.Name)
	}
	return nil, lastErr
}

// resolve prompts for a replacement name or domain and persists it. Strategies
// that publish from version control also commit the changed files.
func (c *Coordinator) resolve(class ConflictClass, meta *models.ProjectMetadata) error {
	switch class {
	case NameConflict:
		name, err := c.Prompt.Text("Enter a new project name", meta.Name)
		if err != nil {
			return fmt.Errorf("read project name: %w", err)
		}
		if err := project.ValidateName(name); err != nil {
			return err
		}
		meta.Name = name
	case DomainConflict:
		domain, err := c.Prompt.Text("Enter a new domain name", meta.Domain)
		if err != nil {
			return fmt.Errorf("read domain name: %w", err)
		}
		if err := project.ValidateDomain(domain); err != nil {
			return err
		}
		meta.Domain = domain
	}

	files, err := c.Save(meta)
	if err != nil {
		return fmt.Errorf("save project metadata: %w", err)
	}
	if committer, ok := c.Strategy.(Committer); ok && len(files) > 0 {
		if err := committer.CommitMetadata(meta, files); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) record(ctx context.Context, meta *models.ProjectMetadata, n int, res *models.PublishResult, err error, class ConflictClass) {
	if c.History == nil {
		return
	}
	a := &models.Attempt{
		ProjectName: meta.Name,
		Domain:      meta.Domain,
		Method:      c.Strategy.Method(),
		Number:      n,
		Outcome:     models.AttemptSucceeded,
	}
	switch {
	case err != nil && class != Fatal:
		a.Outcome = models.AttemptConflict
		a.Message = err.Error()
	case err != nil:
		a.Outcome = models.AttemptFailed
		a.Message = err.Error()
	case res != nil:
		a.Message = res.Message
		a.URL = res.URL
	}
	if herr := c.History.RecordAttempt(ctx, a); herr != nil {
		c.Notify.Warning("Could not record publish history: %v", herr)
	}
}
