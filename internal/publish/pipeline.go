package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joescharf/mdb/internal/api"
	"github.com/joescharf/mdb/internal/git"
	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/project"
	"github.com/joescharf/mdb/internal/prompt"
)

// ErrMergeDeclined aborts a pipeline publish when the user refuses to merge
// into the public branch.
var ErrMergeDeclined = errors.New("Cannot proceed without merge.")

// PipelineStrategy commits, merges and pushes to the public branch and lets
// the platform's CI runner deploy.
type PipelineStrategy struct {
	Git           git.Client
	API           ProjectAPI
	Prompt        prompt.Prompter
	Notify        Notifier
	Save          MetadataSaver
	PublicBranch  string
	DotConfigFile string
}

func (s *PipelineStrategy) Method() models.PublishMethod { return models.PublishMethodPipeline }

// Publish runs the pipeline steps in order. The first failing step ends the publish.
// The dot-config is committed alongside the CI file; it is pushed with the
// current branch only when the CI file was created.
func (s *PipelineStrategy) Publish(ctx context.Context, meta *models.ProjectMetadata) (*models.PublishResult, error) {
	branch, err := s.Git.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("determine current branch: %w", err)
	}

	created, err := ensureCIFile(meta.Dir, meta.HasTestScript(), s.PublicBranch)
	if err != nil {
		return nil, err
	}
	if created {
		s.Notify.Info("Created %s", CIFile)
		if err := s.Git.Commit(CIFile, "Add "+CIFile); err != nil {
			return nil, err
		}
	}
	if err := s.commitDotConfig(meta); err != nil {
		return nil, err
	}
	if created {
		if err := s.Git.Push(branch); err != nil {
			return nil, err
		}
	}

	if err := s.Git.Status(); err != nil {
		return nil, err
	}

	if branch != s.PublicBranch {
		if err := s.mergeIntoPublic(branch); err != nil {
			return nil, err
		}
	}

	if err := s.Git.Push(s.PublicBranch); err != nil {
		return nil, err
	}

	if meta.PublishMethod == "" {
		if err := s.offerDefault(meta); err != nil {
			return nil, err
		}
	}

	s.Notify.VerboseLog("Updating project status")
	return s.API.SaveProject(ctx, headersFor(meta), api.SaveRequest{
		RepoURL: s.Git.RemoteURL(),
		Domain:  meta.Domain,
	})
}

// commitDotConfig persists a newly generated hash and commits the dot-config
// when it is untracked or modified, so it never fails the clean-tree check.
func (s *PipelineStrategy) commitDotConfig(meta *models.ProjectMetadata) error {
	dot, err := project.LoadDotConfig(filepath.Join(meta.Dir, s.DotConfigFile))
	if err != nil {
		return err
	}
	if dot.Hash == "" {
		if err := s.Save(meta); err != nil {
			return fmt.Errorf("save %s: %w", s.DotConfigFile, err)
		}
	}

	changed, err := s.Git.Changed(s.DotConfigFile)
	if err != nil {
		return fmt.Errorf("check %s: %w", s.DotConfigFile, err)
	}
	if !changed {
		return nil
	}
	s.Notify.VerboseLog("Committing %s", s.DotConfigFile)
	return s.Git.Commit(s.DotConfigFile, "Add "+s.DotConfigFile)
}

// CommitMetadata commits the files rewritten by conflict resolution.
func (s *PipelineStrategy) CommitMetadata(meta *models.ProjectMetadata, files []string) error {
	msg := fmt.Sprintf("Update project metadata for %s", meta.Name)
	for _, f := range files {
		if err := s.Git.Commit(f, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *PipelineStrategy) mergeIntoPublic(branch string) error {
	ok, err := s.Prompt.Confirm(
		fmt.Sprintf("You are on branch %q. Merge it into %q and publish?", branch, s.PublicBranch), false)
	if err != nil {
		return fmt.Errorf("confirm merge: %w", err)
	}
	if !ok {
		return ErrMergeDeclined
	}

	if err := s.Git.Checkout(s.PublicBranch); err != nil {
		return err
	}
	if err := s.Git.Pull(s.PublicBranch); err != nil {
		s.Notify.VerboseLog("Pull of %s skipped: %v", s.PublicBranch, err)
	}
	return s.Git.Merge(branch)
}

// offerDefault asks whether to persist pipeline as the default method and,
// if so, saves and commits the dot-config.
func (s *PipelineStrategy) offerDefault(meta *models.ProjectMetadata) error {
	ok, err := s.Prompt.Confirm("Use pipeline as the default publish method for this project?", true)
	if err != nil {
		return fmt.Errorf("confirm default method: %w", err)
	}
	if !ok {
		return nil
	}

	meta.PublishMethod = models.PublishMethodPipeline
	if err := s.Save(meta); err != nil {
		return fmt.Errorf("save %s: %w", s.DotConfigFile, err)
	}
	return s.Git.Commit(s.DotConfigFile, "Set pipeline as default publish method")
}
