// Package build detects the front-end framework of a project and runs its build
// step with the file patches the platform needs to serve it from a sub-path.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joescharf/mdb/internal/models"
)

// Output directory names.
const (
	DistDir  = "dist"
	BuildDir = "build"
)

// ErrBuildFolderNotFound is returned when a React or generic build leaves
// neither dist nor build behind.
var ErrBuildFolderNotFound = errors.New("build folder not found")

// Notifier receives non-fatal messages from the adapter.
type Notifier interface {
	Warning(format string, a ...any)
	VerboseLog(format string, a ...any)
}

// Adapter runs the build step for a project.
type Adapter struct {
	PM       PackageManager
	Notify   Notifier
	BasePath func(projectName string) string // absolute sub-path the project is served under
	Homepage func(projectName string) string // full URL the project is served under
}

// DetectFramework picks the framework from declared dependencies. First match wins.
func DetectFramework(meta *models.ProjectMetadata) models.Framework {
	switch {
	case meta.HasDependency("@angular/core"):
		return models.FrameworkAngular
	case meta.HasDependency("react"):
		return models.FrameworkReact
	case meta.HasDependency("vue"):
		return models.FrameworkVue
	default:
		return models.FrameworkGeneric
	}
}

// Run builds the project described by meta. Without a build script it is a
// no-op and reports BuildNone.
func (a *Adapter) Run(ctx context.Context, meta *models.ProjectMetadata) (models.BuildOutcome, error) {
	if !meta.HasBuildScript() {
		return models.BuildOutcome{Status: models.BuildNone}, nil
	}

	fw := DetectFramework(meta)
	a.Notify.VerboseLog("Detected %s project, running build", fw)

	var (
		outDir string
		err    error
	)
	switch fw {
	case models.FrameworkAngular:
		outDir, err = a.buildAngular(ctx, meta)
	case models.FrameworkReact:
		outDir, err = a.buildReact(ctx, meta)
	case models.FrameworkVue:
		outDir, err = a.buildVue(ctx, meta)
	default:
		outDir, err = a.buildGeneric(ctx, meta)
	}
	if err != nil {
		return models.BuildOutcome{Status: models.BuildFailure, Framework: fw, Reason: err.Error()}, err
	}
	return models.BuildOutcome{Status: models.BuildSuccess, Framework: fw, OutputDir: outDir}, nil
}

func (a *Adapter) runBuild(ctx context.Context, dir string) error {
	out, err := a.PM.Build(ctx, dir)
	if err != nil {
		if tail := lastLines(out, 20); tail != "" {
			return fmt.Errorf("%w\n%s", err, tail)
		}
		return err
	}
	return nil
}

func (a *Adapter) buildGeneric(ctx context.Context, meta *models.ProjectMetadata) (string, error) {
	a.Notify.Warning("Unrecognized framework, the project may not be structured as expected")
	if err := a.runBuild(ctx, meta.Dir); err != nil {
		return "", err
	}
	for _, d := range []string{DistDir, BuildDir} {
		if dirExists(filepath.Join(meta.Dir, d)) {
			return d, nil
		}
	}
	a.Notify.Warning("Neither %s nor %s was created by the build script", DistDir, BuildDir)
	return "", ErrBuildFolderNotFound
}

// moveDir replaces dst with src, both relative to dir. src may live inside dst
// (dist/app into dist), so it is first moved aside.
func moveDir(dir, src, dst string) error {
	from, to := filepath.Join(dir, src), filepath.Join(dir, dst)
	if from == to {
		return nil
	}
	tmp, err := os.MkdirTemp(dir, ".mdb-build-")
	if err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	staged := filepath.Join(tmp, "out")
	if err := os.Rename(from, staged); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	if err := os.RemoveAll(to); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("remove %s: %w", dst, err)
	}
	if err := os.Rename(staged, to); err != nil {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return os.RemoveAll(tmp)
}
