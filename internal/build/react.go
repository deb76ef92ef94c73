package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/project"
)

// routerEntryFiles are the files searched for a <BrowserRouter> element.
var routerEntryFiles = []string{
	"src/index.js", "src/index.jsx", "src/index.tsx", "src/index.ts",
	"src/main.jsx", "src/main.tsx", "src/main.js",
	"src/App.js", "src/App.jsx", "src/App.tsx",
}

var (
	browserRouterTag = regexp.MustCompile(`<BrowserRouter(\s[^>]*)?>`)
	basenameAttr     = regexp.MustCompile(`\bbasename\s*=`)
)

// snapshot holds original file contents so patches can be undone byte for byte.
type snapshot map[string][]byte

func (s snapshot) save(path string) error {
	if _, ok := s[path]; ok {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s[path] = data
	return nil
}

func (s snapshot) restore() error {
	var errs []error
	for path, data := range s {
		if err := os.WriteFile(path, data, 0644); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", filepath.Base(path), err))
		}
	}
	return errors.Join(errs...)
}

func (a *Adapter) buildReact(ctx context.Context, meta *models.ProjectMetadata) (outDir string, err error) {
	snap := snapshot{}
	defer func() {
		if rerr := snap.restore(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()

	if err := a.patchReactRouter(meta.Dir, a.BasePath(meta.Name), snap); err != nil {
		return "", err
	}

	manifestPath := filepath.Join(meta.Dir, project.ManifestFile)
	if err := snap.save(manifestPath); err != nil {
		return "", fmt.Errorf("read %s: %w", project.ManifestFile, err)
	}
	if err := project.SetManifestField(meta.Dir, "homepage", a.Homepage(meta.Name)); err != nil {
		return "", err
	}

	if err := a.runBuild(ctx, meta.Dir); err != nil {
		return "", err
	}

	switch {
	case dirExists(filepath.Join(meta.Dir, BuildDir)):
		if err := moveDir(meta.Dir, BuildDir, DistDir); err != nil {
			return "", err
		}
	case !dirExists(filepath.Join(meta.Dir, DistDir)):
		return "", ErrBuildFolderNotFound
	}
	return DistDir, nil
}

// patchReactRouter adds basename to every <BrowserRouter> that does not set one.
func (a *Adapter) patchReactRouter(dir, basename string, snap snapshot) error {
	for _, rel := range routerEntryFiles {
		path := filepath.Join(dir, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		patched := browserRouterTag.ReplaceAllFunc(data, func(tag []byte) []byte {
			if basenameAttr.Match(tag) {
				return tag
			}
			return append([]byte(fmt.Sprintf(`<BrowserRouter basename="%s"`, basename)), tag[len("<BrowserRouter"):]...)
		})
		if string(patched) == string(data) {
			continue
		}

		if err := snap.save(path); err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		if err := os.WriteFile(path, patched, 0644); err != nil {
			return fmt.Errorf("patch router in %s: %w", rel, err)
		}
		a.Notify.VerboseLog("Set router basename %s in %s", basename, rel)
	}
	return nil
}
