package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/gjson"

	"github.com/joescharf/mdb/internal/models"
)

const angularWorkspaceFile = "angular.json"

var baseHrefTag = regexp.MustCompile(`<base\s+href="/[^"]*"\s*/?>`)

func (a *Adapter) buildAngular(ctx context.Context, meta *models.ProjectMetadata) (string, error) {
	outputPath, err := angularOutputPath(meta.Dir, meta.Name)
	if err != nil {
		return "", err
	}
	a.Notify.VerboseLog("Angular output path: %s", outputPath)

	if err := a.runBuild(ctx, meta.Dir); err != nil {
		return "", err
	}

	// Angular 17+ application builder nests the site under browser/.
	if fileExists(filepath.Join(meta.Dir, outputPath, "browser", "index.html")) {
		outputPath = filepath.Join(outputPath, "browser")
	}

	if err := relativizeBaseHref(filepath.Join(meta.Dir, outputPath, "index.html")); err != nil {
		return "", err
	}
	if err := moveDir(meta.Dir, outputPath, BuildDir); err != nil {
		return "", err
	}
	if err := moveDir(meta.Dir, BuildDir, DistDir); err != nil {
		return "", err
	}
	return DistDir, nil
}

// angularOutputPath reads the build output folder from angular.json. It prefers
// the defaultProject, then a project named like the package, then the first one.
func angularOutputPath(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, angularWorkspaceFile))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", angularWorkspaceFile, err)
	}
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("parse %s: invalid JSON", angularWorkspaceFile)
	}
	ws := gjson.ParseBytes(data)

	projects := ws.Get("projects")
	var project gjson.Result
	for _, key := range []string{ws.Get("defaultProject").String(), name} {
		if key == "" {
			continue
		}
		if p := projects.Get(gjson.Escape(key)); p.Exists() {
			project = p
			break
		}
	}
	if !project.Exists() {
		projects.ForEach(func(_, v gjson.Result) bool {
			project = v
			return false
		})
	}
	if !project.Exists() {
		return "", fmt.Errorf("%s declares no projects", angularWorkspaceFile)
	}

	out := project.Get("architect.build.options.outputPath")
	if out.IsObject() {
		out = out.Get("base")
	}
	if out.String() == "" {
		return "", fmt.Errorf("%s: no build outputPath configured", angularWorkspaceFile)
	}
	return filepath.Clean(out.String()), nil
}

// relativizeBaseHref rewrites an absolute <base href> to "./" so the site works
// under any sub-path.
func relativizeBaseHref(indexPath string) error {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return fmt.Errorf("read built index.html: %w", err)
	}
	patched := baseHrefTag.ReplaceAll(data, []byte(`<base href="./">`))
	if err := os.WriteFile(indexPath, patched, 0644); err != nil {
		return fmt.Errorf("write built index.html: %w", err)
	}
	return nil
}
