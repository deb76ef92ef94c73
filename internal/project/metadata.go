// Package project loads and persists the local project descriptor: package.json,
// the dot-config file and command-line overrides.
package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/mdb/internal/models"
)

// Flags carries the command-line overrides for a publish.
type Flags struct {
	Name   string
	Domain string
}

// Load merges package.json, the dot-config named dotConfigName and flags for
// the project in dir. A missing hash is generated but not persisted.
func Load(dir, dotConfigName string, flags Flags) (*models.ProjectMetadata, error) {
	if flags.Name != "" {
		if err := ValidateName(flags.Name); err != nil {
			return nil, err
		}
	}
	if flags.Domain != "" {
		if err := ValidateDomain(flags.Domain); err != nil {
			return nil, err
		}
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	dot, err := LoadDotConfig(filepath.Join(dir, dotConfigName))
	if err != nil {
		return nil, err
	}

	var method models.PublishMethod
	if dot.PublishMethod != "" {
		if method, err = models.ParsePublishMethod(string(dot.PublishMethod)); err != nil {
			return nil, fmt.Errorf("%s: %w", dotConfigName, err)
		}
	}

	meta := &models.ProjectMetadata{
		Dir:           dir,
		Name:          firstNonEmpty(flags.Name, manifest.Name, dot.ProjectName, filepath.Base(dir)),
		PackageName:   firstNonEmpty(manifest.Name, dot.Starter),
		Domain:        firstNonEmpty(flags.Domain, dot.Domain),
		Hash:          dot.Hash,
		PublishMethod: method,
		Kind:          dot.Type,
		Starter:       dot.Starter,
		Technology:    dot.Platform,
		Dependencies:  manifest.Dependencies,
		BuildScript:   manifest.BuildScript,
		TestScript:    manifest.TestScript,
	}
	if meta.Kind == "" {
		meta.Kind = models.ProjectKindFrontend
	}
	if meta.Hash == "" {
		meta.Hash = NewHash()
	}
	return meta, nil
}

// Save writes meta to the dot-config. package.json is never modified, so a
// one-off --name override does not leak into the manifest.
func Save(meta *models.ProjectMetadata, dotConfigName string) error {
	path := filepath.Join(meta.Dir, dotConfigName)
	dot, err := LoadDotConfig(path)
	if err != nil {
		return err
	}

	dot.ProjectName = meta.Name
	dot.Domain = meta.Domain
	dot.Hash = meta.Hash
	dot.PublishMethod = meta.PublishMethod
	return SaveDotConfig(path, dot)
}

// SaveResolved persists a name or domain chosen to resolve a conflict and
// returns the files it changed, relative to meta.Dir. The manifest name is
// rewritten as well because it wins over the dot-config on the next Load.
func SaveResolved(meta *models.ProjectMetadata, dotConfigName string) ([]string, error) {
	dotPath := filepath.Join(meta.Dir, dotConfigName)
	manifestPath := filepath.Join(meta.Dir, ManifestFile)
	before := map[string][]byte{
		dotConfigName: readOrNil(dotPath),
		ManifestFile:  readOrNil(manifestPath),
	}

	if err := Save(meta, dotConfigName); err != nil {
		return nil, err
	}
	manifest, err := ReadManifest(meta.Dir)
	if err != nil {
		return nil, err
	}
	if manifest.Name != "" && manifest.Name != meta.Name {
		if err := SetManifestField(meta.Dir, "name", meta.Name); err != nil {
			return nil, err
		}
	}

	var changed []string
	for _, f := range []string{dotConfigName, ManifestFile} {
		if !bytes.Equal(before[f], readOrNil(filepath.Join(meta.Dir, f))) {
			changed = append(changed, f)
		}
	}
	return changed, nil
}

func readOrNil(path string) []byte {
	data, _ := os.ReadFile(path)
	return data
}

// NewHash returns a fresh identifier for the dot-config hash field.
func NewHash() string {
	return strings.ToLower(ulid.Make().String())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
