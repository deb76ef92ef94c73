package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ManifestFile is the package manifest at the project root.
const ManifestFile = "package.json"

// Manifest is the subset of package.json the publish flow cares about.
type Manifest struct {
	Exists       bool
	Name         string
	BuildScript  string
	TestScript   string
	Homepage     string
	Dependencies map[string]string // dependencies and devDependencies merged
}

// ReadManifest parses package.json in dir. A missing file yields an empty
// Manifest and no error.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{Dependencies: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses raw package.json bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse %s: invalid JSON", ManifestFile)
	}
	r := gjson.ParseBytes(data)

	m := &Manifest{
		Exists:       true,
		Name:         r.Get("name").String(),
		BuildScript:  r.Get("scripts.build").String(),
		TestScript:   r.Get("scripts.test").String(),
		Homepage:     r.Get("homepage").String(),
		Dependencies: map[string]string{},
	}
	for _, key := range []string{"dependencies", "devDependencies"} {
		r.Get(key).ForEach(func(k, v gjson.Result) bool {
			m.Dependencies[k.String()] = v.String()
			return true
		})
	}
	return m, nil
}

// SetManifestField writes a top-level string field into package.json in dir,
// leaving every other byte of the file untouched. An empty value removes the field.
func SetManifestField(dir, field, value string) error {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", ManifestFile, err)
	}

	if value == "" {
		data, err = sjson.DeleteBytes(data, field)
	} else {
		data, err = sjson.SetBytes(data, field, value)
	}
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", ManifestFile, field, err)
	}
	return writeFilePreservingMode(path, data)
}

func writeFilePreservingMode(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
