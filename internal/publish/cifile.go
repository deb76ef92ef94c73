package publish

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CIFile is the pipeline definition the platform's CI runner picks up.
const CIFile = ".gitlab-ci.yml"

type ciJob struct {
	Stage  string   `yaml:"stage"`
	Image  string   `yaml:"image,omitempty"`
	Script []string `yaml:"script"`
	Only   []string `yaml:"only,omitempty"`
}

type ciConfig struct {
	Stages []string `yaml:"stages"`
	Test   *ciJob   `yaml:"test,omitempty"`
	Deploy *ciJob   `yaml:"deploy,omitempty"`
}

// RenderCIFile returns the pipeline definition. With a test script the
// pipeline runs the tests in a node container; otherwise it is a no-op stage.
func RenderCIFile(withTests bool, publicBranch string) ([]byte, error) {
	var cfg ciConfig
	if withTests {
		cfg = ciConfig{
			Stages: []string{"test"},
			Test: &ciJob{
				Stage:  "test",
				Image:  "node:lts",
				Script: []string{"npm ci", "npm test"},
				Only:   []string{publicBranch},
			},
		}
	} else {
		cfg = ciConfig{
			Stages: []string{"deploy"},
			Deploy: &ciJob{
				Stage:  "deploy",
				Script: []string{`echo "Deployment is handled by the platform"`},
				Only:   []string{publicBranch},
			},
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("render %s: %w", CIFile, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render %s: %w", CIFile, err)
	}
	return buf.Bytes(), nil
}

// ensureCIFile writes the pipeline definition into dir unless one exists.
// It reports whether the file was created.
func ensureCIFile(dir string, withTests bool, publicBranch string) (bool, error) {
	path := filepath.Join(dir, CIFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", CIFile, err)
	}

	data, err := RenderCIFile(withTests, publicBranch)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", CIFile, err)
	}
	return true, nil
}
