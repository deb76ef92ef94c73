package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joescharf/mdb/internal/models"
)

var vueConfigFiles = []string{"vue.config.js", "vue.config.cjs", "vue.config.mjs", "vue.config.ts"}

const vueConfigTemplate = `module.exports = {
  publicPath: '.'
}
`

func (a *Adapter) buildVue(ctx context.Context, meta *models.ProjectMetadata) (string, error) {
	if err := ensureVueConfig(meta.Dir); err != nil {
		return "", err
	}
	if err := a.runBuild(ctx, meta.Dir); err != nil {
		return "", err
	}
	return DistDir, nil
}

// ensureVueConfig writes a minimal vue.config.js unless one already exists.
func ensureVueConfig(dir string) error {
	for _, name := range vueConfigFiles {
		if fileExists(filepath.Join(dir, name)) {
			return nil
		}
	}
	if err := os.WriteFile(filepath.Join(dir, vueConfigFiles[0]), []byte(vueConfigTemplate), 0644); err != nil {
		return fmt.Errorf("write %s: %w", vueConfigFiles[0], err)
	}
	return nil
}
