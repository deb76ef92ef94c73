package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PackageManager runs the project's build script.
type PackageManager interface {
	Build(ctx context.Context, dir string) (string, error)
}

// ExecPackageManager runs "<Name> run build" as a subprocess.
type ExecPackageManager struct {
	Name   string
	Output io.Writer // live build output; nil discards it
}

// Build runs the build script in dir and returns its combined output.
func (p *ExecPackageManager) Build(ctx context.Context, dir string) (string, error) {
	var buf bytes.Buffer
	w := io.Writer(&buf)
	if p.Output != nil {
		w = io.MultiWriter(&buf, p.Output)
	}

	cmd := exec.CommandContext(ctx, p.Name, "run", "build")
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s run build: %w", p.Name, err)
	}
	return buf.String(), nil
}

// lockfiles maps lockfile names to the package manager that writes them,
// checked in order.
var lockfiles = []struct {
	file string
	name string
}{
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"bun.lockb", "bun"},
	{"bun.lock", "bun"},
	{"package-lock.json", "npm"},
}

// DetectPackageManager returns the package manager name used in dir, based on
// lockfiles. Projects without a lockfile use npm.
func DetectPackageManager(dir string) string {
	for _, lf := range lockfiles {
		if fileExists(filepath.Join(dir, lf.file)) {
			return lf.name
		}
	}
	return "npm"
}

// NewPackageManager returns an ExecPackageManager for the project in dir.
func NewPackageManager(dir string, output io.Writer) *ExecPackageManager {
	return &ExecPackageManager{Name: DetectPackageManager(dir), Output: output}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// lastLines trims build output to its tail for error messages.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
