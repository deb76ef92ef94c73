package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/mdb/internal/git"
	"github.com/joescharf/mdb/internal/output"
)

var cloneCmd = &cobra.Command{
	Use:   "clone <url> [name]",
	Short: "Clone a project repository from the platform's git host",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		return cloneRun(args[0], name)
	},
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}

func cloneRun(url, name string) error {
	if name == "" {
		name = repoName(url)
	}
	if name == "" {
		return fmt.Errorf("cannot derive a directory name from %s", url)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	target := filepath.Join(cwd, name)
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	if dryRun {
		ui.DryRunMsg("Would clone %s into %s", url, target)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gc := git.NewClient(cwd, cfg.GitHost)
	gc.Logf = ui.VerboseLog
	if err := gc.Clone(url, name); err != nil {
		return err
	}
	ui.Success("Cloned into %s", output.Cyan(name))
	return nil
}

// repoName derives a directory name from an https or scp-style git URL.
func repoName(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, ":"); i >= 0 && !strings.Contains(url, "://") {
		url = url[i+1:]
	}
	name := strings.TrimSuffix(path.Base(url), ".git")
	if name == "." || name == "/" {
		return ""
	}
	return name
}
