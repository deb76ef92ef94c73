package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/mdb/internal/api"
	"github.com/joescharf/mdb/internal/archive"
	"github.com/joescharf/mdb/internal/build"
	"github.com/joescharf/mdb/internal/config"
	"github.com/joescharf/mdb/internal/git"
	"github.com/joescharf/mdb/internal/models"
	"github.com/joescharf/mdb/internal/output"
	"github.com/joescharf/mdb/internal/project"
	"github.com/joescharf/mdb/internal/prompt"
	"github.com/joescharf/mdb/internal/publish"
)

var (
	publishMethod string
	publishName   string
	publishDomain string
)

// newPrompter returns the interactive prompter, replaceable in tests.
var newPrompter = func() prompt.Prompter { return prompt.NewTerminal() }

var publishCmd = &cobra.Command{
	Use:   "publish [dir]",
	Short: "Publish the project in the current directory",
	Long: `Publish a project to the MDB platform.

The ftp method builds front-end projects and uploads an archive of the
output. The pipeline method commits a CI definition, merges into the public
branch and pushes, letting the platform's CI runner deploy.

Without --method the method saved in the project's dot-config is used. A
project hosted on the platform's git host without a saved method asks which
one to use; any other project is published with ftp.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return publishRun(cmd.Context(), dir)
	},
}

func init() {
	publishCmd.Flags().StringVarP(&publishMethod, "method", "m", "", "Publish method: ftp or pipeline")
	publishCmd.Flags().StringVar(&publishName, "name", "", "Override the project name")
	publishCmd.Flags().StringVar(&publishDomain, "domain", "", "Custom domain to serve the project under")
	rootCmd.AddCommand(publishCmd)
}

func publishRun(ctx context.Context, dir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := requireDir(absDir); err != nil {
		return err
	}

	var flagMethod models.PublishMethod
	if publishMethod != "" {
		if flagMethod, err = models.ParsePublishMethod(publishMethod); err != nil {
			return err
		}
	}

	meta, err := project.Load(absDir, cfg.DotConfigFile, project.Flags{Name: publishName, Domain: publishDomain})
	if err != nil {
		return err
	}

	gc := git.NewClient(absDir, cfg.GitHost)
	gc.Logf = ui.VerboseLog
	if !verbose {
		gc.Runner = &git.ExecRunner{Stdout: io.Discard, Stderr: io.Discard}
	}

	prompter := newPrompter()
	method, err := publish.ResolveMethod(flagMethod, meta.PublishMethod, gc.RemoteURL(), prompter)
	if err != nil {
		return err
	}

	ui.VerboseLog("Project %s (%s) in %s", meta.Name, meta.Kind, meta.Dir)
	if dryRun {
		ui.DryRunMsg("Would publish %s using %s", output.Cyan(meta.Name), method)
		if meta.Domain != "" {
			ui.DryRunMsg("Custom domain: %s", meta.Domain)
		}
		if method == models.PublishMethodPipeline {
			ui.DryRunMsg("Would push to %s on %s", cfg.PublicBranch, gc.RemoteURL())
		} else {
			ui.DryRunMsg("Would upload %s", meta.Dir)
			ui.DryRunMsg("Excluding %s", strings.Join(archive.DefaultExcludes(cfg.DotConfigFile), ", "))
		}
		return nil
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Token)
	client.Logf = ui.VerboseLog

	var strategy publish.Strategy
	switch method {
	case models.PublishMethodPipeline:
		strategy = &publish.PipelineStrategy{
			Git:           gc,
			API:           client,
			Prompt:        prompter,
			Notify:        ui,
			Save:          func(m *models.ProjectMetadata) error { return project.Save(m, cfg.DotConfigFile) },
			PublicBranch:  cfg.PublicBranch,
			DotConfigFile: cfg.DotConfigFile,
		}
	default:
		// Pipeline publishes commit the dot-config themselves.
		if err := persistNewHash(meta, cfg.DotConfigFile); err != nil {
			return err
		}
		strategy = newFtpStrategy(cfg, meta, client)
	}

	coordinator := &publish.Coordinator{
		Strategy: strategy,
		Prompt:   prompter,
		Save: func(m *models.ProjectMetadata) ([]string, error) {
			return project.SaveResolved(m, cfg.DotConfigFile)
		},
		Notify: ui,
	}
	if s, err := getStore(); err != nil {
		ui.Warning("Publish history disabled: %v", err)
	} else {
		coordinator.History = s
	}

	res, err := coordinator.Publish(ctx, meta)
	ui.ProgressDone()
	if err != nil {
		return err
	}

	if res.Message != "" {
		ui.Success("%s", res.Message)
	} else {
		ui.Success("Published %s", meta.Name)
	}
	if res.URL != "" {
		fmt.Fprintf(ui.Out, "  %s\n", output.Cyan(res.URL))
	}
	return nil
}

func newFtpStrategy(cfg config.Config, meta *models.ProjectMetadata, client *api.Client) *publish.FtpStrategy {
	var buildOut io.Writer
	if verbose {
		buildOut = ui.Out
	}
	return &publish.FtpStrategy{
		Builder: &build.Adapter{
			PM:       build.NewPackageManager(meta.Dir, buildOut),
			Notify:   ui,
			BasePath: cfg.PreviewPath,
			Homepage: cfg.PreviewURL,
		},
		Sender: &archive.Transport{
			Excludes: archive.DefaultExcludes(cfg.DotConfigFile),
			Progress: ui.Progress,
			Warn:     func(err error) { ui.Warning("%v", err) },
		},
		API:    client,
		Notify: ui,
	}
}

// persistNewHash writes the dot-config the first time a project is published
// so the generated hash is stable across runs.
func persistNewHash(meta *models.ProjectMetadata, dotConfigName string) error {
	dot, err := project.LoadDotConfig(filepath.Join(meta.Dir, dotConfigName))
	if err != nil {
		return err
	}
	if dot.Hash != "" {
		return nil
	}
	ui.VerboseLog("Creating %s", dotConfigName)
	return project.Save(meta, dotConfigName)
}

// requireDir fails when path is not an existing directory.
func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
