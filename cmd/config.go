package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mdb"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage mdb configuration.

Running bare 'mdb config' is the same as 'mdb config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# mdb configuration
# See: mdb config show (for effective values and sources)

# State/data directory (default: ~/.config/mdb)
# state_dir: {{ .StateDir }}

# SQLite publish history (default: ~/.config/mdb/mdb.db)
# db_path: {{ .DBPath }}

api:
  # Platform API endpoint
  base_url: "{{ .APIBaseURL }}"

  # Bearer token sent with every request (or set MDB_API_TOKEN)
  token: ""

git:
  # Remotes starting with this prefix are hosted on the platform
  host: "{{ .GitHost }}"

  # Branch the CI pipeline deploys from
  public_branch: "{{ .PublicBranch }}"

preview:
  # Base URL projects are served under
  base_url: "{{ .PreviewBaseURL }}"

  # Account name used in the preview path
  username: "{{ .PreviewUsername }}"

project:
  # Per-project settings file in the project root
  dot_config: "{{ .DotConfig }}"
`

type configTemplateData struct {
	StateDir        string
	DBPath          string
	APIBaseURL      string
	GitHost         string
	PublicBranch    string
	PreviewBaseURL  string
	PreviewUsername string
	DotConfig       string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data := configTemplateData{
		StateDir:        viper.GetString("state_dir"),
		DBPath:          viper.GetString("db_path"),
		APIBaseURL:      viper.GetString("api.base_url"),
		GitHost:         viper.GetString("git.host"),
		PublicBranch:    viper.GetString("git.public_branch"),
		PreviewBaseURL:  viper.GetString("preview.base_url"),
		PreviewUsername: viper.GetString("preview.username"),
		DotConfig:       viper.GetString("project.dot_config"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// secretKeys are masked by config show.
var secretKeys = map[string]bool{"api.token": true}

var configKeys = []string{
	"state_dir",
	"db_path",
	"api.base_url",
	"api.token",
	"git.host",
	"git.public_branch",
	"preview.base_url",
	"preview.username",
	"project.dot_config",
}

func configShowRun() error {
	if used := viper.ConfigFileUsed(); used != "" {
		ui.Info("Config file: %s", used)
	} else {
		ui.Info("Config file: (none)")
	}

	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, key := range configKeys {
		val := viper.GetString(key)
		if secretKeys[key] && val != "" {
			val = "********"
		}
		table.Append([]string{key, val, detectSource(key)})
	}
	table.Render()
	return nil
}

// detectSource reports whether key comes from the environment, the config
// file, or the built-in defaults.
func detectSource(key string) string {
	envVar := "MDB_" + strings.ToUpper(envKeyReplacer.Replace(key))
	if _, ok := os.LookupEnv(envVar); ok {
		return "env: " + envVar
	}
	if viper.InConfig(key) {
		return "file"
	}
	return "default"
}
