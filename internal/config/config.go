// Package config holds the immutable settings passed through a publish invocation.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config is built once per process from viper and handed to every collaborator.
type Config struct {
	APIBaseURL      string
	Token           string
	GitHost         string // known platform git host prefix
	PublicBranch    string
	PreviewBaseURL  string
	PreviewUsername string
	DotConfigFile   string
	DBPath          string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:     "https://apps-backend.mdbgo.com",
		GitHost:        "https://git.mdbgo.com/",
		PublicBranch:   "public",
		PreviewBaseURL: "https://mdbgo.io",
		DotConfigFile:  ".mdb",
	}
}

// SetDefaults registers the viper defaults for every config key.
func SetDefaults(v *viper.Viper, stateDir string) {
	d := Defaults()
	v.SetDefault("api.base_url", d.APIBaseURL)
	v.SetDefault("api.token", "")
	v.SetDefault("git.host", d.GitHost)
	v.SetDefault("git.public_branch", d.PublicBranch)
	v.SetDefault("preview.base_url", d.PreviewBaseURL)
	v.SetDefault("preview.username", "")
	v.SetDefault("project.dot_config", d.DotConfigFile)
	v.SetDefault("state_dir", stateDir)
	v.SetDefault("db_path", stateDir+"/mdb.db")
}

// FromViper reads a Config out of v and validates it.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		APIBaseURL:      strings.TrimRight(v.GetString("api.base_url"), "/"),
		Token:           v.GetString("api.token"),
		GitHost:         v.GetString("git.host"),
		PublicBranch:    v.GetString("git.public_branch"),
		PreviewBaseURL:  strings.TrimRight(v.GetString("preview.base_url"), "/"),
		PreviewUsername: v.GetString("preview.username"),
		DotConfigFile:   v.GetString("project.dot_config"),
		DBPath:          v.GetString("db_path"),
	}
	return c, c.Validate()
}

// Validate checks that required fields are present and well formed.
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("invalid api.base_url %q: %w", c.APIBaseURL, err)
	}
	if c.GitHost == "" {
		return fmt.Errorf("git.host must not be empty")
	}
	if c.PublicBranch == "" {
		return fmt.Errorf("git.public_branch must not be empty")
	}
	if c.DotConfigFile == "" {
		return fmt.Errorf("project.dot_config must not be empty")
	}
	return nil
}

// PreviewURL returns the URL under which a project is served on the platform,
// always with a trailing slash.
func (c Config) PreviewURL(projectName string) string {
	return c.PreviewBaseURL + c.PreviewPath(projectName) + "/"
}

// PreviewPath returns the absolute path component of PreviewURL without a trailing slash.
func (c Config) PreviewPath(projectName string) string {
	if c.PreviewUsername == "" {
		return "/" + projectName
	}
	return "/" + c.PreviewUsername + "/" + projectName
}
