// Package internal holds the application configuration shared by the CLI,
// the browse server, and the MCP server.
package internal

import (
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Repo  RepoConfig        `yaml:"repo"`
	Serve ServeConfig       `yaml:"serve"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	if err := c.Serve.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// RepoConfig locates the repository and seeds new papers.
type RepoConfig struct {
	// Default is the repository directory used when no --repo flag is given.
	Default string `yaml:"default"`
	// NotesTemplate is seeded as the notes body of every added paper.
	NotesTemplate string `yaml:"notes_template"`
	// NotesTemplateFile, when set, is read instead of NotesTemplate.
	NotesTemplateFile string `yaml:"notes_template_file"`
	// DefaultTags are merged into every added paper.
	DefaultTags []string `yaml:"default_tags"`
	// DefaultLabels are merged into every added paper.
	DefaultLabels map[string]any `yaml:"default_labels"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Default, validation.Required),
	)
}

// Template resolves the notes template, reading the file variant if set.
func (c *RepoConfig) Template() (string, error) {
	if c.NotesTemplateFile == "" {
		return c.NotesTemplate, nil
	}
	data, err := os.ReadFile(c.NotesTemplateFile)
	if err != nil {
		return "", fmt.Errorf("read notes template: %w", err)
	}
	return string(data), nil
}

// ServeConfig holds the browse server configuration.
type ServeConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP listen address.
func (c *ServeConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the serve configuration.
func (c *ServeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration for the browse server.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Repo: RepoConfig{
			Default: home + "/papers",
		},
		Serve: ServeConfig{
			Port: 8080,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
