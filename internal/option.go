package internal

// Option is a functional option for configuring the browse server.
type Option func(*application)

type application struct {
	config   *Config
	repoRoot string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithRepoRoot overrides the repository root from the config.
func WithRepoRoot(root string) Option {
	return func(a *application) {
		a.repoRoot = root
	}
}
