package tui

import "time"

const defaultRefreshInterval = 60 * time.Second

type config struct {
	styles          Styles
	outDir          string
	refreshInterval time.Duration
}

func defaultConfig() config {
	return config{
		styles:          DefaultStyles(),
		outDir:          ".",
		refreshInterval: defaultRefreshInterval,
	}
}

// Option configures the model.
type Option func(*config)

// WithStyles replaces the palette.
func WithStyles(s Styles) Option {
	return func(c *config) { c.styles = s }
}

// WithOutputDir sets where exported PDFs are written.
func WithOutputDir(dir string) Option {
	return func(c *config) {
		if dir != "" {
			c.outDir = dir
		}
	}
}

// WithRefreshInterval sets how often the UI pulls on its own.
// Zero or negative disables the periodic pull.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *config) { c.refreshInterval = d }
}
