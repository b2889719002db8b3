package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/canopy-cli/internal/core/domain"
)

// Config holds filesystem connector configuration.
type Config struct {
	// Path is the root directory to expose.
	Path string

	// SkipHidden excludes dotfiles and dot-directories.
	SkipHidden bool

	// Extensions limits files to the given suffixes (optional).
	// Directories are always included.
	Extensions []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SkipHidden: true,
	}
}

// ParseConfig extracts configuration from a connection.
func ParseConfig(conn domain.Connection) (*Config, error) {
	cfg := DefaultConfig()

	cfg.Path = conn.Config["path"]
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: filesystem connection requires a path", domain.ErrInvalidInput)
	}
	cfg.Path = filepath.Clean(cfg.Path)

	if val := conn.Config["skip_hidden"]; val != "" {
		cfg.SkipHidden = val != "false"
	}

	if val := conn.Config["extensions"]; val != "" {
		for _, ext := range strings.Split(val, ",") {
			ext = strings.TrimSpace(ext)
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			cfg.Extensions = append(cfg.Extensions, ext)
		}
	}

	return cfg, nil
}

// matchesExtensions reports whether a file name passes the extension filter.
func (c *Config) matchesExtensions(name string) bool {
	if len(c.Extensions) == 0 {
		return true
	}
	for _, ext := range c.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
