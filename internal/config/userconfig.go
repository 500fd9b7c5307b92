package config

import (
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// UserConfig is the operator's optional config file, loaded from the
// XDG config directory (celld/config.toml). Every field has a working
// default; a missing file is not an error.
type UserConfig struct {
	Server ServerConfig `toml:"server"`
	Window WindowConfig `toml:"window"`
}

// ServerConfig holds listener and logging settings.
type ServerConfig struct {
	AppPort    int    `toml:"app_port"`    // application listener port (default: 6121)
	ClientPort int    `toml:"client_port"` // client listener port (default: 6123)
	LogLevel   string `toml:"log_level"`   // off, errors, basic, messages, trace (default: basic)
}

// WindowConfig holds window defaults applied when a create_window
// command omits the corresponding fields.
type WindowConfig struct {
	MinWidth      int    `toml:"min_width"`      // minimum window width (default: 10)
	MinHeight     int    `toml:"min_height"`     // minimum window height (default: 5)
	DefaultBorder string `toml:"default_border"` // none, single, double, rounded, heavy, ascii
	BorderFg      string `toml:"border_fg"`      // chrome color: ANSI index or #rrggbb (default: white)
	BorderBg      string `toml:"border_bg"`      // chrome color: ANSI index or #rrggbb (default: black)
}

// DefaultUserConfig returns the built-in defaults.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Server: ServerConfig{
			AppPort:    DefaultAppPort,
			ClientPort: DefaultClientPort,
			LogLevel:   "basic",
		},
		Window: WindowConfig{
			MinWidth:      DefaultMinWindowWidth,
			MinHeight:     DefaultMinWindowHeight,
			DefaultBorder: "single",
		},
	}
}

// LoadUserConfig loads celld/config.toml from the XDG config path,
// falling back to defaults when the file doesn't exist. A file that
// exists but can't be read or parsed is an error: silently running
// with defaults against a present-but-broken config is worse than
// failing startup.
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile("celld/config.toml")
	if err != nil {
		return DefaultUserConfig(), nil
	}

	// #nosec G304 - configPath comes from the XDG search, reading the
	// user's own config file is the point.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultUserConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.fillMissing()
	return cfg, nil
}

// ParseUserConfig parses TOML config bytes over the defaults.
func ParseUserConfig(data []byte) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fillMissing()
	return cfg, nil
}

// fillMissing resets zero-valued fields to their defaults, so a config
// file that sets only [server] log_level doesn't zero out the ports.
func (c *UserConfig) fillMissing() {
	def := DefaultUserConfig()
	if c.Server.AppPort == 0 {
		c.Server.AppPort = def.Server.AppPort
	}
	if c.Server.ClientPort == 0 {
		c.Server.ClientPort = def.Server.ClientPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Window.MinWidth == 0 {
		c.Window.MinWidth = def.Window.MinWidth
	}
	if c.Window.MinHeight == 0 {
		c.Window.MinHeight = def.Window.MinHeight
	}
	if c.Window.DefaultBorder == "" {
		c.Window.DefaultBorder = def.Window.DefaultBorder
	}
}
