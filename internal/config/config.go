// Package config loads backlog settings from JSONC files and CLI overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/Bouaris/ticketflow/internal/backlog"
)

// Error variables for configuration loading.
var (
	ErrFileNotFound     = errors.New("config file not found")
	ErrFileRead         = errors.New("cannot read config file")
	ErrInvalid          = errors.New("invalid config file")
	ErrBacklogFileEmpty = errors.New("backlog-file cannot be empty")
	ErrWordWrap         = errors.New("word_wrap must be non-negative")
	ErrCustomType       = errors.New("invalid custom type")
)

// FileName is the project config file looked up in the working directory.
const FileName = ".backlog.json"

// Defaults.
const (
	DefaultBacklogFile = "BACKLOG.md"
	DefaultRenderStyle = "auto"
	DefaultWordWrap    = 100
)

// Config holds all configuration options.
type Config struct {
	BacklogFile string   `json:"backlog_file"`
	CustomTypes []string `json:"custom_types,omitempty"`
	RenderStyle string   `json:"render_style,omitempty"`
	WordWrap    *int     `json:"word_wrap,omitempty"`

	// Resolved (not serialized)
	EffectiveCwd   string  `json:"-"`
	BacklogFileAbs string  `json:"-"`
	Sources        Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string
	Project string
}

// Default returns the default configuration.
func Default() Config {
	wrap := DefaultWordWrap

	return Config{
		BacklogFile: DefaultBacklogFile,
		RenderStyle: DefaultRenderStyle,
		WordWrap:    &wrap,
	}
}

// Wrap returns the configured word wrap width.
func (c Config) Wrap() int {
	if c.WordWrap == nil {
		return DefaultWordWrap
	}

	return *c.WordWrap
}

// ItemTypes returns the custom types as item types.
func (c Config) ItemTypes() []backlog.ItemType {
	out := make([]backlog.ItemType, 0, len(c.CustomTypes))
	for _, t := range c.CustomTypes {
		out = append(out, backlog.ItemType(strings.ToUpper(t)))
	}

	return out
}

// Input holds the inputs for [Load].
type Input struct {
	WorkDirOverride     string            // -C/--cwd
	ConfigPath          string            // -c/--config
	BacklogFileOverride *string           // -f/--file, nil when not given
	Env                 map[string]string // environment variables
}

// globalPath returns $XDG_CONFIG_HOME/backlog/config.json or
// ~/.config/backlog/config.json, or "" when neither can be determined.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "backlog", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "backlog", "config.json")
	}

	return ""
}

// Load resolves the configuration with the following precedence (highest
// wins):
//  1. Defaults
//  2. Global user config
//  3. Project config (.backlog.json) or the explicit file from -c
//  4. CLI overrides
//
// Paths in the returned Config are absolute.
func Load(input Input) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolving working directory: %w", err)
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		globalCfg, loaded, loadErr := loadFile(path, false)
		if loadErr != nil {
			return Config{}, loadErr
		}

		if loaded {
			cfg.Sources.Global = path
			cfg = merge(cfg, globalCfg)
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false
	if input.ConfigPath != "" {
		projectPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}

		if _, statErr := os.Stat(projectPath); statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrFileNotFound, input.ConfigPath)
		}
	}

	projectCfg, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = projectPath
		cfg = merge(cfg, projectCfg)
	}

	if input.BacklogFileOverride != nil {
		cfg.BacklogFile = *input.BacklogFileOverride
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	cfg.BacklogFileAbs = cfg.BacklogFile
	if !filepath.IsAbs(cfg.BacklogFileAbs) {
		cfg.BacklogFileAbs = filepath.Join(workDir, cfg.BacklogFile)
	}

	return cfg, nil
}

// fileConfig is one parsed file. emptyFile records an explicit
// "backlog_file": "", which is an error rather than "not set".
type fileConfig struct {
	Config

	emptyFile bool
}

// loadFile reads and parses one config file. A missing optional file is
// not an error.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrFileRead, path)
		}

		return fileConfig{}, false, nil
	}

	parsed, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	if parsed.emptyFile {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, ErrBacklogFileEmpty)
	}

	return parsed, true, nil
}

// parse decodes JSONC config data (comments and trailing commas allowed).
func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var out fileConfig

	if err := json.Unmarshal(standardized, &out.Config); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, ok := raw["backlog_file"].(string); ok && val == "" {
		out.emptyFile = true
	}

	return out, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.BacklogFile != "" {
		base.BacklogFile = overlay.BacklogFile
	}

	if overlay.RenderStyle != "" {
		base.RenderStyle = overlay.RenderStyle
	}

	if overlay.WordWrap != nil {
		wrap := *overlay.WordWrap
		base.WordWrap = &wrap
	}

	for _, t := range overlay.CustomTypes {
		if !containsFold(base.CustomTypes, t) {
			base.CustomTypes = append(base.CustomTypes, t)
		}
	}

	return base
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}

	return false
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.BacklogFile) == "" {
		return ErrBacklogFileEmpty
	}

	if cfg.Wrap() < 0 {
		return fmt.Errorf("%w: %d", ErrWordWrap, cfg.Wrap())
	}

	for _, t := range cfg.CustomTypes {
		if !isTypeCode(t) {
			return fmt.Errorf("%w: %q", ErrCustomType, t)
		}
	}

	return nil
}

// isTypeCode reports whether t can be used as an id prefix.
func isTypeCode(t string) bool {
	if t == "" {
		return false
	}

	for i, r := range strings.ToUpper(t) {
		switch {
		case r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_'):
		default:
			return false
		}
	}

	return true
}

// Format renders the user-settable fields as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
