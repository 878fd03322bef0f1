// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	goferDir      string // Path to the project's .gofer directory
	globalConfDir string // Path to global config directory (e.g., ~/.config/gofer)
}

// NewLoader creates a new Loader.
func NewLoader(goferDir string) *Loader {
	return &Loader{
		goferDir:      goferDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config
// directory. This is useful for testing.
func NewLoaderWithGlobalDir(goferDir, globalConfDir string) *Loader {
	return &Loader{
		goferDir:      goferDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalGoferDir(configHome)
}

// Load returns the merged configuration (project + global).
// Project config takes precedence over global config.
func (l *Loader) Load() (*domain.Config, error) {
	var global *domain.Config
	if l.globalConfDir != "" {
		var err error
		global, err = l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	project, err := l.loadFile(filepath.Join(l.goferDir, domain.ConfigFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if project != nil {
		base = mergeConfigs(base, project)
	}
	return base, nil
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and
// collects unknown-key warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	str := func(v any) (string, bool) { s, ok := v.(string); return s, ok }
	num := func(v any) (int, bool) {
		switch n := v.(type) {
		case int64:
			return int(n), true
		case int:
			return n, true
		case float64:
			return int(n), true
		}
		return 0, false
	}

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		switch section {
		case "agent":
			for k, v := range m {
				switch k {
				case "command":
					if s, ok := str(v); ok {
						res.Agent.Command = s
					}
				case "args":
					if s, ok := str(v); ok {
						res.Agent.Args = s
					}
				case "model":
					if s, ok := str(v); ok {
						res.Agent.Model = s
					}
				case "timeout_seconds":
					if n, ok := num(v); ok {
						res.Agent.TimeoutSeconds = n
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [agent]: %s", k))
				}
			}
		case "retry":
			for k, v := range m {
				switch k {
				case "max_attempts":
					if n, ok := num(v); ok {
						res.Retry.MaxAttempts = n
					}
				case "delay_seconds":
					if n, ok := num(v); ok {
						res.Retry.DelaySeconds = n
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [retry]: %s", k))
				}
			}
		case "test":
			for k, v := range m {
				switch k {
				case "command":
					if s, ok := str(v); ok {
						res.Test.Command = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [test]: %s", k))
				}
			}
		case "install":
			for k, v := range m {
				switch k {
				case "command":
					if s, ok := str(v); ok {
						res.Install.Command = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [install]: %s", k))
				}
			}
		case "git":
			for k, v := range m {
				switch k {
				case "auto_commit":
					if b, ok := v.(bool); ok {
						res.Git.AutoCommit = b
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [git]: %s", k))
				}
			}
		case "serve":
			for k, v := range m {
				switch k {
				case "command":
					if s, ok := str(v); ok {
						res.Serve.Command = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [serve]: %s", k))
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := str(v); ok {
						res.Log.Level = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := *base
	result.Warnings = append(append([]string{}, base.Warnings...), override.Warnings...)

	if override.Agent.Command != "" {
		result.Agent.Command = override.Agent.Command
	}
	if override.Agent.Args != "" {
		result.Agent.Args = override.Agent.Args
	}
	if override.Agent.Model != "" {
		result.Agent.Model = override.Agent.Model
	}
	if override.Agent.TimeoutSeconds != 0 {
		result.Agent.TimeoutSeconds = override.Agent.TimeoutSeconds
	}
	if override.Retry.MaxAttempts != 0 {
		result.Retry.MaxAttempts = override.Retry.MaxAttempts
	}
	if override.Retry.DelaySeconds != 0 {
		result.Retry.DelaySeconds = override.Retry.DelaySeconds
	}
	if override.Test.Command != "" {
		result.Test.Command = override.Test.Command
	}
	if override.Install.Command != "" {
		result.Install.Command = override.Install.Command
	}
	if override.Git.AutoCommit {
		result.Git.AutoCommit = true
	}
	if override.Serve.Command != "" {
		result.Serve.Command = override.Serve.Command
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	return &result
}
