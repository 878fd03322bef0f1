package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestLoader_DefaultsWhenNoFiles(t *testing.T) {
	l := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.Agent.Command)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Retry.DelaySeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Git.AutoCommit)
}

func TestLoader_ProjectOverridesGlobal(t *testing.T) {
	goferDir := t.TempDir()
	globalDir := t.TempDir()

	writeConfig(t, globalDir, `
[agent]
command = "claude"
model = "global-model"

[test]
command = "npm test"
`)
	writeConfig(t, goferDir, `
[agent]
model = "project-model"

[git]
auto_commit = true
`)

	cfg, err := NewLoaderWithGlobalDir(goferDir, globalDir).Load()
	require.NoError(t, err)
	assert.Equal(t, "project-model", cfg.Agent.Model)
	assert.Equal(t, "npm test", cfg.Test.Command, "global value survives when project is silent")
	assert.True(t, cfg.Git.AutoCommit)
}

func TestLoader_AllSections(t *testing.T) {
	goferDir := t.TempDir()
	writeConfig(t, goferDir, `
[agent]
command = "myagent"
args = "--print"
timeout_seconds = 120

[retry]
max_attempts = 5
delay_seconds = 2

[install]
command = "npm install"

[serve]
command = "npm run dev"

[log]
level = "debug"
`)

	cfg, err := NewLoaderWithGlobalDir(goferDir, t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, "myagent", cfg.Agent.Command)
	assert.Equal(t, "--print", cfg.Agent.Args)
	assert.Equal(t, 120, cfg.Agent.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2, cfg.Retry.DelaySeconds)
	assert.Equal(t, "npm install", cfg.Install.Command)
	assert.Equal(t, "npm run dev", cfg.Serve.Command)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_UnknownKeysWarn(t *testing.T) {
	goferDir := t.TempDir()
	writeConfig(t, goferDir, `
[agent]
comand = "typo"

[mystery]
key = 1
`)

	cfg, err := NewLoaderWithGlobalDir(goferDir, t.TempDir()).Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.Warnings, "unknown key in [agent]: comand")
	assert.Contains(t, cfg.Warnings, "unknown section: mystery")
}

func TestLoader_MalformedTOML(t *testing.T) {
	goferDir := t.TempDir()
	writeConfig(t, goferDir, "not [valid toml")

	_, err := NewLoaderWithGlobalDir(goferDir, t.TempDir()).Load()
	assert.Error(t, err)
}
