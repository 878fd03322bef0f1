package domain

import (
	"path/filepath"
	"strconv"
)

// ConfigFileName is the configuration file name in both the project and
// global config directories.
const ConfigFileName = "config.toml"

// goferDirName is the per-project state directory name.
const goferDirName = ".gofer"

// ProjectGoferDir returns the state directory for a project root.
func ProjectGoferDir(projectRoot string) string {
	return filepath.Join(projectRoot, goferDirName)
}

// GlobalGoferDir returns the global config directory under configHome.
func GlobalGoferDir(configHome string) string {
	return filepath.Join(configHome, "gofer")
}

// EventLogPath returns the append-only event log path.
func EventLogPath(goferDir string) string {
	return filepath.Join(goferDir, "events.jsonl")
}

// BacklogPath returns the backlog store path.
func BacklogPath(goferDir string) string {
	return filepath.Join(goferDir, "backlog.json")
}

// LogsDir returns the directory holding diagnostic log files.
func LogsDir(goferDir string) string {
	return filepath.Join(goferDir, "logs")
}

// GlobalLogPath returns the main diagnostic log file path.
func GlobalLogPath(goferDir string) string {
	return filepath.Join(LogsDir(goferDir), "gofer.log")
}

// BacklogLogPath returns the per-backlog diagnostic log file path.
func BacklogLogPath(goferDir string, backlogID int) string {
	return filepath.Join(LogsDir(goferDir), "backlog-"+strconv.Itoa(backlogID)+".log")
}
