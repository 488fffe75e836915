// Package paths resolves the daemon's on-disk layout: the data root, the
// two IPC sockets, and the subdirectories used for persisted catalog state
// and the installed hook script.
//
// Everything here is runtime configuration the daemon needs to find itself
// on disk. Parsing an external config.toml is a different, explicitly
// out-of-scope concern (see the front-end adapters this package does not
// try to be).
package paths

import (
	"os"
	"path/filepath"
)

// Layout is the resolved set of paths a running daemon uses.
type Layout struct {
	Root       string // data root, e.g. ~/.deckd
	StateDir   string // Root/state — sessions.json, groups.json, .bak
	HooksDir   string // Root/hooks — installed hook script
	LogsDir    string // Root/logs — reserved for future per-session logs
	Socket     string // Root/deckd.sock — primary IPC socket
	HookSocket string // Root/hooks.sock — hook event listener socket
}

// rootEnvVar overrides the default root directory.
const rootEnvVar = "DECKD_ROOT"

// logEnvVar selects stdlib log verbosity.
const logEnvVar = "DECKD_LOG"

// DefaultRoot returns $DECKD_ROOT if set, else $HOME/.deckd.
func DefaultRoot() (string, error) {
	if v := os.Getenv(rootEnvVar); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".deckd"), nil
}

// LogLevel returns the value of DECKD_LOG, defaulting to "info".
func LogLevel() string {
	if v := os.Getenv(logEnvVar); v != "" {
		return v
	}
	return "info"
}

// Resolve builds a Layout rooted at root and creates every subdirectory it
// names. It is idempotent — safe to call on every daemon startup.
func Resolve(root string) (*Layout, error) {
	l := &Layout{
		Root:       root,
		StateDir:   filepath.Join(root, "state"),
		HooksDir:   filepath.Join(root, "hooks"),
		LogsDir:    filepath.Join(root, "logs"),
		Socket:     filepath.Join(root, "deckd.sock"),
		HookSocket: filepath.Join(root, "hooks.sock"),
	}
	for _, dir := range []string{l.StateDir, l.HooksDir, l.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// SessionsFile returns the path of the sessions catalog JSON file.
func (l *Layout) SessionsFile() string { return filepath.Join(l.StateDir, "sessions.json") }

// GroupsFile returns the path of the groups catalog JSON file.
func (l *Layout) GroupsFile() string { return filepath.Join(l.StateDir, "groups.json") }
