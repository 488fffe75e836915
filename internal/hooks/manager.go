// Package hooks installs the assistant-side hook script and listens for the
// events it reports over a dedicated Unix socket.
package hooks

import (
	"os"
	"path/filepath"
)

// ScriptName is the filename the hook script is installed under.
const ScriptName = "deckd-hook.sh"

// script is installed verbatim and invoked by the assistant's own hook
// lifecycle (PreToolUse, PostToolUse, Stop, Notification). It reports a
// single JSON line to the hook socket and always exits 0 so a reporting
// failure never blocks the assistant's own tool call.
const script = `#!/bin/bash
set -u

SESSION_ID="${AGENT_DECK_SESSION_ID:-}"
SOCKET_PATH="${AGENT_DECK_SOCKET:-}"

report_state() {
  local state="$1" event="$2"
  [ -z "$SOCKET_PATH" ] && return 0
  [ -z "$SESSION_ID" ] && return 0
  local ts
  ts=$(date +%s)
  printf '{"session_id":"%s","state":"%s","event":"%s","ts":%s}\n' \
    "$SESSION_ID" "$state" "$event" "$ts" | nc -U -w1 "$SOCKET_PATH" >/dev/null 2>&1
  return 0
}

case "${1:-}" in
  PreToolUse)
    report_state "waiting" "tool_approval"
    ;;
  PostToolUse)
    report_state "running" "tool_complete"
    ;;
  Stop)
    report_state "idle" "stopped"
    ;;
  Notification)
    ;;
esac

exit 0
`

// Manager installs the hook script into the daemon's shared hooks
// directory and builds the environment variables each assistant process
// needs to find it.
type Manager struct {
	hooksDir   string
	socketPath string
}

// NewManager returns a Manager that installs scripts under hooksDir and
// points them at socketPath.
func NewManager(hooksDir, socketPath string) *Manager {
	return &Manager{hooksDir: hooksDir, socketPath: socketPath}
}

// EnsureScript writes the hook script if it is not already present,
// returning its path. Safe to call repeatedly; it is idempotent.
func (m *Manager) EnsureScript() (string, error) {
	path := filepath.Join(m.hooksDir, ScriptName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// EnvVars returns the environment variables a spawned assistant process
// needs so its hook invocations can report back to this session.
func (m *Manager) EnvVars(sessionID string) map[string]string {
	return map[string]string{
		"CLAUDE_HOOKS_DIR":     m.hooksDir,
		"AGENT_DECK_SESSION_ID": sessionID,
		"AGENT_DECK_SOCKET":     m.socketPath,
	}
}
