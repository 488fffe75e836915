// Package assistant locates the supervised assistant binary and builds the
// curated environment it runs under inside a PTY.
package assistant

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// BinaryName is the executable the daemon looks for and spawns.
const BinaryName = "claude"

// envVarsToRemove lists CI-detection variables that would push the
// assistant into a non-interactive mode if left in its environment.
var envVarsToRemove = []string{
	"CI", "CONTINUOUS_INTEGRATION", "BUILD_NUMBER", "BUILD_ID",
	"GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL",
	"HUDSON_URL", "BUILDKITE", "TEAMCITY_VERSION", "BITBUCKET_COMMIT",
	"CODEBUILD_BUILD_ARN", "DRONE", "VERCEL", "NETLIFY", "RENDER",
	"SEMAPHORE", "APPVEYOR", "TF_BUILD",
}

// Resolver caches the resolved path to the assistant binary.
type Resolver struct {
	path string // "" if not found
}

// New resolves the assistant binary immediately so Available and Path never
// need to re-probe the filesystem.
func New() *Resolver {
	return &Resolver{path: find()}
}

// Path returns the resolved binary path, or "" if none was found.
func (r *Resolver) Path() string { return r.path }

// Available reports whether a usable binary path was found.
func (r *Resolver) Available() bool { return r.path != "" }

func find() string {
	if p, err := exec.LookPath(BinaryName); err == nil {
		return p
	}

	home, _ := os.UserHomeDir()
	var candidates []string
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local/bin", BinaryName),
			filepath.Join(home, ".npm-global/bin", BinaryName),
			filepath.Join(home, ".cargo/bin", BinaryName),
		)
	}
	candidates = append(candidates,
		filepath.Join("/opt/homebrew/bin", BinaryName),
		filepath.Join("/usr/local/bin", BinaryName),
	)
	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c
		}
	}

	if home != "" {
		pattern := filepath.Join(home, ".nvm/versions/node/*/bin", BinaryName)
		if matches, err := filepath.Glob(pattern); err == nil {
			for _, m := range matches {
				if st, err := os.Stat(m); err == nil && !st.IsDir() {
					return m
				}
			}
		}
	}

	return shellWhich()
}

// shellWhich runs "$SHELL -lc 'which claude'" as a last resort, for
// installs only visible through a login shell's rc setup.
func shellWhich() string {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}
	out, err := exec.Command(shell, "-lc", "which "+BinaryName).Output()
	if err != nil {
		return ""
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return ""
	}
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return ""
	}
	return path
}

// BuildEnv returns the curated base environment for a spawned assistant
// process: just enough for a usable interactive terminal, nothing that
// leaks unrelated host state. It does not include the hook variables or
// --resume handling; the session manager layers the hook variables over
// it at spawn time, and the PTY manager adds --resume.
func BuildEnv() map[string]string {
	env := map[string]string{
		"TERM":         "xterm-256color",
		"COLORTERM":    "truecolor",
		"LANG":         "en_US.UTF-8",
		"LC_ALL":       "en_US.UTF-8",
		"FORCE_COLOR":  "1",
		"TERM_PROGRAM": "xterm",
	}
	if home, err := os.UserHomeDir(); err == nil {
		env["HOME"] = home
	}
	if u := os.Getenv("USER"); u != "" {
		env["USER"] = u
	}
	if p := os.Getenv("PATH"); p != "" {
		env["PATH"] = p
	}
	return env
}

// EnvVarsToRemove returns the CI-detection variables that must be stripped
// from the spawned process's environment.
func EnvVarsToRemove() []string { return envVarsToRemove }
