// Package status turns raw PTY output into a session Status: a stateless
// Detector that classifies one chunk of terminal text, and a stateful
// Tracker that debounces a stream of detections into stable transitions.
package status

import "regexp"

// Status is a session's inferred activity state.
type Status string

const (
	Running Status = "running"
	Waiting Status = "waiting"
	Idle    Status = "idle"
	Error   Status = "error"
	Stopped Status = "stopped"
)

// ansiStrip matches CSI sequences, OSC sequences terminated by BEL, and the
// DEC private-mode sequences the assistant's spinner redraws rely on.
var ansiStrip = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[a-zA-Z~]|\].*?\x07|\[[=>][0-9;]*[a-zA-Z])`)

var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Error:`),
	regexp.MustCompile(`APIError`),
	regexp.MustCompile(`(?i)rate limit`),
	regexp.MustCompile(`Connection refused`),
	regexp.MustCompile(`ECONNREFUSED`),
	regexp.MustCompile(`(?i)timed out`),
}

var runningPatterns = []*regexp.Regexp{
	regexp.MustCompile(`esc to interrupt`),
	regexp.MustCompile(`esc to stop`),
	regexp.MustCompile(`press esc`),
	regexp.MustCompile(`[⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏]`),
	regexp.MustCompile(`\.\.\.`),
	regexp.MustCompile(`(?i)thinking`),
	regexp.MustCompile(`\d+\s*tokens`),
	regexp.MustCompile(`(?i)contemplating`),
	regexp.MustCompile(`(?i)processing`),
	regexp.MustCompile(`(?i)calling tool`),
	regexp.MustCompile(`(?i)using tool`),
}

var hookPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)running\s+\w*\s*hook`),
	regexp.MustCompile(`(?i)stop\s+hook`),
	regexp.MustCompile(`(?i)pre-?commit`),
}

var sessionIDPattern = regexp.MustCompile(`session[:\s]+([a-f0-9-]{36})`)

// Detection is the stateless classification of one chunk of output. None
// means the chunk carried no usable signal (too short, blank, or control
// bytes only) and should not move the Tracker.
type Detection struct {
	Status Status
	None   bool
}

// Detector classifies raw PTY bytes into a Status. It holds no per-session
// state; callers feed its output into a Tracker.
type Detector struct{}

// NewDetector returns a Detector. It has no configuration.
func NewDetector() *Detector { return &Detector{} }

// Detect strips ANSI control sequences from text and classifies what is
// left. Error patterns take priority over running patterns; a hook-phase
// match on an otherwise-running line suppresses the Running classification
// since the hook pipeline reports that transition itself.
func (d *Detector) Detect(text string) Detection {
	stripped := ansiStrip.ReplaceAllString(text, "")
	if len(stripped) < 2 {
		return Detection{None: true}
	}
	if isAllControl(stripped) {
		return Detection{None: true}
	}

	for _, p := range errorPatterns {
		if p.MatchString(stripped) {
			return Detection{Status: Error}
		}
	}

	inHookPhase := false
	for _, p := range hookPatterns {
		if p.MatchString(stripped) {
			inHookPhase = true
			break
		}
	}

	for _, p := range runningPatterns {
		if p.MatchString(stripped) {
			if inHookPhase {
				return Detection{Status: Waiting}
			}
			return Detection{Status: Running}
		}
	}

	return Detection{Status: Waiting}
}

// ExtractSessionID pulls an assistant-reported session identifier out of a
// chunk of output, if one is present.
func (d *Detector) ExtractSessionID(text string) (string, bool) {
	m := sessionIDPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isAllControl(s string) bool {
	for _, r := range s {
		if r >= 0x20 && r != 0x7f {
			return false
		}
	}
	return true
}
