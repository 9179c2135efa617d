package diagnostics

import "time"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	CodeBoot              = "BOOT"
	CodeFrameDropped      = "FRAME.DROPPED"
	CodeFrameMalformed    = "FRAME.MALFORMED"
	CodeBrightness        = "CONTROL.BRIGHTNESS"
	CodeReboot            = "CONTROL.REBOOT"
	CodeUnknownCommand    = "CONTROL.UNKNOWN"
	CodeConnectivityLost  = "NET.LOST"
	CodeRenderFailed      = "RENDER.FAILED"
	CodeTransportOverflow = "TRANSPORT.OVERFLOW"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Publisher receives diagnostics and frame previews from the controller.
// Implementations must not block, and must copy rgb if they keep it.
type Publisher interface {
	Publish(d Diagnostic)
	Frame(rgb []byte, brightness uint8)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(Diagnostic)  {}
func (Discard) Frame([]byte, uint8) {}
