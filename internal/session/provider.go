package session

import (
	"encoding/json"
	"time"

	"github.com/virtdesk/vdesk/internal/winsys"
)

// SuspendInfo is the transient record handed to a provider: the process
// being suspended, its window snapshots and its last known launch command
// line (sourced from the process registry, since the OS may no longer
// expose the original invocation by suspend time).
type SuspendInfo struct {
	PID     int
	ExePath string
	Cmdline []string
	Windows []winsys.Window
}

// DataType describes the payload shape a provider produces, so an
// external serializer knows every possible schema ahead of time.
// Prototype returns a fresh decode target for the payload.
type DataType struct {
	ProviderID string
	Name       string
	Prototype  func() any
}

// Provider captures and later restores one kind of application's state.
// ID must be a declared stable string, not a runtime reference: resume
// happens in a fresh process lifetime and locates an equivalent provider
// by this identity.
type Provider interface {
	ID() string
	// ProcessName is the executable name this provider matches.
	ProcessName() string
	DataType() DataType
	Suspend(info SuspendInfo) (json.RawMessage, error)
	Resume(appPath string, data json.RawMessage) error
}

// PersistedApplication is one suspended application: enough to relaunch
// it through an equivalent provider instance later, possibly after a full
// process restart.
type PersistedApplication struct {
	AppPath    string          `json:"app_path"`
	ProviderID string          `json:"provider"`
	Data       json.RawMessage `json:"data"`
}

// Session is the on-disk record of one suspend operation.
type Session struct {
	Name         string                 `json:"name"`
	SuspendedAt  time.Time              `json:"suspended_at"`
	Applications []PersistedApplication `json:"applications"`
}
