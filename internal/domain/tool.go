package domain

// ToolStatus is the polled installation state of a single engine. The
// authoritative fact lives with the status collaborator; this record is only
// a local copy refreshed by polling.
type ToolStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

// UpdateInfo is the polled version state of a single engine, refreshed only
// by an explicit update check (a network round trip, never implied by a
// status poll).
type UpdateInfo struct {
	Installed       bool   `json:"installed"`
	CurrentVersion  string `json:"current_version,omitempty"`
	UpdateAvailable bool   `json:"update_available"`
	LatestVersion   string `json:"latest_version,omitempty"`
}

// Normalize enforces the UpdateAvailable invariant: an update can only be
// available for an installed engine whose latest version differs from the
// current one.
func (u *UpdateInfo) Normalize() {
	if !u.Installed || u.LatestVersion == "" || u.LatestVersion == u.CurrentVersion {
		u.UpdateAvailable = false
		return
	}
	u.UpdateAvailable = true
}

// Readiness captures whether enough engines are provisioned for conversions
// to proceed. CoreReady is the minimum bar; AllReady unlocks the optional
// engine's format set.
type Readiness struct {
	CoreReady bool `json:"core_ready"`
	AllReady  bool `json:"all_ready"`
}

// ComputeReadiness derives readiness from the current tool status map.
// It is a pure function: missing entries count as unavailable.
func ComputeReadiness(status map[string]ToolStatus) Readiness {
	core := status[EngineFFmpeg].Available && status[EnginePandoc].Available
	return Readiness{
		CoreReady: core,
		AllReady:  core && status[EngineImageMagick].Available,
	}
}

// Progress statuses emitted on the shared download event stream
const (
	ProgressStatusDownloading = "downloading"
	ProgressStatusExtracting  = "extracting"
	ProgressStatusComplete    = "complete"
	ProgressStatusStalled     = "stalled"
)

// ProgressEvent is one update on the shared download progress stream. Tool
// carries the engine identity explicitly; consumers must never parse it out
// of the message text.
type ProgressEvent struct {
	Tool    string  `json:"tool"`
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Percent float64 `json:"percent,omitempty"`
}

// IsTerminal reports whether the event ends its download session
func (e ProgressEvent) IsTerminal() bool {
	return e.Status == ProgressStatusComplete
}
