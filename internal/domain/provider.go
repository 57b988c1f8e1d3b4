package domain

import "context"

// StatusProvider answers the per-engine installation status poll. Idempotent;
// safe to re-invoke after every download completion.
type StatusProvider interface {
	QueryStatus(ctx context.Context, engines []Engine) (map[string]ToolStatus, error)
}

// UpdateChecker answers the per-engine version query. Network-bound and more
// expensive than a status poll, so it is only invoked explicitly.
type UpdateChecker interface {
	CheckUpdates(ctx context.Context, engines []Engine) (map[string]UpdateInfo, error)
}

// ToolInstaller submits a download request for one engine. Submission is
// fire-and-forget: a nil error only means the request was accepted, and
// completion is signaled asynchronously on the progress stream.
type ToolInstaller interface {
	RequestDownload(ctx context.Context, engine Engine) error

	// Events returns the shared progress stream. Events for different
	// engines may interleave arbitrarily; per-engine ordering matches
	// emission order.
	Events() <-chan ProgressEvent
}

// Converter performs one file conversion through an external engine.
// Implementations own flag construction and process handling; callers only
// choose the engine.
type Converter interface {
	Convert(ctx context.Context, conversion *Conversion, engine Engine) error
}
