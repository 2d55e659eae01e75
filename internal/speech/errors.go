package speech

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the speech credential is absent. Returned before any
// network call is attempted.
var ErrNotConfigured = errors.New("speech synthesis is not configured")

// ErrVoiceNotFound marks the provider's "unknown voice" rejection. The
// gateway resolves it through the catalog fallback instead of surfacing it.
var ErrVoiceNotFound = errors.New("voice not found")

// ErrNoVoiceAvailable means fallback resolution could not find any usable
// voice. Terminal: no further retry follows.
var ErrNoVoiceAvailable = errors.New("no voice available in the provider library")

// RejectedError carries a non-2xx upstream rejection. Body is preserved
// verbatim for diagnostics and never interpreted.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("speech provider rejected request (status %d): %s", e.Status, e.Body)
}
