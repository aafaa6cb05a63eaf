// internal/session/errors.go
//
// Error taxonomy of the session core:
//   - Advisory: a locally detected inadmissible action. Nothing was sent;
//     the session state is untouched; the user can simply try again.
//   - ErrNotConnected: the transport is down. Intents are not queued or
//     replayed; the user retries once reconnected.
//   - Upstream failures are produced by the api package.
//   - Protocol violations (bad snapshots) are logged and discarded inside
//     the Reconciler and never surface as errors.

package session

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by submit intents while the channel is down.
var ErrNotConnected = errors.New("transport unavailable")

// Advisory is a user-facing rejection of a local intent. It is terminal at
// the boundary: shown to the user, never retried automatically.
type Advisory struct {
	Reason string
}

func (a *Advisory) Error() string { return a.Reason }

func advise(format string, args ...any) error {
	return &Advisory{Reason: fmt.Sprintf(format, args...)}
}

// AsAdvisory unwraps err into an Advisory if it is one.
func AsAdvisory(err error) (*Advisory, bool) {
	var a *Advisory
	if errors.As(err, &a) {
		return a, true
	}
	return nil, false
}
