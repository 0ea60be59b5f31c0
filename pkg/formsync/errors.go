package formsync

import (
	"errors"
	"fmt"
)

// Error kinds returned by Session. Match them with errors.Is; the wrapped
// detail is meant for logs, not for the people submitting forms.
var (
	// ErrCredential covers a missing, unreadable or rejected credential.
	ErrCredential = errors.New("credential error")
	// ErrDiscovery covers a failed header read or an unusable header row.
	ErrDiscovery = errors.New("header discovery error")
	// ErrNoHeaders is the discovery failure where the header row is blank.
	ErrNoHeaders = fmt.Errorf("%w: header row has no labels", ErrDiscovery)
	// ErrNotReady is returned by Write before a successful Authorize.
	ErrNotReady = errors.New("session not authorized")
	// ErrWrite covers a failed append call.
	ErrWrite = errors.New("write error")
)
