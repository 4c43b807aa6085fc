package errs

import (
	"errors"
)

// ErrUnavailable is returned by callers of fetch-once when the published
// value is absent.
var ErrUnavailable = errors.New("illnesses are unavailable")
