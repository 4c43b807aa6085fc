package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Client errors (4xx)
	TagNotFound       = goerr.NewTag("not_found")    // 404
	TagValidation     = goerr.NewTag("validation")   // 400
	TagInvalidRequest = goerr.NewTag("invalid_request")

	// Server errors (5xx)
	TagExternal    = goerr.NewTag("external")    // 502
	TagTimeout     = goerr.NewTag("timeout")     // 504
	TagDatabase    = goerr.NewTag("database")    // 500 (specific to DB errors)
	TagUnavailable = goerr.NewTag("unavailable") // 503
)
