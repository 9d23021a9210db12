package nodeinfo

import "errors"

// ErrStatsUnavailable is returned when usage statistics cannot be read.
var ErrStatsUnavailable = errors.New("usage statistics unavailable")
