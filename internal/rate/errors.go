package rate

import "errors"

// ErrRedisUnavailable wraps store transport failures surfaced to the OnError
// hook. Checks that hit it still report not-limited.
var ErrRedisUnavailable = errors.New("redis unavailable")
