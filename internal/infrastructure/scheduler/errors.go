package scheduler

import "errors"

// ErrInvalidConfig is returned when poller configuration is invalid
var ErrInvalidConfig = errors.New("invalid poller configuration")
