package singleflight

import "errors"

// ErrCallPanicked is delivered to waiters when the executing call panicked.
var ErrCallPanicked = errors.New("singleflight: call panicked")
