package domain

import "errors"

// ErrConfiguration marks failures caused by missing or invalid configuration
// rather than by the data under validation. Commands classify with errors.Is
// and exit before touching the store.
var ErrConfiguration = errors.New("configuration error")
