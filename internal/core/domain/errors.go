package domain

import "errors"

// ErrNotConnected indicates missing or rejected music-service credentials.
// It is the only error class that aborts a request outright.
var ErrNotConnected = errors.New("domain: music service not connected")

// ErrNoMatches indicates the pipeline exhausted every fallback without
// finding a single track.
var ErrNoMatches = errors.New("domain: no tracks matched the request")
