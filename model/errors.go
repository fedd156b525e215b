package model

import "errors"

var (
	// ErrPerceptionUnavailable is returned when a sensor read fails or yields nothing.
	ErrPerceptionUnavailable = errors.New("perception unavailable")
	// ErrDateParse is returned when a raw date reading cannot be classified.
	ErrDateParse = errors.New("date parse failure")
	// ErrConfigMalformed is returned when a config document cannot be decoded.
	ErrConfigMalformed = errors.New("config malformed")
	// ErrCacheCorrupt is returned when a cached event snapshot cannot be decoded.
	ErrCacheCorrupt = errors.New("cache corrupt")
	// ErrCancelled marks the cooperative stop path. It is not a failure.
	ErrCancelled = errors.New("cancelled")
)
