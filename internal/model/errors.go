package model

import "errors"

var (
	// ErrValidation marks bad request input; the only error callers ever see.
	ErrValidation = errors.New("validation error")
	// ErrDataUnavailable means the consolidated list could not be fetched and no
	// cached copy exists.
	ErrDataUnavailable = errors.New("watchlist data unavailable")
	// ErrDataCorrupt means a cached or fetched payload failed to parse.
	ErrDataCorrupt = errors.New("watchlist data corrupt")
)
