package services

import "errors"

var (
	// ErrNoData means no tracking record exists for the requested range.
	// Callers distinguish "no history" from an empty route.
	ErrNoData = errors.New("no tracking data for the requested range")

	// ErrInvalidMaterialID rejects a materialId shaped like a bare device
	// identifier instead of keying a malformed record under it.
	ErrInvalidMaterialID = errors.New("materialId has the shape of a device identifier")
)
