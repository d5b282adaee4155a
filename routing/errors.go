package routing

import "errors"

var (
	// ErrMissingParameter means start or end was not supplied.
	ErrMissingParameter = errors.New("start and end parameters required")
	// ErrInvalidCoordinate means a coordinate string is not "lat,lng" with numeric, in-range parts.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrUpstream means the routing provider failed or returned an unusable payload.
	ErrUpstream = errors.New("routing provider failure")
)
