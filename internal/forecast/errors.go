package forecast

import "errors"

// Days is the forecast horizon; offsets run 0 (today) through Days-1.
const Days = 5

var (
	// ErrAllProvidersFailed means no provider produced a usable reading for
	// a location and day. Partial failures are absorbed by averaging; only
	// total failure surfaces.
	ErrAllProvidersFailed = errors.New("all weather providers failed")

	// ErrInvalidDayOffset means the requested day offset is outside [0, 4].
	ErrInvalidDayOffset = errors.New("day offset out of range")
)
