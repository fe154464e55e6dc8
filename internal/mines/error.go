package mines

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid board configuration")
	ErrOutOfBounds   = errors.New("cell out of bounds")
)
