package layer

import "errors"

// Configuration errors, reported while a model is being set up.
var (
	ErrInvalidDesc   = errors.New("invalid input descriptor")
	ErrInvalidConfig = errors.New("invalid layer configuration")
	ErrChildCount    = errors.New("child count does not match input collection size")
	ErrCarryMismatch = errors.New("cell carry does not match initial carry")
)

// Forward-time structural errors.
var (
	ErrParamsMismatch = errors.New("params do not match layer structure")
	ErrInputMismatch  = errors.New("input does not match layer descriptor")
	ErrMissingKey     = errors.New("stochastic layer requires a PRNG key in training mode")
)
