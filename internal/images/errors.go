package images

import "errors"

// ErrValidation matches every *ValidationError.
var ErrValidation = errors.New("invalid image input")

// ValidationError reports invalid resolver input. It is returned before
// any URL is built or any probe is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "images: invalid " + e.Field + ": " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
