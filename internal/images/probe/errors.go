package probe

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when no size can be read from the
	// fetched bytes.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrStatus matches every *StatusError.
	ErrStatus = errors.New("unexpected response status")
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("probe %s: status %d", e.URL, e.Code)
}

// Is makes errors.Is(err, ErrStatus) true.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// countsAgainstBreaker reports whether err says something about the
// remote host's health. Client errors and undecodable images do not.
func countsAgainstBreaker(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == 429
	}
	return !errors.Is(err, ErrUnsupportedFormat)
}
