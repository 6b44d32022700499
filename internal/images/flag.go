package images

import "sync/atomic"

// Flag is the process-wide switch for image resizing.
type Flag struct {
	enabled atomic.Bool
}

// NewFlag returns a flag set to enabled.
func NewFlag(enabled bool) *Flag {
	f := &Flag{}
	f.enabled.Store(enabled)
	return f
}

// Enabled reports whether resizing is on. A nil flag is on, leaving the
// URL builder as the only gate.
func (f *Flag) Enabled() bool {
	if f == nil {
		return true
	}
	return f.enabled.Load()
}

// Set turns resizing on or off.
func (f *Flag) Set(enabled bool) {
	f.enabled.Store(enabled)
}
