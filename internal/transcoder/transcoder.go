package transcoder

import (
	"time"

	"github.com/google/uuid"
)

// Transcoder turns submissions into ffmpeg runs: one per segment, executed
// in order, followed by an optional concatenation pass.
type Transcoder struct {
	runner  Runner
	display string
	now     func() time.Time
	newID   func() string
}

// Option customizes a Transcoder.
type Option func(*Transcoder)

// WithClock sets the clock used to name segment files.
func WithClock(now func() time.Time) Option {
	return func(t *Transcoder) { t.now = now }
}

// WithIDGenerator sets the generator used for submission IDs.
func WithIDGenerator(newID func() string) Option {
	return func(t *Transcoder) { t.newID = newID }
}

// New creates a Transcoder. display is the binary name shown in COMMAND
// messages; it defaults to "ffmpeg".
func New(runner Runner, display string, opts ...Option) *Transcoder {
	if display == "" {
		display = "ffmpeg"
	}
	t := &Transcoder{
		runner:  runner,
		display: display,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cleanup stops running encoder processes if the runner supports it.
func (t *Transcoder) Cleanup() {
	if c, ok := t.runner.(interface{ Cleanup() }); ok {
		c.Cleanup()
	}
}
