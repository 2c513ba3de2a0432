package store

import (
	"log/slog"
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into one call after a quiet
// period. Each trigger resets the timer, so a long editing burst writes
// once at its end instead of per keystroke.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Flush cancels any pending timer and runs the save immediately.
func (d *debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn()
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Saver debounces persistence writes. Draft edits and gallery mutations
// have separate timers with separate delays. Save failures are logged and
// swallowed: the in-memory session stays authoritative and the next
// trigger retries.
type Saver struct {
	logger  *slog.Logger
	draft   *debouncer
	gallery *debouncer
}

// NewSaver creates a saver around the given write functions.
func NewSaver(logger *slog.Logger, draftDelay, galleryDelay time.Duration, saveDraft, saveGallery func() error) *Saver {
	if draftDelay <= 0 {
		draftDelay = time.Second
	}
	if galleryDelay <= 0 {
		galleryDelay = 1500 * time.Millisecond
	}
	s := &Saver{logger: logger}
	s.draft = newDebouncer(draftDelay, func() {
		if err := saveDraft(); err != nil {
			logger.Warn("draft save failed", "err", err)
		}
	})
	s.gallery = newDebouncer(galleryDelay, func() {
		if err := saveGallery(); err != nil {
			logger.Warn("gallery save failed", "err", err)
		}
	})
	return s
}

// DraftChanged schedules a debounced draft write.
func (s *Saver) DraftChanged() { s.draft.Trigger() }

// GalleryChanged schedules a debounced gallery write.
func (s *Saver) GalleryChanged() { s.gallery.Trigger() }

// Flush writes both slots immediately. Called on shutdown so pending edits
// are not lost to the debounce window.
func (s *Saver) Flush() {
	s.draft.Flush()
	s.gallery.Flush()
}

// Stop cancels pending timers without writing.
func (s *Saver) Stop() {
	s.draft.Stop()
	s.gallery.Stop()
}
