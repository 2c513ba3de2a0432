package server

import "sync"

// noticeBuffer keeps the most recent notices, newest first.
type noticeBuffer struct {
	mu    sync.Mutex
	max   int
	items []Notice
}

func newNoticeBuffer(max int) *noticeBuffer {
	return &noticeBuffer{max: max}
}

func (b *noticeBuffer) add(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append([]Notice{n}, b.items...)
	if len(b.items) > b.max {
		b.items = b.items[:b.max]
	}
}

func (b *noticeBuffer) list() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice(nil), b.items...)
}
