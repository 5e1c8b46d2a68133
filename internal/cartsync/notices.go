package cartsync

import "sync"

// NoticeLevel classifies a notice for storefront presentation.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a toast-style message produced by a cart operation whose outcome
// arrived after the request that triggered it had already returned.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// noticeQueue accumulates notices until the storefront drains them.
// Each notice is delivered exactly once.
type noticeQueue struct {
	mu      sync.Mutex
	notices []Notice
}

func (q *noticeQueue) Push(level NoticeLevel, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notices = append(q.notices, Notice{Level: level, Message: message})
}

// Drain returns all queued notices and empties the queue.
func (q *noticeQueue) Drain() []Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notices
	q.notices = nil
	return out
}
