package poster

import (
	"sync"
	"time"
)

// AccountLimiter tracks request quota per posting account over a rolling
// window. One limiter instance is shared by every project mapped to the same
// account, so the check-then-increment must stay atomic.
type AccountLimiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu       sync.Mutex
	accounts map[string]*accountWindow
}

type accountWindow struct {
	count   int
	resetAt time.Time
}

func NewAccountLimiter(maxRequests int, window time.Duration) *AccountLimiter {
	return &AccountLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		accounts:    make(map[string]*accountWindow),
	}
}

// Allow consumes one request slot for the account if quota remains in the
// current window. A refusal changes no state and can be retried on a later
// run.
func (l *AccountLimiter) Allow(accountID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.accounts[accountID]
	if !ok || now.After(w.resetAt) {
		w = &accountWindow{resetAt: now.Add(l.window)}
		l.accounts[accountID] = w
	}
	if w.count >= l.maxRequests {
		return false
	}
	w.count++
	return true
}

// Remaining reports the unused quota for an account in the current window.
func (l *AccountLimiter) Remaining(accountID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.accounts[accountID]
	if !ok || l.now().After(w.resetAt) {
		return l.maxRequests
	}
	return l.maxRequests - w.count
}
