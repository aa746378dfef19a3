package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/repository"
)

// TokenLedger is a mutex-guarded in-memory revocation ledger. A revoke
// that has returned is observed by every later IsRevoked call, which is
// the only ordering guarantee the ledger needs.
type TokenLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
}

var _ repository.TokenRepository = (*TokenLedger)(nil)

// NewTokenLedger creates an empty ledger.
func NewTokenLedger() *TokenLedger {
	return &TokenLedger{entries: make(map[string]time.Time)}
}

// Revoke records a token id. A duplicate id keeps its original entry,
// so the operation is idempotent.
func (l *TokenLedger) Revoke(_ context.Context, token *domain.RevokedToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[token.TokenID]; !ok {
		l.entries[token.TokenID] = token.ExpiresAt
	}
	return nil
}

// IsRevoked reports ledger membership. Entries past their expiry still
// count as revoked until pruned; the token is expired by then anyway.
func (l *TokenLedger) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.entries[tokenID]
	return ok, nil
}

// DeleteExpired prunes entries whose original expiry has passed.
func (l *TokenLedger) DeleteExpired(_ context.Context) (int, error) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, expiresAt := range l.entries {
		if now.After(expiresAt) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed, nil
}
