package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Resolver obtains a chat identity with bounded retries. Each attempt tries
// the live session first and the persisted fallback tokens second; the first
// usable identity wins. Exhausting every attempt is terminal for the screen.
type Resolver struct {
	provider Provider
	fallback TokenStore
	attempts int
	delay    time.Duration
	logger   *zap.Logger
}

// NewResolver creates a resolver. attempts <= 0 defaults to 3 and
// delay <= 0 to 500ms, the cadence the chat screens always used.
func NewResolver(provider Provider, fallback TokenStore, attempts int, delay time.Duration, logger *zap.Logger) *Resolver {
	if attempts <= 0 {
		attempts = 3
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		provider: provider,
		fallback: fallback,
		attempts: attempts,
		delay:    delay,
		logger:   logger,
	}
}

// Resolve runs the retry loop. It returns ErrUnauthenticated after the
// configured number of attempts with no identity from either source.
func (r *Resolver) Resolve(ctx context.Context) (*Identity, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		id, err := r.provider.Session(ctx)
		if err == nil && id != nil && id.UserID != "" {
			r.logger.Info("identity resolved from live session",
				zap.String("user_id", id.UserID), zap.Int("attempt", attempt))
			return id, nil
		}
		if err != nil && err != ErrNoSession {
			r.logger.Warn("live session check failed", zap.Error(err), zap.Int("attempt", attempt))
		}

		if id := r.fromFallback(); id != nil {
			r.logger.Info("identity resolved from fallback token",
				zap.String("user_id", id.UserID), zap.Int("attempt", attempt))
			return id, nil
		}

		if attempt == r.attempts {
			break
		}
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.logger.Warn("identity resolution exhausted", zap.Int("attempts", r.attempts))
	return nil, ErrUnauthenticated
}

func (r *Resolver) fromFallback() *Identity {
	token, err := r.fallback.AuthToken()
	if err != nil || token == "" {
		return nil
	}
	userID, err := r.fallback.UserID()
	if err != nil || userID == "" {
		return nil
	}
	return &Identity{UserID: userID, Token: token}
}
