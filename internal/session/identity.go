package session

import (
	"context"
	"errors"

	"github.com/ratthapon/talad/internal/store"
)

// Identity is a resolved chat identity: who messages are sent as.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Token    string
}

// ErrNoSession is returned by a Provider when no live session exists right
// now (signed out, or the auth backend has not issued one yet).
var ErrNoSession = errors.New("no live session")

// ErrUnauthenticated is terminal: identity could not be resolved after all
// retries and the chat screen must navigate away.
var ErrUnauthenticated = errors.New("identity could not be resolved")

// Provider yields the live session identity. It is the opaque auth backend
// collaborator; the resolver treats any failure as "try again or fall back".
type Provider interface {
	Session(ctx context.Context) (*Identity, error)
}

// TokenStore is the persisted fallback identity source.
type TokenStore interface {
	AuthToken() (string, error)
	UserID() (string, error)
}

// StoreTokens adapts the profile SQLite store to TokenStore.
type StoreTokens struct {
	DB *store.DB
}

func (s StoreTokens) AuthToken() (string, error) {
	return s.DB.Token(store.TokenAuth)
}

func (s StoreTokens) UserID() (string, error) {
	return s.DB.Token(store.TokenUserID)
}
