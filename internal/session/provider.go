package session

import (
	"context"
	"net/http"

	"github.com/ratthapon/talad/internal/rest"
)

// RestProvider validates the stored auth token against the backend's
// /auth/user endpoint and returns the identity it reports.
type RestProvider struct {
	Client *rest.Client
	Tokens TokenStore
}

// Session implements Provider. A missing token or a 401 both mean no live
// session; other failures propagate so the resolver can retry.
func (p *RestProvider) Session(ctx context.Context) (*Identity, error) {
	token, err := p.Tokens.AuthToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	user, err := p.Client.FetchAuthUser(ctx, token)
	if err != nil {
		if rest.IsStatus(err, http.StatusUnauthorized) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrNoSession
	}

	return &Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	}, nil
}
