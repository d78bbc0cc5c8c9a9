package chat

import (
	"context"

	"github.com/ratthapon/talad/internal/rest"
)

// Feed supplies the full message list for a chat. Polling is an
// implementation detail of the Poller; a push-based transport could
// implement Feed (or replace the Poller) without touching consumers.
type Feed interface {
	Fetch(ctx context.Context, chatID string) ([]rest.Message, error)
}

// RestFeed reads messages from the marketplace backend.
type RestFeed struct {
	Client *rest.Client
}

func (f *RestFeed) Fetch(ctx context.Context, chatID string) ([]rest.Message, error) {
	return f.Client.ListMessages(ctx, chatID)
}
