package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ratthapon/talad/internal/catalog"
)

// Message is one chat message as the backend returns it. Ordering is
// whatever the server sent; the client never sorts or deduplicates.
type Message struct {
	ID        catalog.ID `json:"id"`
	ChatID    string     `json:"chat_id"`
	SenderID  string     `json:"sender_id"`
	Body      string     `json:"body"`
	MediaURL  string     `json:"media_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Chat is a conversation summary from the chat index endpoint.
type Chat struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ListChats fetches the conversation index for the signed-in user.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := c.do(ctx, http.MethodGet, "/chats", nil, "", &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ListMessages fetches the full message list for one chat in server order.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/messages/"+chatID, nil, "", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendText writes one text message to a chat. Callers refetch afterwards to
// reconcile; the response body is not used to append locally.
func (c *Client) SendText(ctx context.Context, chatID, senderID, body string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":   chatID,
		"sender_id": senderID,
		"body":      body,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/messages/"+chatID, bytes.NewReader(payload), "application/json", nil)
}

// SendMedia uploads a binary message as multipart form data tagged with the
// chat id, sender id and media kind.
func (c *Client) SendMedia(ctx context.Context, chatID, senderID, mediaKind, filename string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", chatID); err != nil {
		return err
	}
	if err := w.WriteField("sender_id", senderID); err != nil {
		return err
	}
	if err := w.WriteField("media_kind", mediaKind); err != nil {
		return err
	}
	part, err := w.CreateFormFile("media", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/messages/"+chatID, &buf, w.FormDataContentType(), nil)
}
