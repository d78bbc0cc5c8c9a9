package chat

import (
	"context"
	"fmt"

	"github.com/ratthapon/talad/internal/metrics"
	"go.uber.org/zap"
)

// MessageWriter is the outbound half of the chat backend. rest.Client
// implements it.
type MessageWriter interface {
	SendText(ctx context.Context, chatID, senderID, body string) error
	SendMedia(ctx context.Context, chatID, senderID, mediaKind, filename string, data []byte) error
}

// Sender performs write-then-refetch sends for one chat. There is no
// optimistic local append: the sender's own message appears only once the
// forced refetch completes, reconciling the view with server state.
type Sender struct {
	chatID  string
	writer  MessageWriter
	poller  *Poller
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSender creates a sender bound to one chat's poller.
func NewSender(chatID string, writer MessageWriter, poller *Poller, m *metrics.Metrics, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		chatID:  chatID,
		writer:  writer,
		poller:  poller,
		metrics: m,
		logger:  logger,
	}
}

// SendText writes one text message and forces a refetch regardless of the
// write's outcome, so the view reconciles either way. The write error, if
// any, is returned for the screen to surface.
func (s *Sender) SendText(ctx context.Context, senderID, body string) error {
	if body == "" {
		return fmt.Errorf("empty message body")
	}

	err := s.writer.SendText(ctx, s.chatID, senderID, body)
	s.recordSend(err)
	if refreshErr := s.poller.Refresh(ctx); refreshErr != nil {
		s.logger.Error("post-send refresh failed", zap.String("chat_id", s.chatID), zap.Error(refreshErr))
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendMedia uploads a binary message (multipart, tagged with chat id,
// sender id and media kind) with the same write-then-refetch reconciliation.
func (s *Sender) SendMedia(ctx context.Context, senderID, mediaKind, filename string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty media payload")
	}

	err := s.writer.SendMedia(ctx, s.chatID, senderID, mediaKind, filename, data)
	s.recordSend(err)
	if refreshErr := s.poller.Refresh(ctx); refreshErr != nil {
		s.logger.Error("post-send refresh failed", zap.String("chat_id", s.chatID), zap.Error(refreshErr))
	}
	if err != nil {
		return fmt.Errorf("send media: %w", err)
	}
	return nil
}

func (s *Sender) recordSend(err error) {
	if s.metrics == nil {
		return
	}
	if err != nil {
		s.metrics.ObserveSend("error")
	} else {
		s.metrics.ObserveSend("ok")
	}
}
