package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ratthapon/talad/internal/chat"
	"github.com/ratthapon/talad/internal/metrics"
	"github.com/ratthapon/talad/internal/profile"
	"github.com/ratthapon/talad/internal/rest"
	"github.com/ratthapon/talad/internal/store"
	"go.uber.org/zap"
)

// Server is the control API: an HTTP server on the profile's Unix domain
// socket that taladctl talks to.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer creates the control server bound to the profile's socket.
func NewServer(
	p Params,
	logger *zap.Logger,
	db *store.DB,
	client *rest.Client,
	controllers Controllers,
	chats *chat.Manager,
	blobs rest.BlobStore,
	m *metrics.Metrics,
) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = profile.SocketPath(p.ProfileName)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	h := &handlers{
		profileName: p.ProfileName,
		startedAt:   time.Now(),
		db:          db,
		client:      client,
		controllers: controllers,
		chats:       chats,
		blobs:       blobs,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Post("/auth", h.login)
		r.Delete("/auth", h.logout)
		r.Get("/settings", h.settings)
		r.Get("/chats", h.listChats)
		r.Get("/kinds", h.kinds)
		r.Route("/kinds/{kind}", func(r chi.Router) {
			r.Get("/listings", h.listListings)
			r.Post("/listings", h.createListing)
			r.Put("/listings/{id}", h.updateListing)
			r.Delete("/listings/{id}", h.deleteListing)
		})
		r.Route("/chats/{chatID}", func(r chi.Router) {
			r.Get("/messages", h.listMessages)
			r.Post("/messages", h.sendMessage)
			r.Delete("/", h.closeChat)
		})
		r.Post("/media", h.uploadMedia)
	})
	r.Handle("/metrics", m.Handler())

	return &Server{
		httpServer: &http.Server{Handler: r},
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start begins serving control requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("control server starting", zap.String("socket", s.socketPath))
	err := s.httpServer.Serve(s.listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("control server stopping")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		_ = s.httpServer.Close()
	}
	_ = os.Remove(s.socketPath)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("control request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
