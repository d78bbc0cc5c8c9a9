package daemon

import (
	"context"

	"github.com/ratthapon/talad/internal/bus"
	"github.com/ratthapon/talad/internal/catalog"
	"github.com/ratthapon/talad/internal/chat"
	"github.com/ratthapon/talad/internal/config"
	"github.com/ratthapon/talad/internal/controller"
	"github.com/ratthapon/talad/internal/lock"
	"github.com/ratthapon/talad/internal/logging"
	"github.com/ratthapon/talad/internal/metrics"
	"github.com/ratthapon/talad/internal/profile"
	"github.com/ratthapon/talad/internal/rest"
	"github.com/ratthapon/talad/internal/session"
	"github.com/ratthapon/talad/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
}

// Controllers indexes the per-kind listing controllers the control API
// routes over.
type Controllers map[catalog.Kind]controller.Runtime

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideMetrics,
			provideLock,
			provideStore,
			provideTokenSource,
			provideClient,
			provideBlobStore,
			provideResolver,
			provideControllers,
			provideChatManager,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded",
		zap.String("base_url", cfg.BaseURL),
		zap.Duration("poll_interval", cfg.PollInterval.Duration))
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

// storeTokenSource reads the bearer token from the profile store on every
// request, so a login through the control API takes effect immediately.
type storeTokenSource struct {
	db *store.DB
}

func (s storeTokenSource) BearerToken() string {
	token, err := s.db.Token(store.TokenAuth)
	if err != nil {
		return ""
	}
	return token
}

func provideTokenSource(db *store.DB) rest.TokenSource {
	return storeTokenSource{db: db}
}

func provideClient(cfg *config.Config, tokens rest.TokenSource, m *metrics.Metrics, logger *zap.Logger) (*rest.Client, error) {
	return rest.NewClient(cfg.BaseURL, rest.Options{
		Tokens:            tokens,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Metrics:           m,
		Logger:            logger,
	})
}

func provideBlobStore(cfg *config.Config, tokens rest.TokenSource, logger *zap.Logger) (rest.BlobStore, error) {
	return rest.NewHTTPBlobStore(cfg.BlobBaseURL, cfg.BlobBucket, nil, tokens, logger)
}

func provideResolver(cfg *config.Config, client *rest.Client, db *store.DB, logger *zap.Logger) *session.Resolver {
	tokens := session.StoreTokens{DB: db}
	provider := &session.RestProvider{Client: client, Tokens: tokens}
	return session.NewResolver(provider, tokens, cfg.AuthAttempts, cfg.AuthRetryDelay.Duration, logger)
}

func newRuntime[T catalog.Record](kind catalog.Kind, client *rest.Client, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) controller.Runtime {
	return controller.New[T](kind, rest.NewCollection[T](client, kind), b, m, logger)
}

func provideControllers(client *rest.Client, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) Controllers {
	return Controllers{
		catalog.KindJob:        newRuntime[catalog.Job](catalog.KindJob, client, b, m, logger),
		catalog.KindCondo:      newRuntime[catalog.Condo](catalog.KindCondo, client, b, m, logger),
		catalog.KindHotel:      newRuntime[catalog.Hotel](catalog.KindHotel, client, b, m, logger),
		catalog.KindCourse:     newRuntime[catalog.Course](catalog.KindCourse, client, b, m, logger),
		catalog.KindRestaurant: newRuntime[catalog.Restaurant](catalog.KindRestaurant, client, b, m, logger),
		catalog.KindTravelPost: newRuntime[catalog.TravelPost](catalog.KindTravelPost, client, b, m, logger),
		catalog.KindDocPost:    newRuntime[catalog.DocPost](catalog.KindDocPost, client, b, m, logger),
		catalog.KindGeneral:    newRuntime[catalog.GeneralPost](catalog.KindGeneral, client, b, m, logger),
	}
}

func provideChatManager(cfg *config.Config, resolver *session.Resolver, client *rest.Client, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *chat.Manager {
	return chat.NewManager(resolver, client, cfg.PollInterval.Duration, b, m, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, b *bus.Bus, chats *chat.Manager, logger *zap.Logger) {
	events, unsubscribe := b.Subscribe("", 256)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				for evt := range events {
					logger.Info("event",
						zap.String("event_kind", evt.Kind),
						zap.String("event_id", evt.ID),
						zap.Any("payload", evt.Payload))
				}
			}()
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("control server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			chats.CloseAll()
			unsubscribe()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
