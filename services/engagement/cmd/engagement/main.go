package main

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/blog-engagement/internal/platform/auth"
	"github.com/example/blog-engagement/internal/platform/config"
	"github.com/example/blog-engagement/internal/platform/db"
	"github.com/example/blog-engagement/internal/platform/events"
	"github.com/example/blog-engagement/internal/platform/httpserver"
	"github.com/example/blog-engagement/internal/platform/logging"
	"github.com/example/blog-engagement/internal/platform/natsconn"
	"github.com/example/blog-engagement/internal/platform/run"
	"github.com/example/blog-engagement/services/engagement/internal/cache"
	"github.com/example/blog-engagement/services/engagement/internal/engagement"
	"github.com/example/blog-engagement/services/engagement/internal/grpcapi"
	"github.com/example/blog-engagement/services/engagement/internal/handlers"
	"github.com/example/blog-engagement/services/engagement/internal/store"
	"github.com/example/blog-engagement/services/engagement/internal/worker"
)

type stores struct {
	reactions store.ReactionStore
	comments  store.CommentStore
	subjects  store.SubjectStore
	pool      *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	runner := run.New(log)
	origin := uuid.NewString()

	st := initStores(cfg, log)
	if st.pool != nil {
		runner.OnShutdown("postgres", func(context.Context) error {
			st.pool.Close()
			return nil
		})
	}

	reportCache, redisCache := initCache(cfg, log)
	if redisCache != nil {
		runner.OnShutdown("redis", func(context.Context) error { return redisCache.Close() })
	}

	// Events are optional: without NATS the publisher is a no-op and only the
	// local cache is invalidated.
	var publisher *events.Publisher
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName, Logger: log})
	if err != nil {
		log.Warn("nats unavailable, engagement events disabled", zap.Error(err))
	} else {
		runner.OnShutdown("nats", func(context.Context) error { return nc.Drain() })
		js, err := nc.JetStream()
		if err != nil {
			log.Warn("jetstream unavailable, engagement events disabled", zap.Error(err))
		} else if err := events.EnsureStream(js); err != nil {
			log.Warn("ensure engagement stream", zap.Error(err))
		} else {
			publisher = events.New(js, log, origin)
		}
	}

	reports := engagement.NewCachedReporter(
		engagement.NewReporter(st.reactions, st.comments, st.subjects), reportCache, log)
	notifier := engagement.Notifiers{reports, engagement.EventNotifier{Publisher: publisher}}

	statusPolicy := engagement.AutoApprove
	if cfg.Engagement.CommentPolicy == config.CommentPolicyModerate {
		statusPolicy = engagement.HoldForReview
	}
	reactions := engagement.NewReactions(st.reactions,
		engagement.ReactionPolicy{AllowAnonymous: cfg.Engagement.AllowAnonymousReactions}, notifier)
	moderator := engagement.NewModerator(st.comments, statusPolicy, notifier)
	catalog := engagement.NewCatalog(st.subjects, notifier)
	visitors := auth.VisitorHasher{Key: []byte(cfg.Auth.VisitorSecret)}

	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, bearer tokens will be rejected (development only)")
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:   readiness(st.pool, redisCache),
		Logger:      log,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	deps := handlers.Deps{
		Reactions: reactions,
		Moderator: moderator,
		Catalog:   catalog,
		Reports:   reports,
		Verifier:  auth.JWTVerifier{Secret: []byte(cfg.Auth.JWTSecret)},
		Visitors:  visitors,
		Logger:    log,
	}
	if cfg.HTTP.WriteRateLimit > 0 {
		limiter := httpserver.NewRateLimiter(cfg.HTTP.WriteRateLimit, cfg.HTTP.WriteBurst)
		limiter.TrustForwarded = cfg.HTTP.TrustProxyHeaders
		deps.WriteLimit = limiter.Middleware
	}
	handlers.Register(r, deps)
	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r, Logger: log})

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv, healthSrv := grpcapi.NewServer(&grpcapi.Service{
		Reactions: reactions,
		Moderator: moderator,
		Reports:   reports,
		Visitors:  visitors,
	}, log)

	runner.OnShutdown("grpc", func(ctx context.Context) error {
		healthSrv.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcSrv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcSrv.Stop()
		}
		return nil
	})
	runner.OnShutdown("http", srv.Shutdown)

	code := runner.WithSignals(func(ctx context.Context) error {
		if nc != nil {
			js, err := nc.JetStream()
			if err == nil {
				inv := &worker.CacheInvalidator{Cache: reports, Origin: origin, Log: log}
				if err := inv.Start(ctx, js); err != nil {
					log.Warn("cache invalidator not started", zap.Error(err))
				}
			}
		}

		go func() {
			log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Error("grpc serve", zap.Error(err))
			}
		}()
		return srv.Start()
	})

	log.Info("exit", zap.Int("code", code))
	_ = log.Sync()
	run.Exit(code)
}

// initStores selects the storage backend. Outside production a missing or
// unreachable DATABASE_URL falls back to in-memory stores.
func initStores(cfg config.AppConfig, log *zap.Logger) stores {
	memory := stores{
		reactions: store.NewInMemoryReactionStore(),
		comments:  store.NewInMemoryCommentStore(),
		subjects:  store.NewInMemorySubjectStore(),
	}
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores (development only)")
		return memory
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		if err = store.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
		}
	}
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return memory
	}

	log.Info("engagement store: postgres")
	return stores{
		reactions: store.NewPostgresReactionStore(pool),
		comments:  store.NewPostgresCommentStore(pool),
		subjects:  store.NewPostgresSubjectStore(pool),
		pool:      pool,
	}
}

// initCache prefers Redis so every instance shares one report.
func initCache(cfg config.AppConfig, log *zap.Logger) (engagement.ReportCache, *cache.RedisReportCache) {
	ttl := cfg.Engagement.ReportCacheTTL
	if cfg.RedisURL == "" {
		log.Info("report cache: in-memory")
		return cache.NewMemoryReportCache(ttl), nil
	}
	rc := cache.NewRedisReportCache(cfg.RedisURL, ttl)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		log.Warn("redis unavailable, falling back to in-memory report cache", zap.Error(err))
		return cache.NewMemoryReportCache(ttl), nil
	}
	log.Info("report cache: redis")
	return rc, rc
}

func readiness(pool *pgxpool.Pool, rc *cache.RedisReportCache) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if rc != nil {
			return rc.Ping(ctx)
		}
		return nil
	}
}
