package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aircnc/aircnc-server/handlers"
	"github.com/aircnc/aircnc-server/internal/bookings"
	"github.com/aircnc/aircnc-server/internal/config"
	"github.com/aircnc/aircnc-server/internal/database"
	"github.com/aircnc/aircnc-server/internal/events"
	"github.com/aircnc/aircnc-server/internal/oidc"
	"github.com/aircnc/aircnc-server/internal/payments"
	"github.com/aircnc/aircnc-server/internal/revocation"
	"github.com/aircnc/aircnc-server/internal/rooms"
	"github.com/aircnc/aircnc-server/internal/storage"
	"github.com/aircnc/aircnc-server/internal/store"
	"github.com/aircnc/aircnc-server/internal/tokens"
	"github.com/aircnc/aircnc-server/internal/users"
	"github.com/aircnc/aircnc-server/pkg/logger"
	"github.com/aircnc/aircnc-server/pkg/metrics"
	"github.com/aircnc/aircnc-server/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Infof("config loaded: log=%s mongo=%v redis=%v oidc=%v payments=%v kafka=%v minio=%v",
		logger.LevelString(), cfg.MongoDB.URI != "", cfg.Redis.Enabled(), cfg.OIDC.Enabled(), cfg.Payment.SecretKey != "", cfg.Kafka.Enabled(), cfg.MinIO.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := tokens.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	st := openStore(ctx, cfg)

	// Redis backs the token denylist and the shared rate limiter
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", cfg.Redis.Addr(), err)
			_ = rdb.Close()
			rdb = nil
		} else {
			logger.Infof("connected to Redis: %s", cfg.Redis.Addr())
		}
	}
	denylist := revocation.NewRedisDenylist(rdb)

	var publisher events.Publisher = events.Noop{}
	if cfg.Kafka.Enabled() {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Warnf("events disabled: %v", err)
		} else {
			publisher = events.NewAsync(kp, 1024, 5*time.Second)
			logger.Infof("publishing events to %s on %s", cfg.Kafka.Topic, strings.Join(cfg.Kafka.Brokers, ","))
		}
	}

	deps := handlers.Deps{
		Users:    users.NewService(st),
		Rooms:    rooms.NewService(st, publisher),
		Bookings: bookings.NewService(st, publisher),
		Issuer:   issuer,
		Revoker:  denylist,
	}

	var proc payments.Processor
	if cfg.Payment.SecretKey != "" {
		proc = payments.NewStripeProcessor(cfg.Payment.SecretKey, nil)
	} else {
		logger.Warnf("PAYMENT_PRIVATE_KEY not set: /create-payment-intent answers 503")
	}
	deps.Payments = payments.NewService(proc, cfg.Payment.Currency)

	if cfg.OIDC.Enabled() {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Fatalf("failed to initialize OIDC verifier: %v", err)
		}
		deps.IDTokens = ver
	}

	if cfg.MinIO.Enabled() {
		objects, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("room image upload disabled: %v", err)
		} else {
			deps.Images = storage.NewImageService(objects, cfg.MinIO.URLExpiry)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readyHandler(st, rdb, cfg))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	var deny middleware.Denylist
	if denylist.Enabled() {
		deny = denylist
	}
	var limits []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limits = append(limits, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limits = append(limits, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handlers.New(deps).Register(r, middleware.AuthMiddleware(issuer, deny), limits...)
	r.NoRoute(handlers.NoRoute)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("aircnc server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("http shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Errorf("close event publisher: %v", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Errorf("close redis: %v", err)
		}
	}
	if err := st.Close(shutdownCtx); err != nil {
		logger.Errorf("close store: %v", err)
	}
	logger.Infof("stopped")
}

// openStore connects to MongoDB with retries. Without MONGODB_URI the
// in-memory store is used.
func openStore(ctx context.Context, cfg *config.Config) store.Store {
	if cfg.MongoDB.URI == "" {
		logger.Warnf("MONGODB_URI not set: using in-memory store, data is lost on restart")
		return store.NewMemoryStore()
	}
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second, func(attempt int, err error) {
		logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
	})
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	logger.Infof("connected to MongoDB, database %s", cfg.MongoDB.Database)

	tx, err := database.SupportsTransactions(ctx, client)
	if err != nil {
		logger.Warnf("transaction support check failed: %v", err)
	}
	if !tx {
		logger.Warnf("MongoDB deployment has no transactions: bookings use compensating updates")
	}

	ms := store.NewMongoStore(client, cfg.MongoDB.Database, tx)
	ictx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer cancel()
	if err := ms.EnsureIndexes(ictx); err != nil {
		logger.Warnf("ensure indexes: %v", err)
	}
	return ms
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	allowed := map[string]bool{}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
		allowed[strings.TrimRight(o, "/")] = true
	}
	c.AllowOriginFunc = func(origin string) bool { return allowed[origin] }
	c.AllowCredentials = true
	return c
}

// readyHandler returns 200 only when the store (and Redis, when configured) answer.
func readyHandler(st store.Store, rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := map[string]bool{"store": st.Ping(ctx) == nil}
		if !deps["store"] {
			ready = false
		}
		if cfg.Redis.Enabled() {
			deps["redis"] = rdb != nil && rdb.Ping(ctx).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}

		uptime := time.Since(startTime).Round(time.Second).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	}
}
