package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgrepo "github.com/gophertalk/feed-service/internal/adapters/db/postgres"
	httptransport "github.com/gophertalk/feed-service/internal/adapters/transport/http"
	httpmw "github.com/gophertalk/feed-service/internal/adapters/transport/http/middleware"
	"github.com/gophertalk/feed-service/internal/app/auth/hasher"
	"github.com/gophertalk/feed-service/internal/app/auth/jwt"
	authsvc "github.com/gophertalk/feed-service/internal/app/auth/service"
	postsvc "github.com/gophertalk/feed-service/internal/app/post/service"
	"github.com/gophertalk/feed-service/internal/domain/clock"
	"github.com/gophertalk/feed-service/internal/infra/config"
	lg "github.com/gophertalk/feed-service/internal/infra/log"
	"github.com/gophertalk/feed-service/internal/infra/migrate"
	"github.com/gophertalk/feed-service/internal/infra/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("gophertalk", "info").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must("gophertalk", cfg.LogLevel)
	defer func() { _ = zapLog.Sync() }()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		v, dirty, err := migrate.Up(context.Background(), sqlDB)
		if err != nil {
			zapLog.Fatal("run migrations", zap.Error(err))
		}
		zapLog.Info("schema ready", zap.Uint("version", v), zap.Bool("dirty", dirty))
	}

	clk := clock.Real{}
	validate := validator.New()

	passwords, err := hasher.NewMulti(
		cfg.PasswordHasher,
		hasher.NewArgon2id(cfg.PasswordPepper, nil),
		hasher.NewBcrypt(bcrypt.DefaultCost),
	)
	if err != nil {
		zapLog.Fatal("failed to init password hasher", zap.Error(err))
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg, clk)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	authService := authsvc.New(pgrepo.NewPostgresUserRepo(db), passwords, jwtUtil, clk, validate)
	postService := postsvc.New(pgrepo.NewPostgresPostRepo(db), clk, validate)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Handler:          httptransport.NewHandler(authService, postService, zapLog),
		Verifier:         jwtUtil,
		Logger:           zapLog,
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		Metrics:          httpmw.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Gatherer:         prometheus.DefaultGatherer,
		Ping:             sqlDB.PingContext,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, sqlDB.PingContext, zapLog)
	})

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddress), zap.Bool("tls", cfg.TLSEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("bye")
}
