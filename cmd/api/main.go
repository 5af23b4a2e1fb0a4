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
	"github.com/rs/cors"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/ratelimit"
	"institute-reviews/cmd/api/router"
	"institute-reviews/cmd/api/services"
	"institute-reviews/cmd/internal/logger"
	"institute-reviews/config"
	"institute-reviews/db"
	_ "institute-reviews/docs" // swag generates this package
	"institute-reviews/models"
	"institute-reviews/repositories"
	"institute-reviews/repositories/memstore"
)

// @title           Institute Reviews API
// @version         1.0
// @description     Reviews, ratings and reactions for courses and blogs
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init("LOG_LEVEL", cfg.Logging.Level)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		logger.ErrorWithFields("startup failed", logger.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer cleanup()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           600,
	}).Handler(router.New(deps))

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoWithFields("api listening", logger.Fields{"addr": cfg.Server.Addr, "store": cfg.Store.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithFields("api server stopped", logger.Fields{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("api shutdown failed", logger.Fields{"error": err.Error()})
	}
}

func buildDeps(ctx context.Context, cfg config.AppConfig) (router.Deps, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	jwtManager, err := auth.NewJWTManagerFromEnv(cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		return router.Deps{}, cleanup, err
	}

	var (
		reviewStore  services.ReviewStore
		userStore    services.UserStore
		accountStore services.AccountStore
		subjects     = map[models.SubjectType]services.SubjectStore{}
		pinger       interface{ Ping(context.Context) error }
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		mem := memstore.New()
		reviewStore, userStore, accountStore = mem.Reviews(), mem.Users(), mem.Users()
		for _, t := range models.SubjectTypes {
			subjects[t] = mem.Subjects(t)
		}
		for _, c := range cfg.Seed.Courses {
			mem.Subjects(models.SubjectCourse).Put(seedSubject(c.SeedSubject))
		}
		for _, b := range cfg.Seed.Blogs {
			mem.Subjects(models.SubjectBlog).Put(seedSubject(b.SeedSubject))
		}
		pinger = mem
		logger.Log.Warn("using in-memory store; data is lost on restart")
	default:
		database, err := db.Init(ctx, cfg.Mongo)
		if err != nil {
			return router.Deps{}, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = db.Disconnect(context.Background()) })
		users := repositories.NewUserRepository(database)
		reviewStore, userStore, accountStore = repositories.NewReviewRepository(database), users, users
		for _, t := range models.SubjectTypes {
			subjects[t] = repositories.NewSubjectRepository(database, t)
		}
		pinger = db.Pinger{Client: db.Client()}
		logger.InfoWithFields("mongodb connected and indexes ensured", logger.Fields{"database": cfg.Mongo.Database})
	}

	var limiter ratelimit.Limiter
	switch {
	case cfg.RateLimit.RequestsPerMinute <= 0:
	case cfg.RateLimit.RedisAddr != "":
		client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisAddr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			return router.Deps{}, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		limiter = ratelimit.NewRedisLimiter(client, "rl:", cfg.RateLimit.RequestsPerMinute, time.Minute)
	default:
		limiter = ratelimit.NewFixedWindowLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	return router.Deps{
		Reviews: services.NewReviewService(reviewStore, userStore, subjects),
		Auth:    services.NewAuthService(accountStore, jwtManager),
		Store:   pinger,
		Limiter: limiter,
	}, cleanup, nil
}

func seedSubject(s config.SeedSubject) models.Subject {
	return models.Subject{
		Name:       s.Name,
		ShortDesc:  s.ShortDesc,
		CategoryID: s.CategoryID,
		ImageKey:   s.ImageKey,
	}
}
