package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"

	"github.com/romiluz13/Studio-Oscar/internal/auth"
	"github.com/romiluz13/Studio-Oscar/internal/config"
	"github.com/romiluz13/Studio-Oscar/internal/db"
	"github.com/romiluz13/Studio-Oscar/internal/drafts"
	"github.com/romiluz13/Studio-Oscar/internal/events"
	"github.com/romiluz13/Studio-Oscar/internal/feed"
	"github.com/romiluz13/Studio-Oscar/internal/models"
	"github.com/romiluz13/Studio-Oscar/internal/notify"
	"github.com/romiluz13/Studio-Oscar/internal/posts"
	"github.com/romiluz13/Studio-Oscar/internal/storage"
	"github.com/romiluz13/Studio-Oscar/internal/stream"
)

const retryBackoff = 200 * time.Millisecond

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     db.Querier
	Redis  *redis.Client
	Stream *stream.Hub

	Posts  *posts.Service
	Events *events.Service

	postWatcher  *feed.Watcher[models.Post]
	eventWatcher *feed.Watcher[models.Event]
}

// NewServer wires every service. q may be nil when Postgres is unreachable
// at startup; Start then reports the failure.
func NewServer(cfg config.Config, q db.Querier, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     q,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	notifySvc := notify.NewService(s.DB)

	var draftStore *drafts.Store
	if s.Redis != nil {
		draftStore = drafts.NewStore(s.Redis)
		drafts.RegisterRoutes(s.App.Group("/drafts"), draftStore, jwtMiddleware)
	}

	postCache := feed.NewCache[models.Post](s.Cfg.OptimisticTTL)
	postOpts := posts.Options{
		Limit:    s.Cfg.FeedLimit,
		Attempts: s.Cfg.MutationAttempts,
		Backoff:  retryBackoff,
		Origin:   s.Cfg.PublicOrigin,
		Mentions: notifySvc,
	}
	if draftStore != nil {
		postOpts.Drafts = draftStore
	}
	s.Posts = posts.NewService(s.DB, postCache, s.Stream, postOpts)
	s.postWatcher = feed.NewWatcher(stream.TopicPosts, s.Posts.Snapshot, postCache, s.Stream)

	eventCache := feed.NewCache[models.Event](s.Cfg.OptimisticTTL)
	s.Events = events.NewService(s.DB, eventCache, s.Stream, events.Options{
		Attempts: s.Cfg.MutationAttempts,
		Backoff:  retryBackoff,
	})
	s.eventWatcher = feed.NewWatcher(stream.TopicEvents, s.Events.Snapshot, eventCache, s.Stream)

	var blobs storage.BlobStore
	if s.Cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinary(s.Cfg.CloudinaryURL)
		if err != nil {
			glog.Warningf("avatar uploads disabled: %v", err)
		} else {
			blobs = cld
		}
	}

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc, jwtMiddleware)
	posts.RegisterRoutes(s.App.Group("/posts"), s.Posts, jwtMiddleware)
	events.RegisterRoutes(s.App.Group("/events"), s.Events, jwtMiddleware)
	notify.RegisterRoutes(s.App.Group("/notifications"), notifySvc, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB, blobs, authSvc), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// Start loads the first posts and events snapshots and subscribes both
// caches to change notifications.
func (s *Server) Start(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("no database connection")
	}
	if err := s.postWatcher.Start(ctx); err != nil {
		return err
	}
	return s.eventWatcher.Start(ctx)
}

func (s *Server) Close() error {
	return s.Stream.Close()
}

// errorHandler answers every failed request with {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		glog.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
