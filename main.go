package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"conversation-service/internal/cache"
	"conversation-service/internal/config"
	"conversation-service/internal/db"
	"conversation-service/internal/grpcserver"
	"conversation-service/internal/handlers"
	"conversation-service/internal/memstore"
	"conversation-service/internal/middleware"
	"conversation-service/internal/observability"
	"conversation-service/internal/push"
	"conversation-service/internal/rabbitmq"
	"conversation-service/internal/repositories"
	"conversation-service/internal/services"
	"conversation-service/internal/telemetry"
	"conversation-service/internal/wordfilter"
	"conversation-service/internal/ws"
)

type storage struct {
	conversations repositories.ConversationRepository
	participants  repositories.ParticipantRepository
	messages      repositories.MessageRepository
	blocks        repositories.BlockRepository
	users         repositories.UserRepository
	reports       repositories.ReportRepository
	words         repositories.SensitiveWordRepository
	close         func()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer store.close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)

	filter := wordfilter.New(store.words)
	if err := filter.Refresh(ctx); err != nil {
		log.Printf("wordfilter: initial load failed: %v", err)
	}
	go filter.Run(ctx, cfg.WordFilterRefresh)

	hub := ws.NewHub()
	engine := services.New(services.Deps{
		Conversations: store.conversations,
		Participants:  store.participants,
		Messages:      store.messages,
		Blocks:        store.blocks,
		Users:         store.users,
		Reports:       store.reports,
		Transport:     push.Fanout{hub, rabbitmq.NewTransport(publisher)},
		Filter:        filter,
		Audit:         audit,
		Limits: services.Limits{
			RecallWindow:   cfg.RecallWindow,
			MaxOwnedGroups: cfg.MaxOwnedGroups,
		},
	})

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", observability.HeaderUserID, observability.HeaderRequestID, observability.HeaderDeviceID},
		ExposeHeaders: []string{observability.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(otelgin.Middleware(cfg.ServiceName), observability.HTTPMetricsMiddleware(), middleware.RequestID())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "publisher": rabbitmq.PublisherMode(publisher)})
	})
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	api := router.Group("/", middleware.Identity())
	handlers.RegisterRoutes(api, engine, audit)

	wsHandler := ws.NewHandler(hub, engine)
	api.GET("/ws/conversations/:id", wsHandler.Conversation)
	api.GET("/ws/notifications", wsHandler.Notifications)

	health := grpcserver.New()
	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen grpc: %v", err)
	}
	go func() {
		if err := health.Serve(grpcLis); err != nil {
			log.Printf("grpc server error: %v", err)
		}
	}()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("http listening on %s storage=%s", srv.Addr, cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	health.SetServing(true)

	<-ctx.Done()
	log.Printf("shutting down")
	health.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}

func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	var s storage
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memstore.New()
		s = storage{
			conversations: mem,
			participants:  mem,
			messages:      mem,
			blocks:        mem,
			users:         mem,
			reports:       mem,
			words:         mem,
			close:         func() {},
		}
	default:
		database, err := db.Connect(ctx, cfg.DBDSN)
		if err != nil {
			return storage{}, err
		}
		s = storage{
			conversations: repositories.NewConversationRepo(database),
			participants:  repositories.NewParticipantRepo(database),
			messages:      repositories.NewMessageRepo(database),
			blocks:        repositories.NewBlockRepo(database),
			users:         repositories.NewUserRepo(database),
			reports:       repositories.NewReportRepo(database),
			words:         repositories.NewSensitiveWordRepo(database),
			close:         func() { database.Close() },
		}
	}

	if cfg.RedisURL == "" {
		return s, nil
	}
	redisCache, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("profile cache disabled: %v", err)
		return s, nil
	}
	s.users = cache.NewUserCache(s.users, redisCache, cfg.ProfileCacheTTL)
	closeStore := s.close
	s.close = func() {
		redisCache.Close()
		closeStore()
	}
	return s, nil
}
