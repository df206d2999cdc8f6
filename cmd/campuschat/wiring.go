package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"campuschat/internal/app/commands"
	"campuschat/internal/app/directory"
	"campuschat/internal/app/fanout"
	chathandlers "campuschat/internal/app/handlers/chat"
	"campuschat/internal/app/middleware"
	appoutbox "campuschat/internal/app/outbox"
	"campuschat/internal/app/policies"
	"campuschat/internal/app/queries"
	"campuschat/internal/app/session"
	domainlistings "campuschat/internal/domain/listings"
	domainuser "campuschat/internal/domain/user"
	"campuschat/internal/infra/broker/kafka"
	"campuschat/internal/infra/config"
	mongostore "campuschat/internal/infra/db/mongo"
	ginserver "campuschat/internal/infra/http/gin"
	"campuschat/internal/infra/obs"
	infraoutbox "campuschat/internal/infra/outbox"
	redisrt "campuschat/internal/infra/realtime/redis"
	"campuschat/internal/infra/security"
	"campuschat/internal/infra/storage/memory"
	"campuschat/internal/infra/storage/s3"
	"campuschat/internal/infra/storage/scylla"
)

const idempotencyRetention = 24 * time.Hour

type application struct {
	handlers ginserver.Handlers
	checks   map[string]obs.Check
	workers  []func(context.Context) error
	closers  []func(context.Context) error
	notifier *fanout.Notifier
}

// stores holds one implementation of every port, chosen by STORE_MODE.
type stores struct {
	conversations policies.ConversationRepository
	messages      policies.MessageLog
	listings      domainlistings.Reader
	users         domainuser.Directory
	attachments   policies.AttachmentStore
	feed          policies.NotificationFeed
	idempotency   middleware.IdempotencyStore
	outbox        outboxStore
}

type outboxStore interface {
	appoutbox.Outbox
	infraoutbox.Store
	Wake() <-chan struct{}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *obs.Metrics) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	var (
		st  stores
		err error
	)
	if cfg.Persistent() {
		st, err = app.persistentStores(ctx, cfg, logger)
	} else {
		st, err = memoryStores(cfg, logger)
	}
	if err != nil {
		app.close(logger)
		return nil, err
	}

	signals, err := app.changeSignals(ctx, cfg, logger)
	if err != nil {
		app.close(logger)
		return nil, err
	}

	var eventOutbox appoutbox.Outbox
	feed := st.feed
	if cfg.FeedMode == config.FeedOutbox {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "campuschat-api")
		if err != nil {
			app.close(logger)
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		worker := &infraoutbox.Worker{
			Store:       st.outbox,
			Producer:    producer,
			Wake:        st.outbox.Wake(),
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
			Logger:      logger.With("component", "outbox"),
		}
		app.workers = append(app.workers, worker.Run)
		eventOutbox = st.outbox
		feed = &appoutbox.Feed{Outbox: st.outbox, Encoder: appoutbox.JSONEventEncoder{}}
	}

	app.notifier = &fanout.Notifier{
		Feed:     feed,
		Logger:   logger.With("component", "fanout"),
		Backoff:  cfg.RetryBackoff,
		Failures: metrics.FanoutFailures,
	}
	dir := &directory.Service{
		Conversations:   st.conversations,
		Messages:        st.messages,
		Listings:        st.listings,
		Signals:         signals,
		PollInterval:    cfg.LivePollInterval,
		Logger:          logger.With("component", "directory"),
		PreviewFailures: metrics.DirectoryErrors,
		ActiveStreams:   metrics.LiveStreams,
	}

	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	chathandlers.Handlers{
		Open: &chathandlers.OpenConversationHandler{
			Conversations: st.conversations,
			Listings:      st.listings,
			Users:         st.users,
			Signals:       signals,
			Outbox:        eventOutbox,
			Encoder:       appoutbox.JSONEventEncoder{},
			Logger:        logger,
		},
		Send: &chathandlers.SendMessageHandler{
			Conversations:   st.conversations,
			Messages:        st.messages,
			Signals:         signals,
			Fanout:          app.notifier,
			Logger:          logger,
			PreviewFailures: metrics.PreviewFailures,
		},
		Upload:            &chathandlers.UploadAttachmentHandler{Conversations: st.conversations, Store: st.attachments},
		MarkRead:          &chathandlers.MarkReadHandler{Conversations: st.conversations, Signals: signals, Logger: logger},
		GetConversation:   &chathandlers.GetConversationHandler{Conversations: st.conversations},
		ListMessages:      &chathandlers.ListMessagesHandler{Conversations: st.conversations, Messages: st.messages, Location: cfg.DisplayTimezone},
		ListConversations: &chathandlers.ListConversationsHandler{Directory: dir},
	}.Register(cmdBus, queryBus)

	cmdMiddleware := []middleware.CommandMiddleware{
		middleware.Logging(logger),
		middleware.Instrument(metrics),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(st.idempotency, nil, logger),
	}
	if eventOutbox != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.OutboxFlush(eventOutbox, logger))
	}
	cmd := middleware.ChainCommands(cmdBus, cmdMiddleware...)
	query := middleware.ChainQueries(queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryInstrument(metrics),
		middleware.QueryAuthorization(middleware.RequireActor{}),
	)

	verifier, err := security.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		app.close(logger)
		return nil, err
	}

	app.handlers = ginserver.Handlers{
		Chat: ginserver.ChatHandler{Commands: cmd, Queries: query, Logger: logger},
		Live: ginserver.LiveHandler{
			Sessions: &session.Controller{
				Commands:      cmd,
				Queries:       query,
				Signals:       signals,
				PollInterval:  cfg.LivePollInterval,
				Logger:        logger.With("component", "session"),
				ActiveStreams: metrics.LiveStreams,
			},
			Directory: dir,
			Upgrader: websocket.Upgrader{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				CheckOrigin:     allowOrigin(cfg.Env),
			},
			Logger: logger,
		},
		Attachments:    ginserver.AttachmentHandler{Store: st.attachments, Conversations: st.conversations, Logger: logger},
		Metrics:        metrics.Handler(),
		AuthMiddleware: ginserver.AuthMiddleware{Verifier: verifier, Logger: logger}.Handle,
	}
	return app, nil
}

func memoryStores(cfg config.Config, logger *slog.Logger) (stores, error) {
	listings := memory.NewListingStore()
	users := memory.NewUserDirectory()
	path := cfg.FixturesPath
	if path == "" {
		path = defaultFixturesPath()
	}
	stats, err := memory.LoadFixtures(path, listings, users)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("fixtures file not found, skipping", "path", path)
	case err != nil:
		return stores{}, fmt.Errorf("load fixtures: %w", err)
	default:
		logger.Info("fixtures imported", "path", path, "listings", stats.Listings, "users", stats.Users)
	}
	return stores{
		conversations: memory.NewConversationRepository(),
		messages:      memory.NewMessageLog(),
		listings:      listings,
		users:         users,
		attachments:   memory.NewBlobStore("/api/v1/attachments"),
		feed:          memory.NewNotificationFeed(),
		idempotency:   memory.NewIdempotencyStore(idempotencyRetention),
		outbox:        memory.NewOutbox(),
	}, nil
}

func (a *application) persistentStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return stores{}, fmt.Errorf("mongo connect: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.checks["mongo"] = client.Ping
	db := client.DB

	conversations, err := mongostore.NewConversationRepository(ctx, db)
	if err != nil {
		return stores{}, err
	}
	feed, err := mongostore.NewNotificationFeed(ctx, db)
	if err != nil {
		return stores{}, err
	}
	idempotency, err := mongostore.NewIdempotencyStore(ctx, db, idempotencyRetention)
	if err != nil {
		return stores{}, err
	}
	box, err := infraoutbox.NewMongoStore(ctx, db)
	if err != nil {
		return stores{}, err
	}

	cql, err := scylla.NewSession(ctx, scylla.Options{
		Hosts:             cfg.ScyllaHosts,
		Keyspace:          cfg.ScyllaKeyspace,
		Username:          cfg.ScyllaUsername,
		Password:          cfg.ScyllaPassword,
		Consistency:       cfg.ScyllaConsistency,
		Timeout:           cfg.ScyllaTimeout,
		ReplicationFactor: cfg.ScyllaReplicationFactor,
	}, logger)
	if err != nil {
		return stores{}, err
	}
	a.closers = append(a.closers, func(context.Context) error { cql.Close(); return nil })

	attachments, err := s3.NewAttachmentStore(s3.Options{
		Endpoint:       cfg.S3Endpoint,
		UseSSL:         cfg.S3UseSSL,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		Bucket:         cfg.S3Bucket,
		PublicEndpoint: cfg.S3PublicEndpoint,
	}, logger)
	if err != nil {
		return stores{}, err
	}
	a.checks["s3"] = attachments.Ping

	return stores{
		conversations: conversations,
		messages:      scylla.NewMessageLog(cql),
		listings:      mongostore.NewListingReader(db),
		users:         mongostore.NewUserDirectory(db),
		attachments:   attachments,
		feed:          feed,
		idempotency:   idempotency,
		outbox:        box,
	}, nil
}

// changeSignals uses Redis pub/sub when configured so that several API
// replicas wake each other's live streams.
func (a *application) changeSignals(ctx context.Context, cfg config.Config, logger *slog.Logger) (policies.ChangeSignals, error) {
	if cfg.RedisAddr == "" {
		return memory.NewSignals(), nil
	}
	client, err := redisrt.NewClient(ctx, redisrt.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return redisrt.NewSignals(client, logger.With("component", "signals")), nil
}

// close waits for pending notification deliveries, then releases clients in
// reverse order of acquisition.
func (a *application) close(logger *slog.Logger) {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func allowOrigin(env string) func(r *http.Request) bool {
	switch env {
	case "dev", "local", "test":
		return func(*http.Request) bool { return true }
	default:
		return nil
	}
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "fixtures.json"),
		filepath.Join("..", "..", "data", "fixtures.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
