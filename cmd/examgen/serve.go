package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examgen/internal/content"
	"github.com/pavelanni/examgen/internal/events"
	"github.com/pavelanni/examgen/internal/exam"
	"github.com/pavelanni/examgen/internal/handler"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/llm"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/metrics"
	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/store"
	"github.com/pavelanni/examgen/internal/store/gormstore"
)

const sessionCleanupInterval = time.Hour

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "examgen.db", "SQLite database path (users, sessions, content)")
	f.String("database-url", "", "PostgreSQL URL; when set, uploaded content is stored there")
	f.String("handoff", "sqlite", "Where generated exams wait to be taken (memory, sqlite, redis)")
	f.String("redis-url", "redis://localhost:6379/0", "Redis URL for --handoff=redis")
	f.Duration("handoff-ttl", 24*time.Hour, "Lifetime of a generated exam waiting to be taken")
	f.StringSlice("kafka-brokers", nil, "Kafka brokers for domain events (in-process when empty)")
	addLLMFlags(cmd)
	f.Bool("skip-llm-ping", false, "Do not check the LLM endpoint at startup")
	f.StringP("lang", "l", "es", "Notification language (es, en)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.Bool("allow-signup", false, "Let visitors create student accounts")
	f.String("admin-password", "", "Initial admin password (or set EXAMGEN_ADMIN_PASSWORD)")
	f.Uint64("shuffle-seed", 0, "Fixed seed for matching-option shuffles (0 = random)")
	f.Float64("process-rate-limit", 0, "Requests per second on the public process-content endpoint (0 = unlimited)")
	f.Int("process-rate-burst", 10, "Burst size for --process-rate-limit")
	f.StringP("difficulty", "d", string(model.DifficultyMedium), "Default exam difficulty (bajo, medio, alto)")
	addLogFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logCloser := setupLogging(v)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(ctx, db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	difficulty, err := prompts.ParseDifficulty(v.GetString("difficulty"))
	if err != nil {
		return err
	}

	var contents content.Repository = db
	if url := v.GetString("database-url"); url != "" {
		repo, err := gormstore.Open(url, v.GetString("log-level") == "debug")
		if err != nil {
			return fmt.Errorf("open content database: %w", err)
		}
		defer repo.Close()
		contents = repo
		slog.Info("storing uploaded content in PostgreSQL")
	}

	handoffTTL := v.GetDuration("handoff-ttl")
	handoff, closeHandoff, err := openHandoff(ctx, v, db, handoffTTL)
	if err != nil {
		return err
	}
	defer closeHandoff()

	gen, err := newGenerator(ctx, v, !v.GetBool("skip-llm-ping"))
	if err != nil {
		return err
	}

	pub, inProc, err := events.New(events.Config{
		KafkaBrokers: v.GetStringSlice("kafka-brokers"),
		Logger:       slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create event publisher: %w", err)
	}
	defer pub.Close()
	if inProc != nil {
		if err := logEvents(ctx, inProc); err != nil {
			return fmt.Errorf("subscribe to events: %w", err)
		}
	}

	m := metrics.New()
	deps := handler.Deps{
		Users:    db,
		Contents: contents,
		Handoff:  handoff,
		Events:   pub,
		Metrics:  m,
		Config: model.ServerConfig{
			Lang:              lang,
			SecureCookies:     v.GetBool("secure-cookies"),
			HandoffTTL:        handoffTTL,
			ShuffleSeed:       v.GetUint64("shuffle-seed"),
			ProcessRateLimit:  v.GetFloat64("process-rate-limit"),
			ProcessRateBurst:  v.GetInt("process-rate-burst"),
			AllowSignup:       v.GetBool("allow-signup"),
			DefaultDifficulty: difficulty,
		},
	}
	if gen != nil {
		deps.Generator = gen
	}
	h, err := handler.New(deps)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	go cleanupSessions(ctx, db)

	addr := v.GetString("addr")
	srv := &http.Server{Addr: addr, Handler: r}
	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"model", v.GetString("llm-model"),
			"llm_url", v.GetString("llm-url"),
			"llm_enabled", gen != nil,
			"lang", lang,
			"handoff", v.GetString("handoff"),
			"difficulty", difficulty,
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGenerator returns nil when no API key is configured; generation
// requests then fail with a missing-key notification.
func newGenerator(ctx context.Context, v *viper.Viper, ping bool) (*llm.Generator, error) {
	key := v.GetString("llm-key")
	if key == "" {
		slog.Warn("no LLM API key configured, generation is disabled")
		return nil, nil
	}
	client := llm.New(v.GetString("llm-url"), key, v.GetString("llm-model"), float32(v.GetFloat64("temperature")))
	if ping {
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}
	return llm.NewGenerator(client), nil
}

func openHandoff(ctx context.Context, v *viper.Viper, db *store.Store, ttl time.Duration) (exam.Handoff, func(), error) {
	switch kind := v.GetString("handoff"); kind {
	case "memory":
		return exam.NewMemoryHandoff(ttl), func() {}, nil
	case "", "sqlite":
		return store.NewHandoffSlots(db, "handoff", ttl), func() {}, nil
	case "redis":
		opt, err := redis.ParseURL(v.GetString("redis-url"))
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		slog.Info("using redis handoff", "addr", opt.Addr)
		return exam.NewRedisHandoff(client, ttl), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown handoff store %q (memory, sqlite, redis)", kind)
	}
}

// logEvents logs every in-process domain event at debug level.
func logEvents(ctx context.Context, sub *gochannel.GoChannel) error {
	for _, topic := range []string{
		events.TopicContentSaved,
		events.TopicContentDeleted,
		events.TopicExamGenerated,
		events.TopicExamSubmitted,
	} {
		msgs, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		go func() {
			for msg := range msgs {
				ev, err := events.Decode(msg)
				if err != nil {
					slog.Warn("undecodable event", "topic", topic, "error", err)
				} else {
					slog.Debug("event", "topic", topic, "type", ev.Type, "user_id", ev.UserID, "data", ev.Data)
				}
				msg.Ack()
			}
		}()
	}
	return nil
}

func cleanupSessions(ctx context.Context, db *store.Store) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.CleanupExpiredSessions(ctx); err != nil {
				slog.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

func seedAdmin(ctx context.Context, db *store.Store, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EXAMGEN_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(ctx, model.User{
		Username:     "admin",
		DisplayName:  "Administrador",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
