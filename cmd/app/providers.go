package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yanqian/doctor-faq/internal/domain/auth"
	"github.com/yanqian/doctor-faq/internal/domain/faq"
	"github.com/yanqian/doctor-faq/internal/infra/config"
	"github.com/yanqian/doctor-faq/internal/infra/doctorrepo"
	"github.com/yanqian/doctor-faq/internal/infra/faqrepo"
	"github.com/yanqian/doctor-faq/internal/infra/notify"
	"github.com/yanqian/doctor-faq/internal/infra/userrepo"
)

const connectTimeout = 5 * time.Second

// storage holds whichever database connection was established. Both fields
// are nil when the service runs on memory repositories.
type storage struct {
	pool  *pgxpool.Pool
	mongo *mongo.Database
}

func provideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		NotifyTimeout: cfg.FAQ.NotifyTimeout,
	}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

// provideStorage connects to Mongo when a URI is set, else Postgres when a DSN
// is set. Connection failures fall back to memory repositories.
func provideStorage(cfg *config.Config, logger *slog.Logger) (*storage, func()) {
	if uri := strings.TrimSpace(cfg.FAQ.Mongo.URI); uri != "" {
		client, err := connectMongo(uri)
		if err == nil {
			logger.Info("faq mongo storage enabled", "database", cfg.FAQ.Mongo.Database)
			return &storage{mongo: client.Database(cfg.FAQ.Mongo.Database)}, func() {
				ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
				defer cancel()
				_ = client.Disconnect(ctx)
			}
		}
		logger.Error("mongo connection failed, using memory repositories", "error", err)
		return &storage{}, func() {}
	}

	dsn := strings.TrimSpace(cfg.FAQ.Postgres.DSN)
	if dsn == "" {
		logger.Info("no database configured, using memory repositories")
		return &storage{}, func() {}
	}
	pool, err := connectPostgres(dsn, cfg.FAQ.Postgres)
	if err != nil {
		logger.Error("postgres connection failed, using memory repositories", "error", err)
		return &storage{}, func() {}
	}
	logger.Info("faq postgres storage enabled")
	return &storage{pool: pool}, pool.Close
}

func connectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

func connectPostgres(dsn string, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func provideQuestionRepository(s *storage) faq.QuestionRepository {
	switch {
	case s.mongo != nil:
		return faqrepo.NewMongoRepository(s.mongo)
	case s.pool != nil:
		return faqrepo.NewPostgresRepository(s.pool)
	default:
		return faqrepo.NewMemoryRepository()
	}
}

func provideDoctorRepository(s *storage) faq.DoctorRepository {
	switch {
	case s.mongo != nil:
		return doctorrepo.NewMongoRepository(s.mongo)
	case s.pool != nil:
		return doctorrepo.NewPostgresRepository(s.pool)
	default:
		return doctorrepo.NewMemoryRepository()
	}
}

func provideUserRepository(s *storage) faq.UserRepository {
	switch {
	case s.mongo != nil:
		return userrepo.NewMongoRepository(s.mongo)
	case s.pool != nil:
		return userrepo.NewPostgresRepository(s.pool)
	default:
		return userrepo.NewMemoryRepository()
	}
}

// provideNotifier pushes notifications through Valkey when it is enabled and
// reachable, and only logs them otherwise.
func provideNotifier(cfg *config.Config, logger *slog.Logger) (faq.Notifier, func()) {
	fallback := notify.NewLogNotifier(logger)
	if !cfg.FAQ.Valkey.Enabled {
		return fallback, func() {}
	}
	opt, err := buildValkeyOptions(cfg.FAQ.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, logging notifications", "error", err)
		return fallback, func() {}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, logging notifications", "error", err)
		return fallback, func() {}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, logging notifications", "error", err)
		client.Close()
		return fallback, func() {}
	}
	logger.Info("valkey notifications enabled", "addr", cfg.FAQ.Valkey.Addr)
	return notify.NewValkeyNotifier(client, cfg.FAQ.Valkey.Prefix), client.Close
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
