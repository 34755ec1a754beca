// Command posproxy runs on a counter terminal. It serves the LaundryPOS app
// cache-first from a local bucket and forwards everything else to the
// origin server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/laundrypos/internal/app/proxy"
	cachebucketstore "github.com/dalemusser/laundrypos/internal/app/store/cachebuckets"
	"github.com/dalemusser/laundrypos/internal/app/system/indexes"
	"github.com/dalemusser/laundrypos/internal/app/system/offline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "posproxy",
		Short:         "Cache-first LaundryPOS proxy for counter terminals",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.String("origin", "http://localhost:8080", "LaundryPOS server URL")
	f.String("listen", "127.0.0.1:8090", "local address the terminal browser uses")
	f.String("storage", proxy.StorageMemory, "cache bucket storage: memory or mongo")
	f.String("mongo-uri", "mongodb://localhost:27017", "MongoDB URI for mongo storage")
	f.String("mongo-database", "laundrypos_terminal", "MongoDB database for mongo storage")
	f.Duration("refresh", 5*time.Minute, "how often to check the origin for a new cache generation (0 checks once)")
	f.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	f.String("log-level", "info", "debug, info, warn or error")
	f.String("config", "", "optional config file (yaml, json or toml)")

	_ = v.BindPFlags(f)
	v.SetEnvPrefix("POSPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg := configFrom(v)
	if _, err := cfg.Validate(); err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	srv, err := proxy.New(cfg, storage, nil, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func configFrom(v *viper.Viper) proxy.Config {
	return proxy.Config{
		Origin:          v.GetString("origin"),
		Listen:          v.GetString("listen"),
		Storage:         v.GetString("storage"),
		MongoURI:        v.GetString("mongo-uri"),
		MongoDatabase:   v.GetString("mongo-database"),
		Refresh:         v.GetDuration("refresh"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}
}

func openStorage(ctx context.Context, cfg proxy.Config, logger *zap.Logger) (offline.Storage, func(), error) {
	if cfg.Storage == proxy.StorageMemory {
		logger.Info("using in-memory cache buckets")
		return offline.NewMemoryStorage(), func() {}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI).SetAppName("posproxy"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)
	if err := indexes.EnsureCache(cctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("using MongoDB cache buckets", zap.String("database", cfg.MongoDatabase))

	closeFn := func() {
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	return cachebucketstore.New(db), closeFn, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
