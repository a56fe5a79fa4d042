// Package bootstrap builds the storage backend and store shared by the API
// server and the command line scripts.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/repositories"
	"github.com/ArowuTest/easyearning-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/easyearning-backend/internal/repositories/mongodb"
	pgrepo "github.com/ArowuTest/easyearning-backend/internal/repositories/postgres"
	redisrepo "github.com/ArowuTest/easyearning-backend/internal/repositories/redis"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/ArowuTest/easyearning-backend/pkg/mongodb"
	"github.com/ArowuTest/easyearning-backend/pkg/postgres"
	"github.com/ArowuTest/easyearning-backend/pkg/redisdb"
	"golang.org/x/exp/slog"
)

// OpenRepository connects the configured key-value backend. The returned
// close function releases the connection.
func OpenRepository(ctx context.Context, cfg *config.Config) (repositories.KVRepository, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		slog.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewKVRepository(), func() {}, nil

	case "mongo":
		client, err := mongodb.Connect(ctx, cfg.MongoDB.URI)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		repo := mongorepo.NewKVRepository(client.Database(cfg.MongoDB.Database))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		slog.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)
		return repo, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("Error disconnecting from MongoDB", "error", err)
			}
		}, nil

	case "redis":
		client, err := redisdb.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		slog.Info("Connected to Redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return redisrepo.NewKVRepository(client), func() {
			if err := client.Close(); err != nil {
				slog.Error("Error closing Redis client", "error", err)
			}
		}, nil

	case "postgres":
		db, err := postgres.Connect(cfg.Postgres.DSN, &pgrepo.KVEntry{})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		slog.Info("Connected to PostgreSQL")
		return pgrepo.NewKVRepository(db), func() {
			if err := postgres.Close(db); err != nil {
				slog.Error("Error closing PostgreSQL connection", "error", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// Policy translates the rewards configuration into store rules
func Policy(cfg *config.Config) (store.Policy, error) {
	rate, err := cfg.Rewards.Rate()
	if err != nil {
		return store.Policy{}, err
	}
	loc, err := cfg.Rewards.Location()
	if err != nil {
		return store.Policy{}, err
	}
	methods := make([]string, 0, len(cfg.Rewards.WithdrawalMethods))
	for _, m := range cfg.Rewards.WithdrawalMethods {
		methods = append(methods, strings.ToLower(strings.TrimSpace(m)))
	}
	return store.Policy{
		Withdrawal: ledger.WithdrawalPolicy{
			MinPoints:           cfg.Rewards.MinWithdrawalPoints,
			Methods:             methods,
			PointToCurrencyRate: rate,
		},
		StartingBalance: cfg.Rewards.StartingBalance,
		ReferralBonus:   cfg.Rewards.ReferralBonus,
		RefundRejected:  cfg.Rewards.RefundRejected,
		Location:        loc,
		AdminName:       cfg.Admin.Name,
		AdminEmail:      cfg.Admin.Email,
	}, nil
}

// OpenStore connects storage and hydrates a store from it
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Store, func(), error) {
	policy, err := Policy(cfg)
	if err != nil {
		return nil, nil, err
	}
	repo, closeRepo, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(ctx, repo, store.Options{KeyPrefix: cfg.Storage.KeyPrefix, Policy: policy})
	if err != nil {
		closeRepo()
		return nil, nil, err
	}
	return st, closeRepo, nil
}
