package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/clinic-appointments/internal/config"
	"github.com/hackgods/clinic-appointments/internal/db"
	"github.com/hackgods/clinic-appointments/internal/logging"
	"github.com/hackgods/clinic-appointments/internal/user"
)

const batchSize = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("seed", "dev").Error("config load error", "err", err)
		os.Exit(1)
	}
	logger := logging.New("seed", cfg.Env)
	logger.Info("seed starting")

	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Error("seed needs STORE_DRIVER=postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB := db.OpenSQL(pool)
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, logger); err != nil {
		logger.Error("migrate", "err", err)
		os.Exit(1)
	}

	f := gofakeit.New(uint64(time.Now().UnixNano()))

	doctors := getInt("SEED_DOCTORS", 100)
	patients := getInt("SEED_PATIENTS", 9000)

	if err := seedUsers(ctx, sqlDB, logger, "doctors", doctors, func() user.User { return user.FakeDoctor(f) }); err != nil {
		logger.Error("seed doctors", "err", err)
		os.Exit(1)
	}
	if err := seedUsers(ctx, sqlDB, logger, "patients", patients, func() user.User { return user.FakePatient(f) }); err != nil {
		logger.Error("seed patients", "err", err)
		os.Exit(1)
	}

	logger.Info("seed complete")
}

func seedUsers(ctx context.Context, sqlDB *sql.DB, logger *slog.Logger, kind string, count int, next func() user.User) error {
	logger.Info("seeding users", "kind", kind, "count", count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := sqlDB.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			if err := user.Insert(ctx, tx, next()); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert %s #%d: %w", kind, i, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return err
		}

		logger.Info("users seeded", "kind", kind, "done", end, "total", count)
	}

	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
