package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/eduline/billing-service/pkg/logger"
)

// ConnectPostgres открывает подключение к PostgreSQL и ждет его готовности.
// Повторные попытки только на старте, запросы во время работы не ретраятся.
func ConnectPostgres(ctx context.Context, dsn string, log *logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn("Database is not ready yet: %v", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Connected to PostgreSQL")
	return db, nil
}
