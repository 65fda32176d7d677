package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-order-service/src/config"

	"github.com/go-sql-driver/mysql"
)

const defaultPingTimeout = 5 * time.Second

// Open creates the order database pool from cfg and verifies connectivity.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg.MySQLConfig())
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MySQLMaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQLMaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQLConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.MySQLConnMaxIdleTime)

	if err := Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Ping checks the pool with a bounded timeout; used at startup and by the health check.
func Ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	return nil
}
