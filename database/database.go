package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NetaKon/Real-Time-Forum/config"
	"github.com/NetaKon/Real-Time-Forum/logging"
)

var log = logging.For("Database")

// Open opens a gorm connection for the sqlite or postgres driver.
// For sqlite, "memory" (or an empty DSN) selects a shared in-memory database;
// any other DSN is treated as a file path.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormConfig := &gorm.Config{Logger: gormLogger}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		log.Info("Initializing postgres database.")
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite, "":
		if cfg.DSN == "memory" || cfg.DSN == "" {
			log.Info("Initializing in-memory SQLite database.")
			dialector = sqlite.Open("file::memory:?cache=shared")
		} else {
			if err := ensureDir(cfg.DSN); err != nil {
				return nil, err
			}
			log.Infof("Initializing file-based SQLite database at '%s'.", cfg.DSN)
			dialector = sqlite.Open(cfg.DSN)
		}
	default:
		return nil, fmt.Errorf("driver %q is not a gorm driver", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver != config.DriverPostgres && (cfg.DSN == "memory" || cfg.DSN == "") {
		// Shared-cache memory databases lock per table; a single connection avoids SQLITE_LOCKED.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// ensureDir creates the parent directory of a sqlite file if it is missing.
func ensureDir(dsn string) error {
	dbDir := filepath.Dir(dsn)
	if dbDir == "." || dbDir == "/" {
		return nil
	}
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		log.Infof("Database directory '%s' does not exist, creating it.", dbDir)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory '%s': %w", dbDir, err)
		}
	}
	return nil
}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.DSN).
		SetTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Infof("MongoDB connection established (database %q).", cfg.Name)
	return client, nil
}

// Pinger reports whether the underlying store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type gormPinger struct{ db *gorm.DB }

// GormPinger wraps a gorm connection for health checks.
func GormPinger(db *gorm.DB) Pinger { return gormPinger{db: db} }

func (p gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type mongoPinger struct{ client *mongo.Client }

// MongoPinger wraps a mongo client for health checks.
func MongoPinger(client *mongo.Client) Pinger { return mongoPinger{client: client} }

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// Close releases the gorm connection pool.
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warnf("Could not obtain sql.DB for close: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warnf("Error closing database: %v", err)
	}
}

// DisconnectMongo disconnects the client, waiting at most timeout.
func DisconnectMongo(client *mongo.Client, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warnf("Error disconnecting mongo: %v", err)
	}
}
