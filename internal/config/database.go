package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// ErrNoDatabase is returned by the helpers below when no pool was opened
var ErrNoDatabase = errors.New("database not initialized")

// OpenDatabase opens the MySQL pool described by cfg and checks it answers
func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:                 gormLogger(cfg),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := PingDatabase(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Printf("✅ Database connected [%s/%s, pool %d]",
		cfg.Database.Addr(),
		cfg.Database.DBName,
		cfg.Database.MaxOpenConns,
	)
	return db, nil
}

// gormLogger logs every statement in dev and only errors in prod
func gormLogger(cfg *Config) logger.Interface {
	if cfg.IsDev() {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Error)
}

// Addr is the host:port of the database server
func (d DatabaseConfig) Addr() string {
	return net.JoinHostPort(d.Host, d.Port)
}

// DSN renders the go-sql-driver connection string
func (d DatabaseConfig) DSN() string {
	mc := mysqldrv.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = d.Addr()
	mc.DBName = d.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// PingDatabase reports whether db answers within pingTimeout
func PingDatabase(db *gorm.DB) error {
	if db == nil {
		return ErrNoDatabase
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// CloseDatabase closes the pool behind db
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return ErrNoDatabase
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
