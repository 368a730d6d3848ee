// Package infra opens the storage backends of the escrow service.
package infra

import (
	"errors"
	"fmt"

	"github.com/amirasaad/escrow/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/prometheus"
)

// ErrUnsupportedDriver is returned for a DATABASE_DRIVER gorm cannot open.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// dialector picks the gorm driver for cnf.Driver.
func dialector(cnf *config.DB) (gorm.Dialector, error) {
	switch cnf.Driver {
	case "", "postgres":
		return postgres.Open(cnf.Url), nil
	case "mysql":
		return mysql.Open(cnf.Url), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cnf.Driver)
}

// NewDBConnection opens the configured database, sizes its pool and
// registers the gorm Prometheus plugin under dbName.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
	dbName string,
) (*gorm.DB, error) {
	if cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	dial, err := dialector(cnf)
	if err != nil {
		return nil, err
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(dial, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cnf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cnf.ConnMaxLifetime)

	if err := connection.Use(prometheus.New(metricsConfig(cnf, dbName))); err != nil {
		return nil, fmt.Errorf("failed to register database metrics: %w", err)
	}
	return connection, nil
}

func metricsConfig(cnf *config.DB, dbName string) prometheus.Config {
	pc := prometheus.Config{
		DBName:          dbName,
		RefreshInterval: 15,
		StartServer:     false,
	}
	if cnf.Driver == "mysql" {
		pc.MetricsCollector = []prometheus.MetricsCollector{
			&prometheus.MySQL{VariableNames: []string{"Threads_running"}},
		}
	}
	return pc
}
