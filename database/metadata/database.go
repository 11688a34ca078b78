// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/nftvoter/database/models"
	"github.com/blinklabs-io/nftvoter/database/types"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported metadata driver")
	ErrMissingDsn        = errors.New("postgres driver requires a DSN")
)

// gormTxn wraps a gorm transaction and implements types.Txn
type gormTxn struct {
	store    *MetadataStore
	db       *gorm.DB
	finished bool
	beginErr error
}

func (t *gormTxn) Commit() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	if result := t.db.Commit(); result.Error != nil {
		return result.Error
	}
	t.finished = true
	return nil
}

func (t *gormTxn) Rollback() error {
	if t.beginErr != nil {
		return t.beginErr
	}
	if t.finished {
		return nil
	}
	t.finished = true
	if result := t.db.Rollback(); result.Error != nil {
		return result.Error
	}
	return nil
}

// MetadataStore keeps registrars, voter weight records and the attestation
// log in a relational database
type MetadataStore struct {
	promRegistry prometheus.Registerer
	db           *gorm.DB
	logger       *slog.Logger
	driver       string
	dataDir      string
	dsn          string
	tracing      bool
}

// New opens the metadata store and applies schema migrations
func New(opts ...MetadataStoreOptionFunc) (*MetadataStore, error) {
	d := &MetadataStore{
		driver: DriverSqlite,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dialector, err := d.dialector()
	if err != nil {
		return nil, err
	}
	gormDb, err := gorm.Open(
		dialector,
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.driver, err)
	}
	d.db = gormDb
	if err := d.init(); err != nil {
		// Close on init failure so callers don't leak connections
		return nil, errors.Join(err, d.Close())
	}
	return d, nil
}

func (d *MetadataStore) dialector() (gorm.Dialector, error) {
	switch d.driver {
	case DriverSqlite:
		if d.dataDir == "" {
			// Each in-memory store gets its own named database so that
			// separate instances in one process don't share state
			return sqlite.Open(
				fmt.Sprintf(
					"file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)",
					uuid.NewString(),
				),
			), nil
		}
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(d.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(d.dataDir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		metadataDbPath := filepath.Join(d.dataDir, "metadata.sqlite")
		connOpts := "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		return sqlite.Open(
			fmt.Sprintf("file:%s?%s", metadataDbPath, connOpts),
		), nil
	case DriverPostgres:
		if d.dsn == "" {
			return nil, ErrMissingDsn
		}
		return postgres.Open(d.dsn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, d.driver)
	}
}

func (d *MetadataStore) init() error {
	if d.driver == DriverSqlite {
		// SQLite allows a single writer. Funnel everything through one
		// connection so that transactions serialize instead of failing
		// with SQLITE_BUSY
		sqlDb, err := d.db.DB()
		if err != nil {
			return fmt.Errorf("get database handle: %w", err)
		}
		sqlDb.SetMaxOpenConns(1)
	}
	if d.tracing {
		if err := d.db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return fmt.Errorf("configure tracing: %w", err)
		}
	}
	if d.promRegistry != nil {
		sqlDb, err := d.db.DB()
		if err != nil {
			return fmt.Errorf("get database handle: %w", err)
		}
		if err := d.promRegistry.Register(
			collectors.NewDBStatsCollector(sqlDb, "metadata"),
		); err != nil {
			return fmt.Errorf("register database metrics: %w", err)
		}
	}
	for _, model := range models.MigrateModels {
		d.logger.Debug(
			fmt.Sprintf("creating table: %T", model),
			"component", "database",
		)
		if err := d.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	return nil
}

// Driver returns the configured database driver name
func (d *MetadataStore) Driver() string {
	return d.driver
}

// DB returns the underlying GORM database handle
func (d *MetadataStore) DB() *gorm.DB {
	return d.db
}

// Close shuts down the database connection
func (d *MetadataStore) Close() error {
	db, err := d.DB().DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return db.Close()
}

// Transaction creates a new database transaction
func (d *MetadataStore) Transaction() types.Txn {
	db := d.DB().Begin()
	if db.Error != nil {
		d.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", db.Error,
		)
		return &gormTxn{store: d, beginErr: db.Error}
	}
	return &gormTxn{store: d, db: db}
}

// resolveDB returns the gorm handle for the given transaction, or the base
// handle when txn is nil
func (d *MetadataStore) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return d.DB(), nil
	}
	gtxn, ok := txn.(*gormTxn)
	if !ok || gtxn == nil {
		return nil, types.ErrTxnWrongType
	}
	if gtxn.beginErr != nil {
		return nil, gtxn.beginErr
	}
	if gtxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if gtxn.finished {
		return nil, types.ErrTxnFinished
	}
	return gtxn.db, nil
}
