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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/nftvoter/database/blob"
	"github.com/blinklabs-io/nftvoter/database/metadata"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// DataDir is the storage directory. Empty means in-memory storage
	DataDir string
	// MetadataDriver selects the metadata store backend (sqlite or postgres)
	MetadataDriver string
	PostgresDsn    string
	Tracing        bool
}

type Database struct {
	logger   *slog.Logger
	blob     *blob.BlobStoreBadger
	metadata *metadata.MetadataStore
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() *blob.BlobStoreBadger {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() *metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance with optional persistence using the
// configured data directory
func New(cfg *Config) (*Database, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	metadataDriver := cfg.MetadataDriver
	if metadataDriver == "" {
		metadataDriver = metadata.DriverSqlite
	}
	metadataDb, err := metadata.New(
		metadata.WithLogger(logger),
		metadata.WithPromRegistry(cfg.PromRegistry),
		metadata.WithDriver(metadataDriver),
		metadata.WithDataDir(cfg.DataDir),
		metadata.WithDsn(cfg.PostgresDsn),
		metadata.WithTracing(cfg.Tracing),
	)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobDb, err := blob.New(
		blob.WithLogger(logger),
		blob.WithPromRegistry(cfg.PromRegistry),
		blob.WithDataDir(cfg.DataDir),
	)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("open blob store: %w", err),
			metadataDb.Close(),
		)
	}
	logger.Debug(
		"database opened",
		"component", "database",
		"data_dir", cfg.DataDir,
		"metadata_driver", metadataDriver,
	)
	return &Database{
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  cfg.DataDir,
	}, nil
}
