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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

type MetadataStoreOptionFunc func(*MetadataStore)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.promRegistry = registry
	}
}

// WithDriver selects the database driver (sqlite or postgres)
func WithDriver(driver string) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.driver = driver
	}
}

// WithDataDir specifies the data directory to use for sqlite storage. An
// empty data dir uses an in-memory database
func WithDataDir(dataDir string) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.dataDir = dataDir
	}
}

// WithDsn specifies the postgres connection string
func WithDsn(dsn string) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.dsn = dsn
	}
}

// WithTracing enables the gorm OpenTelemetry plugin
func WithTracing(enabled bool) MetadataStoreOptionFunc {
	return func(m *MetadataStore) {
		m.tracing = enabled
	}
}
