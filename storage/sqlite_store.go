// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
	"go.uber.org/zap"

	"github.com/dftimeline/tlstore/cache"
	"github.com/dftimeline/tlstore/compression"
	"github.com/dftimeline/tlstore/containers"
	"github.com/dftimeline/tlstore/identifiers"
	"github.com/dftimeline/tlstore/observability/metrics"
	storeerrors "github.com/dftimeline/tlstore/pkg/errors"
)

type sqliteState int

const (
	sqliteClosed sqliteState = iota
	sqliteOpenRead
	sqliteOpenWrite
)

// SQLiteOptions configures a new durable store. Only Path is required.
// StorageType and CompressionMethod take effect only when creating a
// fresh file; an existing file keeps the values in its metadata table.
type SQLiteOptions struct {
	Path              string
	ReadOnly          bool
	StorageType       StorageType
	CompressionMethod compression.Method
	CacheCapacity     int
	Logger            *zap.Logger
	Metrics           *metrics.StoreMetrics
}

// SQLiteStore is the durable relational-file attribute container
// store, grounded on the original sqlite_file.py's SQLiteStorageFile.
// It uses modernc.org/sqlite, a pure-Go SQLite driver, so the engine
// never requires a C toolchain on the evidence workstation it runs on.
type SQLiteStore struct {
	mu sync.Mutex

	opts  SQLiteOptions
	db    *sql.DB
	state sqliteState
	meta  storageMetadata
	cache *cache.ContainerCache

	counters     map[string]int64
	schemaTables map[string]bool
	logger       *zap.Logger
}

// NewSQLiteStore builds a closed SQLiteStore from opts.
func NewSQLiteStore(opts SQLiteOptions) *SQLiteStore {
	if opts.CompressionMethod == "" {
		opts.CompressionMethod = compression.None
	}
	if opts.StorageType == "" {
		opts.StorageType = Session
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{
		opts:     opts,
		cache:    cache.New(opts.CacheCapacity),
		counters: make(map[string]int64),
		logger:   logger,
	}
}

func dsn(path string, readOnly bool) string {
	if readOnly {
		return fmt.Sprintf("file:%s?mode=ro", path)
	}
	return path
}

// Open implements the durable store's half of the lifecycle state
// machine (spec §4.10): closed -> open-read or open-write.
func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()

	if s.state != sqliteClosed {
		return storeerrors.ErrAlreadyOpen
	}

	if s.opts.ReadOnly && !fileExists(s.opts.Path) {
		return storeerrors.ErrNotFound
	}

	db, err := sql.Open("sqlite", dsn(s.opts.Path, s.opts.ReadOnly))
	if err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}

	if !s.opts.ReadOnly {
		if _, err := db.ExecContext(ctx, `PRAGMA synchronous=OFF`); err != nil {
			db.Close()
			return storeerrors.ErrBackendError.Wrap(err)
		}
	}

	exists, err := metadataTableExists(ctx, db)
	if err != nil {
		db.Close()
		return err
	}

	var meta storageMetadata
	if !exists {
		if s.opts.ReadOnly {
			db.Close()
			return storeerrors.ErrInvalidFormatMetadata
		}
		meta = storageMetadata{
			formatVersion:       CurrentFormatVersion,
			compressionMethod:   s.opts.CompressionMethod,
			serializationFormat: "json",
			storageType:         s.opts.StorageType,
		}
		if err := createMetadataTable(ctx, db, meta); err != nil {
			db.Close()
			return err
		}
	} else {
		meta, err = readMetadata(ctx, db)
		if err != nil {
			db.Close()
			return err
		}
		if err := validateMetadata(meta, !s.opts.ReadOnly); err != nil {
			db.Close()
			return err
		}
		if !s.opts.ReadOnly && meta.formatVersion >= UpgradeCompatibleFormatVersion && meta.formatVersion < CurrentFormatVersion {
			if err := bumpFormatVersion(ctx, db); err != nil {
				db.Close()
				return err
			}
			meta.formatVersion = CurrentFormatVersion
		}
	}

	for _, containerType := range containers.AllTypes() {
		if !typeApplies(containerType, meta.storageType) {
			continue
		}
		present, err := tableExists(ctx, db, containerType)
		if err != nil {
			db.Close()
			return err
		}
		if !present {
			if s.opts.ReadOnly {
				continue
			}
			if err := createContainerTable(ctx, db, containerType, meta.compressionMethod); err != nil {
				db.Close()
				return err
			}
		}
	}

	// schemaTables records, per container type, whether its table on
	// disk actually carries named schema columns rather than the legacy
	// _data blob column — inspected directly rather than inferred from
	// meta.formatVersion, so a file reopened mid-upgrade is read
	// correctly regardless of what its metadata row claims.
	counters := make(map[string]int64)
	schemaTables := make(map[string]bool)
	for _, containerType := range containers.AllTypes() {
		if !typeApplies(containerType, meta.storageType) {
			continue
		}
		present, err := tableExists(ctx, db, containerType)
		if err != nil {
			db.Close()
			return err
		}
		if !present {
			continue
		}
		count, err := rowCount(ctx, db, containerType)
		if err != nil {
			db.Close()
			return err
		}
		counters[containerType] = count

		usesSchema, err := tableUsesSchema(ctx, db, containerType)
		if err != nil {
			db.Close()
			return err
		}
		schemaTables[containerType] = usesSchema
	}

	startCount := counters[containers.TypeSessionStart]
	completionCount := counters[containers.TypeSessionCompletion]
	if startCount != completionCount {
		s.logger.Warn("unclosed session detected on open",
			zap.String("path", s.opts.Path),
			zap.Int64("session_start_count", startCount),
			zap.Int64("session_completion_count", completionCount),
		)
	}

	s.db = db
	s.meta = meta
	s.counters = counters
	s.schemaTables = schemaTables
	if s.opts.ReadOnly {
		s.state = sqliteOpenRead
	} else {
		s.state = sqliteOpenWrite
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordOpenLatency(string(meta.storageType), time.Since(started))
	}
	return nil
}

func rowCount(ctx context.Context, db *sql.DB, containerType string) (int64, error) {
	row := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, containerType))
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, storeerrors.ErrBackendError.Wrap(err)
	}
	return count, nil
}

// Close implements Store. Close commits the outstanding transaction by
// closing the underlying *sql.DB (modernc.org/sqlite runs without an
// explicit BEGIN here, so closing is sufficient to flush).
func (s *SQLiteStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sqliteClosed {
		return storeerrors.ErrAlreadyClosed
	}

	err := s.db.Close()
	s.db = nil
	s.state = sqliteClosed
	s.meta = storageMetadata{}
	if err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}
	return nil
}

// Metadata is the durable store's metadata table, exported read-only
// for diagnostic tooling (cmd/tlstore inspect).
type Metadata struct {
	FormatVersion       int64
	CompressionMethod   compression.Method
	SerializationFormat string
	StorageType         StorageType
}

// Metadata returns the open store's metadata. Callers must hold the
// store open; the zero Metadata is returned otherwise.
func (s *SQLiteStore) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Metadata{
		FormatVersion:       s.meta.formatVersion,
		CompressionMethod:   s.meta.compressionMethod,
		SerializationFormat: s.meta.serializationFormat,
		StorageType:         s.meta.storageType,
	}
}

// Counts returns a snapshot of the per-container-type row counts
// gathered when the store was opened, for diagnostic tooling
// (cmd/tlstore inspect). It does not re-query the database, so it
// reflects the count at open time plus any writes this handle itself
// has made since.
func (s *SQLiteStore) Counts() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// useSchemaFor reports whether containerType's table, as it actually
// exists on disk, carries named schema columns. This is the Go
// counterpart of the original's self._use_schema decision, resolved
// per table from tableUsesSchema at Open time rather than from a
// single file-wide format_version comparison, so reads stay correct
// even for a table whose layout predates the rest of the file.
func (s *SQLiteStore) useSchemaFor(containerType string) bool {
	return s.schemaTables[containerType]
}

func (s *SQLiteStore) requireWritable() error {
	if s.state != sqliteOpenWrite {
		return storeerrors.ErrNotWritable
	}
	return nil
}

func (s *SQLiteStore) requireReadable() error {
	if s.state == sqliteClosed {
		return storeerrors.ErrNotReadable
	}
	return nil
}

// Add implements Store.
func (s *SQLiteStore) Add(ctx context.Context, c *containers.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	if s.opts.Metrics != nil {
		defer func() { s.opts.Metrics.RecordAdd(c.Type, time.Since(started)) }()
	}

	if err := s.requireWritable(); err != nil {
		return err
	}
	if !containers.IsKnownType(c.Type) {
		return storeerrors.ErrUnsupportedContainerType.WithDetail("container_type", c.Type)
	}

	row, err := rewriteReferencesOutbound(c)
	if err != nil {
		return err
	}

	columns, values, err := buildRowValues(c.Type, row, s.meta.compressionMethod)
	if err != nil {
		return err
	}

	rowID, err := s.insertRow(ctx, c.Type, columns, values)
	if err != nil {
		return err
	}

	id := identifiers.NewRowIdentifier(c.Type, rowID)
	c.Identifier = id
	s.counters[c.Type] = rowID

	if c.Type == containers.TypeEventSource && s.meta.storageType == Session {
		cached := c.Clone()
		cached.Identifier = id
		s.cache.Put(cache.Key{ContainerType: c.Type, Index: rowID - 1}, cached)
	}
	return nil
}

func (s *SQLiteStore) insertRow(ctx context.Context, containerType string, columns []string, values []interface{}) (int64, error) {
	placeholders := ""
	cols := ""
	for i, col := range columns {
		if i > 0 {
			placeholders += ", "
			cols += ", "
		}
		placeholders += "?"
		cols += fmt.Sprintf("%q", col)
	}

	query := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, containerType, cols, placeholders)
	result, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, storeerrors.ErrBackendError.Wrap(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storeerrors.ErrBackendError.Wrap(err)
	}
	return id, nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, c *containers.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	if s.opts.Metrics != nil {
		defer func() { s.opts.Metrics.RecordUpdate(c.Type, time.Since(started)) }()
	}

	if err := s.requireWritable(); err != nil {
		return err
	}

	rowID, ok := c.Identifier.(*identifiers.RowIdentifier)
	if !ok {
		return storeerrors.ErrUnsupportedIdentifier
	}

	count, err := rowCount(ctx, s.db, c.Type)
	if err != nil {
		return err
	}
	if rowID.SequenceNumber() < 1 || rowID.SequenceNumber() > count {
		return storeerrors.ErrMissingContainer.WithDetail("identifier", rowID.SerializeToString())
	}

	row, err := rewriteReferencesOutbound(c)
	if err != nil {
		return err
	}

	columns, values, err := buildRowValues(c.Type, row, s.meta.compressionMethod)
	if err != nil {
		return err
	}

	setClause := ""
	for i, col := range columns {
		if i > 0 {
			setClause += ", "
		}
		setClause += fmt.Sprintf("%q = ?", col)
	}
	values = append(values, rowID.SequenceNumber())

	query := fmt.Sprintf(`UPDATE %q SET %s WHERE _identifier = ?`, c.Type, setClause)
	if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
		return storeerrors.ErrBackendError.Wrap(err)
	}

	s.cache.Invalidate(cache.Key{ContainerType: c.Type, Index: rowID.Index()})
	return nil
}

// GetByIdentifier implements Store.
func (s *SQLiteStore) GetByIdentifier(ctx context.Context, containerType string, id identifiers.Identifier) (*containers.Container, error) {
	rowID, ok := id.(*identifiers.RowIdentifier)
	if !ok {
		return nil, storeerrors.ErrUnsupportedIdentifier
	}
	return s.GetByIndex(ctx, containerType, rowID.Index())
}

// GetByIndex implements Store.
func (s *SQLiteStore) GetByIndex(ctx context.Context, containerType string, index int64) (*containers.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	if s.opts.Metrics != nil {
		defer func() { s.opts.Metrics.RecordGetByIndex(containerType, time.Since(started)) }()
	}

	if err := s.requireReadable(); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, nil
	}

	cacheable := cacheableType(containerType, s.useSchemaFor(containerType))
	key := cache.Key{ContainerType: containerType, Index: index}
	if cacheable {
		if v, ok := s.cache.Get(key); ok {
			if s.opts.Metrics != nil {
				s.opts.Metrics.RecordCacheHit(containerType)
			}
			return v.(*containers.Container).Clone(), nil
		}
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordCacheMiss(containerType)
		}
	}

	c, err := s.readRowByRowID(ctx, containerType, index+1)
	if err != nil || c == nil {
		return c, err
	}

	if cacheable {
		s.cache.Put(key, c.Clone())
	}
	return c, nil
}

// cacheableType excludes container types whose legacy round-trip would
// be incorrect from caching: event tags read from a table that still
// carries the legacy layout must never be served from cache.
func cacheableType(containerType string, useSchema bool) bool {
	if containerType == containers.TypeEventTag && !useSchema {
		return false
	}
	return true
}

func (s *SQLiteStore) readRowByRowID(ctx context.Context, containerType string, rowID int64) (*containers.Container, error) {
	schema, _ := containers.Fields(containerType)
	useSchema := s.useSchemaFor(containerType)

	var query string
	if useSchema {
		cols := "_identifier"
		for _, f := range schema {
			cols += fmt.Sprintf(`, %q`, f.Name)
		}
		query = fmt.Sprintf(`SELECT %s FROM %q WHERE rowid = ?`, cols, containerType)
	} else {
		if containerType == containers.TypeEvent {
			query = fmt.Sprintf(`SELECT _identifier, _timestamp, _data FROM %q WHERE rowid = ?`, containerType)
		} else {
			query = fmt.Sprintf(`SELECT _identifier, _data FROM %q WHERE rowid = ?`, containerType)
		}
	}

	row := s.db.QueryRowContext(ctx, query, rowID)
	c, err := scanRow(row, containerType, schema, useSchema, s.meta.compressionMethod)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Identifier = identifiers.NewRowIdentifier(containerType, rowID)
	rewriteReferencesInbound(containerType, c.Fields)
	return c, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, containerType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReadable(); err != nil {
		return 0, err
	}
	return rowCount(ctx, s.db, containerType)
}

// Has implements Store.
func (s *SQLiteStore) Has(ctx context.Context, containerType string) (bool, error) {
	count, err := s.Count(ctx, containerType)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EventTagFor implements Store. Enforces the at-most-one-row rule
// directly in SQL: if more than one tag matches, the scan below sees
// multiple rows and the lookup returns absent rather than guessing.
func (s *SQLiteStore) EventTagFor(ctx context.Context, eventID identifiers.Identifier) (*containers.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReadable(); err != nil {
		return nil, err
	}

	rowID, ok := eventID.(*identifiers.RowIdentifier)
	if !ok {
		return nil, storeerrors.ErrUnsupportedIdentifier
	}

	rows, err := s.db.QueryContext(ctx, `SELECT _identifier, event_row_identifier, labels FROM event_tag WHERE event_row_identifier = ?`, rowID.SequenceNumber())
	if err != nil {
		return nil, storeerrors.ErrBackendError.Wrap(err)
	}
	defer rows.Close()

	schema, _ := containers.Fields(containers.TypeEventTag)

	var found *containers.Container
	count := 0
	for rows.Next() {
		count++
		c, err := scanRows(rows, containers.TypeEventTag, schema, true, s.meta.compressionMethod)
		if err != nil {
			return nil, err
		}
		found = c
	}
	if err := rows.Err(); err != nil {
		return nil, storeerrors.ErrBackendError.Wrap(err)
	}
	if count != 1 {
		return nil, nil
	}

	rewriteReferencesInbound(containers.TypeEventTag, found.Fields)
	return found, nil
}

// Iterate implements Store.
func (s *SQLiteStore) Iterate(ctx context.Context, containerType string) (Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReadable(); err != nil {
		return nil, err
	}
	return s.queryIterator(ctx, containerType, "", nil, "_identifier")
}

// SortedEvents implements Store.
func (s *SQLiteStore) SortedEvents(ctx context.Context, timeRange *TimeRange) (Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReadable(); err != nil {
		return nil, err
	}

	timestampCol := "timestamp"
	if !s.useSchemaFor(containers.TypeEvent) {
		timestampCol = "_timestamp"
	}

	where := ""
	var args []interface{}
	if timeRange != nil {
		if timeRange.Start != nil {
			where += fmt.Sprintf(`%q >= ?`, timestampCol)
			args = append(args, *timeRange.Start)
		}
		if timeRange.End != nil {
			if where != "" {
				where += " AND "
			}
			where += fmt.Sprintf(`%q <= ?`, timestampCol)
			args = append(args, *timeRange.End)
		}
	}

	return s.queryIterator(ctx, containers.TypeEvent, where, args, timestampCol)
}

// queryIterator builds and executes SELECT _identifier, <cols> FROM
// <type> [WHERE ...] [ORDER BY ...] on a dedicated cursor per spec
// §4.7's iterate/filter/sort helper, never exposing raw SQL to callers.
func (s *SQLiteStore) queryIterator(ctx context.Context, containerType, where string, args []interface{}, orderBy string) (Iterator, error) {
	schema, _ := containers.Fields(containerType)
	useSchema := s.useSchemaFor(containerType)

	cols := "_identifier"
	if useSchema {
		for _, f := range schema {
			cols += fmt.Sprintf(`, %q`, f.Name)
		}
	} else if containerType == containers.TypeEvent {
		cols += `, _timestamp, _data`
	} else {
		cols += `, _data`
	}

	query := fmt.Sprintf(`SELECT %s FROM %q`, cols, containerType)
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(` ORDER BY %q`, orderBy)
	if orderBy != "_identifier" {
		// Break ties in insertion order.
		query += `, _identifier`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerrors.ErrBackendError.Wrap(err)
	}

	return &sqlIterator{
		rows:          rows,
		containerType: containerType,
		schema:        schema,
		useSchema:     useSchema,
		compression:   s.meta.compressionMethod,
	}, nil
}

// NextSystemConfigurationIdentifier implements Store. Mirrors the
// original's non-consuming counter read (spec §9 open question): the
// sequence counter is not incremented by this call.
func (s *SQLiteStore) NextSystemConfigurationIdentifier(ctx context.Context) (identifiers.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReadable(); err != nil {
		return nil, err
	}

	next := s.counters[containers.TypeSystemConfiguration] + 1
	return identifiers.NewRowIdentifier(containers.TypeSystemConfiguration, next), nil
}

// sqlIterator adapts a *sql.Rows cursor to Iterator. Each Iterate /
// SortedEvents call opens its own *sql.Rows, so simultaneous iteration
// never shares a cursor.
type sqlIterator struct {
	rows          *sql.Rows
	containerType string
	schema        []containers.Field
	useSchema     bool
	compression   compression.Method

	current *containers.Container
	err     error
}

func (it *sqlIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}

	c, err := scanRows(it.rows, it.containerType, it.schema, it.useSchema, it.compression)
	if err != nil {
		it.err = err
		return false
	}
	rewriteReferencesInbound(it.containerType, c.Fields)
	it.current = c
	return true
}

func (it *sqlIterator) Container() *containers.Container { return it.current }

func (it *sqlIterator) Err() error { return it.err }

func (it *sqlIterator) Close() error {
	return it.rows.Close()
}
