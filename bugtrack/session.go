// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// SessionConfig holds Cassandra connection settings.
type SessionConfig struct {
	Hosts             []string
	Port              int
	Keyspace          string
	ReplicationFactor int
	ConnectTimeout    time.Duration
	Timeout           time.Duration
}

func (c *SessionConfig) withDefaults() SessionConfig {
	cfg := *c
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []string{"127.0.0.1"}
	}
	if cfg.Port == 0 {
		cfg.Port = 9042
	}
	if cfg.Keyspace == "" {
		cfg.Keyspace = "issue_tracker"
	}
	if cfg.ReplicationFactor == 0 {
		cfg.ReplicationFactor = 1
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// Session is the production Executor: one shared Cassandra session reused
// across requests. Create it before serving and Close it on shutdown; inject
// it into the repositories rather than referencing it as a global.
type Session struct {
	session  *gocql.Session
	keyspace string
	logger   *slog.Logger
}

// NewSession connects to the cluster, ensures the keyspace exists, and
// reconnects scoped to it.
func NewSession(config *SessionConfig, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := config.withDefaults()

	logger.Info("Connecting to Cassandra", "hosts", cfg.Hosts, "port", cfg.Port, "keyspace", cfg.Keyspace)

	if err := ensureKeyspace(cfg); err != nil {
		return nil, fmt.Errorf("ensure keyspace %s: %w", cfg.Keyspace, err)
	}

	cluster := newCluster(cfg)
	cluster.Keyspace = cfg.Keyspace
	sess, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to keyspace %s: %w", cfg.Keyspace, err)
	}

	logger.Info("Cassandra connection established", "keyspace", cfg.Keyspace)
	return &Session{session: sess, keyspace: cfg.Keyspace, logger: logger}, nil
}

func newCluster(cfg SessionConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Port = cfg.Port
	cluster.ProtoVersion = 4
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout
	return cluster
}

// ensureKeyspace connects without a keyspace and creates the target keyspace
// if missing. SimpleStrategy is intentional: single-datacenter development
// topology, matching the replication the schema was designed for.
func ensureKeyspace(cfg SessionConfig) error {
	cluster := newCluster(cfg)
	sess, err := cluster.CreateSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	stmt := fmt.Sprintf(
		"CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}",
		cfg.Keyspace, cfg.ReplicationFactor)
	return sess.Query(stmt).Exec()
}

// Close shuts the underlying session down. Safe to call multiple times.
func (s *Session) Close() {
	if s.session != nil && !s.session.Closed() {
		s.session.Close()
		s.logger.Info("Cassandra connection closed")
	}
}

// Connected reports whether the session is usable.
func (s *Session) Connected() bool {
	return s.session != nil && !s.session.Closed()
}

// Execute runs a write or a multi-row read.
func (s *Session) Execute(ctx context.Context, stmt string, params ...any) ([]Row, error) {
	iter := s.session.Query(stmt, marshalParams(params)...).WithContext(ctx).Iter()

	var rows []Row
	for {
		raw := map[string]interface{}{}
		if !iter.MapScan(raw) {
			break
		}
		rows = append(rows, normalizeRow(raw))
	}
	if err := iter.Close(); err != nil {
		return nil, newStorageError(stmt, err)
	}
	return rows, nil
}

// FetchOne runs a read expected to return 0 or 1 rows; (nil, nil) means no row.
func (s *Session) FetchOne(ctx context.Context, stmt string, params ...any) (Row, error) {
	raw := map[string]interface{}{}
	err := s.session.Query(stmt, marshalParams(params)...).WithContext(ctx).MapScan(raw)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, nil
		}
		return nil, newStorageError(stmt, err)
	}
	return normalizeRow(raw), nil
}

// marshalParams converts uuid.UUID params to the driver's UUID type.
func marshalParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		if id, ok := p.(uuid.UUID); ok {
			out[i] = gocql.UUID(id)
			continue
		}
		out[i] = p
	}
	return out
}

// normalizeRow converts driver UUID values back to uuid.UUID so the rest of
// the package never sees gocql types.
func normalizeRow(raw map[string]interface{}) Row {
	row := make(Row, len(raw))
	for col, v := range raw {
		if id, ok := v.(gocql.UUID); ok {
			row[col] = uuid.UUID(id)
			continue
		}
		row[col] = v
	}
	return row
}
