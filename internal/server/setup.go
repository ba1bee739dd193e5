// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package server wires the tracker together: session, schema, repositories,
// handlers and middleware. Shared by the server binary and integration tests.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mobiletoly/go-bugtrack/bugtrack"
)

// Config is loaded from the environment.
type Config struct {
	CassandraHosts    []string      `env:"CASSANDRA_HOSTS" envSeparator:"," envDefault:"127.0.0.1"`
	CassandraPort     int           `env:"CASSANDRA_PORT" envDefault:"9042"`
	Keyspace          string        `env:"CASSANDRA_KEYSPACE" envDefault:"issue_tracker"`
	ReplicationFactor int           `env:"CASSANDRA_REPLICATION_FACTOR" envDefault:"1"`
	ConnectTimeout    time.Duration `env:"CASSANDRA_CONNECT_TIMEOUT" envDefault:"30s"`
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8000"`
	JWTSecret         string        `env:"JWT_SECRET" envDefault:""`
	LogLevel          slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig parses configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment config: %w", err)
	}
	return cfg, nil
}

// Components holds the assembled server pieces.
type Components struct {
	Handler http.Handler
	Logger  *slog.Logger
	Session *bugtrack.Session

	closeFn func()
}

// Close releases the storage session.
func (c *Components) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// SetupServer connects to the store, ensures the schema, and assembles the
// HTTP handler stack.
func SetupServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	session, err := bugtrack.NewSession(&bugtrack.SessionConfig{
		Hosts:             cfg.CassandraHosts,
		Port:              cfg.CassandraPort,
		Keyspace:          cfg.Keyspace,
		ReplicationFactor: cfg.ReplicationFactor,
		ConnectTimeout:    cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setup session: %w", err)
	}

	if err := bugtrack.EnsureSchema(ctx, session); err != nil {
		session.Close()
		return nil, fmt.Errorf("setup schema: %w", err)
	}

	issues := bugtrack.NewIssueRepository(session, logger)
	users := bugtrack.NewUserRepository(session, logger)
	projects := bugtrack.NewProjectRepository(session, logger)
	comments := bugtrack.NewCommentRepository(session, logger)
	seeder := bugtrack.NewSeeder(session, issues, users, projects, comments, logger)

	handlers := bugtrack.NewHTTPHandlers(issues, users, projects, comments, seeder, session, logger)
	mux := handlers.Routes()

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		handler = bugtrack.NewJWTAuth(cfg.JWTSecret).Middleware(mux)
	} else {
		logger.Warn("JWT_SECRET not set, history attribution falls back to issue reporters")
	}

	return &Components{
		Handler: handler,
		Logger:  logger,
		Session: session,
		closeFn: session.Close,
	}, nil
}
