// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"fmt"
)

// EnsureSchema creates the issue-tracker tables and secondary indexes if they
// don't exist. The keyspace itself is created by the Session at connect time.
// Safe to run on every startup.
func EnsureSchema(ctx context.Context, exec Executor) error {
	migrations := []string{
		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS projects (
			project_id UUID,
			name TEXT,
			description TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY (project_id)
		)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS users (
			user_id UUID,
			username TEXT,
			email TEXT,
			role TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY (user_id)
		)`,

		// Canonical issue table: the source of truth every view derives from.
		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issues_by_project (
			project_id UUID,
			created_at TIMESTAMP,
			issue_id UUID,
			title TEXT,
			description TEXT,
			status TEXT,
			priority TEXT,
			assignee_id UUID,
			reporter_id UUID,
			component TEXT,
			updated_at TIMESTAMP,
			PRIMARY KEY (project_id, created_at, issue_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, issue_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issues_by_status (
			project_id UUID,
			status TEXT,
			created_at TIMESTAMP,
			issue_id UUID,
			title TEXT,
			priority TEXT,
			assignee_id UUID,
			PRIMARY KEY ((project_id, status), created_at, issue_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, issue_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issues_by_priority (
			project_id UUID,
			priority TEXT,
			created_at TIMESTAMP,
			issue_id UUID,
			title TEXT,
			status TEXT,
			assignee_id UUID,
			PRIMARY KEY ((project_id, priority), created_at, issue_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, issue_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issues_by_assignee (
			project_id UUID,
			assignee_id UUID,
			status TEXT,
			created_at TIMESTAMP,
			issue_id UUID,
			title TEXT,
			priority TEXT,
			PRIMARY KEY ((project_id, assignee_id), status, created_at, issue_id)
		) WITH CLUSTERING ORDER BY (status ASC, created_at DESC, issue_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issues_by_component (
			project_id UUID,
			component TEXT,
			created_at TIMESTAMP,
			issue_id UUID,
			title TEXT,
			status TEXT,
			priority TEXT,
			assignee_id UUID,
			PRIMARY KEY ((project_id, component), created_at, issue_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, issue_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issue_comments (
			project_id UUID,
			issue_id UUID,
			created_at TIMESTAMP,
			comment_id UUID,
			user_id UUID,
			content TEXT,
			PRIMARY KEY ((project_id, issue_id), created_at, comment_id)
		) WITH CLUSTERING ORDER BY (created_at DESC, comment_id ASC)`,

		/*language=cassandraql*/ `CREATE TABLE IF NOT EXISTS issue_history (
			project_id UUID,
			issue_id UUID,
			changed_at TIMESTAMP,
			event_id UUID,
			field_changed TEXT,
			old_value TEXT,
			new_value TEXT,
			changed_by UUID,
			PRIMARY KEY ((project_id, issue_id), changed_at, event_id)
		) WITH CLUSTERING ORDER BY (changed_at DESC, event_id ASC)`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_user ON issue_comments (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_field ON issue_history (field_changed)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues_by_project (status)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_priority ON issues_by_project (priority)`,
	}

	for _, stmt := range migrations {
		if _, err := exec.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// allTables lists every table owned by this system, for the admin truncate
// surface.
var allTables = []string{
	"users",
	"projects",
	"issues_by_project",
	"issues_by_status",
	"issues_by_assignee",
	"issues_by_priority",
	"issues_by_component",
	"issue_comments",
	"issue_history",
}

// TruncateAll clears every table without dropping them.
func TruncateAll(ctx context.Context, exec Executor) error {
	for _, table := range allTables {
		if _, err := exec.Execute(ctx, "TRUNCATE "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
