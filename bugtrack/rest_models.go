// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// REST/JSON models for HTTP API requests and responses

// Optional is a tri-state JSON field: absent from the payload (Set=false),
// explicitly null (Set && Null), or carrying a value (Set && !Null). Partial
// updates need the distinction because "clear this field" and "leave this
// field alone" are different requests.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

var jsonNull = []byte("null")

// UnmarshalJSON is only invoked for keys present in the payload, so Set
// flips true for both null and value forms.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON renders null for unset or null fields.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// OptionalOf wraps a value as a supplied Optional.
func OptionalOf[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// OptionalNull returns an explicitly-null Optional.
func OptionalNull[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// CreateUserRequest creates a tracker user. Role defaults to developer.
type CreateUserRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role,omitempty"`
}

// CreateProjectRequest creates a project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateIssueRequest creates an issue. Status defaults to open, priority to
// medium.
type CreateIssueRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	Component   string     `json:"component,omitempty"`
}

// UpdateIssueRequest is the wire form of a partial issue update; it decodes
// straight into an IssuePatch.
type UpdateIssueRequest = IssuePatch

// CreateCommentRequest adds a comment to an issue.
type CreateCommentRequest struct {
	UserID  uuid.UUID `json:"user_id"`
	Content string    `json:"content"`
}

// ProjectStatistics aggregates a project's issues by status, priority and
// component.
type ProjectStatistics struct {
	ProjectID         uuid.UUID      `json:"project_id"`
	TotalIssues       int            `json:"total_issues"`
	IssuesByStatus    map[string]int `json:"issues_by_status"`
	IssuesByPriority  map[string]int `json:"issues_by_priority"`
	IssuesByComponent map[string]int `json:"issues_by_component"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse reports whether the storage session is reachable.
type HealthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
}

// SeedResponse lists the identifiers created by the admin seed endpoint.
type SeedResponse struct {
	Message string      `json:"message"`
	Created *SeedResult `json:"created,omitempty"`
}
