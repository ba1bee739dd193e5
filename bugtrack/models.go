// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"time"

	"github.com/google/uuid"
)

// Domain entity models for the issue tracker tables
// These models mirror the persisted table shapes and carry json tags for the HTTP API

// Status is the lifecycle state of an issue, stored as its string tag.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusReopened   Status = "reopened"
)

// Known reports whether s is one of the closed set of status tags.
func (s Status) Known() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusReopened:
		return true
	}
	return false
}

// statusTransitions is the documented status machine. It is intentionally NOT
// enforced by the repository: the system accepts any known status on update,
// matching observed behavior. ValidTransition exists so callers can opt in.
var statusTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusClosed, StatusReopened},
	StatusInProgress: {StatusResolved, StatusOpen, StatusClosed},
	StatusResolved:   {StatusClosed, StatusReopened},
	StatusClosed:     {StatusReopened},
	StatusReopened:   {StatusInProgress, StatusOpen, StatusClosed},
}

// ValidTransition reports whether moving from s to next follows the status machine.
func (s Status) ValidTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Priority is the urgency of an issue, stored as its string tag.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Known reports whether p is one of the closed set of priority tags.
func (p Priority) Known() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// UserRole is the role of a tracker user, stored as its string tag.
type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleDeveloper      UserRole = "developer"
	RoleTester         UserRole = "tester"
	RoleProjectManager UserRole = "project_manager"
)

// Known reports whether r is one of the closed set of role tags.
func (r UserRole) Known() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester, RoleProjectManager:
		return true
	}
	return false
}

// Issue is the canonical entity. The issues_by_project row keyed by
// (project_id, created_at, issue_id) is the source of truth; every other
// issue table is a derived, disposable projection of this struct.
//
// ReporterID and CreatedAt are immutable after creation. AssigneeID and
// Component are optional: a nil assignee / empty component means the issue
// has no row in the corresponding view.
type Issue struct {
	IssueID     uuid.UUID  `json:"issue_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	Component   string     `json:"component,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Project is a simple owned entity, keyed by project_id.
type Project struct {
	ProjectID   uuid.UUID `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is a simple owned entity, keyed by user_id.
type User struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is write-once, read-many. Keyed by
// (project_id, issue_id, created_at, comment_id); no view sync applies.
type Comment struct {
	CommentID uuid.UUID `json:"comment_id"`
	IssueID   uuid.UUID `json:"issue_id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEvent is one immutable field-level change record, keyed by
// (project_id, issue_id, changed_at, event_id). Never updated or deleted.
// OldValue/NewValue are string renderings; nil means the field was absent.
type HistoryEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	IssueID      uuid.UUID `json:"issue_id"`
	ProjectID    uuid.UUID `json:"project_id"`
	FieldChanged string    `json:"field_changed"`
	OldValue     *string   `json:"old_value"`
	NewValue     *string   `json:"new_value"`
	ChangedBy    uuid.UUID `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"`
}
