// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

// Operation constants for view write intents
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Issue field names as they appear in table columns, view key declarations,
// and history events
const (
	FieldProjectID   = "project_id"
	FieldIssueID     = "issue_id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssigneeID  = "assignee_id"
	FieldReporterID  = "reporter_id"
	FieldComponent   = "component"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
)

// TrackedFields is the allow-list of fields recorded in issue history.
// reporter_id and created_at are immutable and deliberately excluded.
var TrackedFields = []string{
	FieldTitle,
	FieldDescription,
	FieldStatus,
	FieldPriority,
	FieldAssigneeID,
	FieldComponent,
}
