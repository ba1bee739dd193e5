// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"time"
)

// ViewSpec declares one denormalized issue table. The synchronizer is driven
// entirely by these declarations: partition key + clustering key determine
// whether an update can stay in place, Carried lists the denormalized value
// columns, and Includes decides whether an issue belongs in the view at all.
//
// Adding a new view means appending a ViewSpec here; the synchronizer and the
// repository need no changes.
type ViewSpec struct {
	// Name is the table name.
	Name string

	// PartitionKey lists the fields whose values select a partition, in order.
	PartitionKey []string

	// ClusteringKey lists the fields that order rows within a partition, in
	// order. issue_id always terminates it as a tie-break for determinism.
	ClusteringKey []string

	// Carried lists the denormalized non-key columns the view copies.
	Carried []string

	// Includes is the inclusion predicate: whether the issue has a row in
	// this view at all.
	Includes func(*Issue) bool
}

// KeyFields returns the full primary key (partition key then clustering key).
func (v ViewSpec) KeyFields() []string {
	key := make([]string, 0, len(v.PartitionKey)+len(v.ClusteringKey))
	key = append(key, v.PartitionKey...)
	key = append(key, v.ClusteringKey...)
	return key
}

// Columns returns every column of the view in declaration order.
func (v ViewSpec) Columns() []string {
	return append(v.KeyFields(), v.Carried...)
}

func includeAlways(*Issue) bool { return true }

func includeAssigned(is *Issue) bool { return is.AssigneeID != nil }

func includeWithComponent(is *Issue) bool { return is.Component != "" }

// registeredViews is the static view registry. issues_by_project is the
// canonical table and must stay first so one logical operation always writes
// the source of truth before any derived view.
var registeredViews = []ViewSpec{
	{
		Name:          "issues_by_project",
		PartitionKey:  []string{FieldProjectID},
		ClusteringKey: []string{FieldCreatedAt, FieldIssueID},
		Carried: []string{
			FieldTitle, FieldDescription, FieldStatus, FieldPriority,
			FieldAssigneeID, FieldReporterID, FieldComponent, FieldUpdatedAt,
		},
		Includes: includeAlways,
	},
	{
		Name:          "issues_by_status",
		PartitionKey:  []string{FieldProjectID, FieldStatus},
		ClusteringKey: []string{FieldCreatedAt, FieldIssueID},
		Carried:       []string{FieldTitle, FieldPriority, FieldAssigneeID},
		Includes:      includeAlways,
	},
	{
		Name:          "issues_by_priority",
		PartitionKey:  []string{FieldProjectID, FieldPriority},
		ClusteringKey: []string{FieldCreatedAt, FieldIssueID},
		Carried:       []string{FieldTitle, FieldStatus, FieldAssigneeID},
		Includes:      includeAlways,
	},
	{
		Name:          "issues_by_assignee",
		PartitionKey:  []string{FieldProjectID, FieldAssigneeID},
		ClusteringKey: []string{FieldStatus, FieldCreatedAt, FieldIssueID},
		Carried:       []string{FieldTitle, FieldPriority},
		Includes:      includeAssigned,
	},
	{
		Name:          "issues_by_component",
		PartitionKey:  []string{FieldProjectID, FieldComponent},
		ClusteringKey: []string{FieldCreatedAt, FieldIssueID},
		Carried:       []string{FieldTitle, FieldStatus, FieldPriority, FieldAssigneeID},
		Includes:      includeWithComponent,
	},
}

// RegisteredViews returns the ordered view registry (canonical table first).
func RegisteredViews() []ViewSpec {
	views := make([]ViewSpec, len(registeredViews))
	copy(views, registeredViews)
	return views
}

// CanonicalView returns the declaration of the canonical issues_by_project table.
func CanonicalView() ViewSpec {
	return registeredViews[0]
}

// issueFieldValue projects one issue field to its storage parameter value.
// Optional fields project to nil when absent so the stored column is null.
func issueFieldValue(is *Issue, field string) any {
	switch field {
	case FieldProjectID:
		return is.ProjectID
	case FieldIssueID:
		return is.IssueID
	case FieldTitle:
		return is.Title
	case FieldDescription:
		return is.Description
	case FieldStatus:
		return string(is.Status)
	case FieldPriority:
		return string(is.Priority)
	case FieldAssigneeID:
		if is.AssigneeID == nil {
			return nil
		}
		return *is.AssigneeID
	case FieldReporterID:
		return is.ReporterID
	case FieldComponent:
		if is.Component == "" {
			return nil
		}
		return is.Component
	case FieldCreatedAt:
		return is.CreatedAt
	case FieldUpdatedAt:
		return is.UpdatedAt
	}
	panic("bugtrack: unknown issue field " + field)
}

// fieldValueEqual compares two projected field values with exact equality.
// Timestamps compare with time.Equal so wall/monotonic representation does
// not produce phantom key changes.
func fieldValueEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
