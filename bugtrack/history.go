// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"time"

	"github.com/google/uuid"
)

// FieldChange is one entry of an issue diff: a tracked field whose rendered
// value differs between the old and new state. Values are string renderings;
// nil means the field was absent on that side.
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
}

// DiffIssues compares two issue states over the tracked-field allow-list and
// returns one entry per field whose rendered value differs. Identifier fields
// compare by rendered value, so absent vs absent is never a change. Equal
// states produce an empty diff.
func DiffIssues(oldState, newState *Issue) []FieldChange {
	var changes []FieldChange
	for _, field := range TrackedFields {
		oldVal := renderField(oldState, field)
		newVal := renderField(newState, field)
		if renderedEqual(oldVal, newVal) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, OldValue: oldVal, NewValue: newVal})
	}
	return changes
}

// NewHistoryEvents materializes a diff into immutable history rows. All
// events of one update share changed_at and changed_by; each gets a fresh
// event_id so simultaneous field changes stay separate rows.
func NewHistoryEvents(oldState, newState *Issue, changedAt time.Time, changedBy uuid.UUID) []HistoryEvent {
	changes := DiffIssues(oldState, newState)
	events := make([]HistoryEvent, 0, len(changes))
	for _, change := range changes {
		events = append(events, HistoryEvent{
			EventID:      uuid.New(),
			IssueID:      newState.IssueID,
			ProjectID:    newState.ProjectID,
			FieldChanged: change.Field,
			OldValue:     change.OldValue,
			NewValue:     change.NewValue,
			ChangedBy:    changedBy,
			ChangedAt:    changedAt,
		})
	}
	return events
}

// renderField renders one tracked field to its history string form, nil when
// the field is absent.
func renderField(is *Issue, field string) *string {
	switch field {
	case FieldTitle:
		return strPtr(is.Title)
	case FieldDescription:
		return strPtr(is.Description)
	case FieldStatus:
		return strPtr(string(is.Status))
	case FieldPriority:
		return strPtr(string(is.Priority))
	case FieldAssigneeID:
		if is.AssigneeID == nil {
			return nil
		}
		return strPtr(is.AssigneeID.String())
	case FieldComponent:
		if is.Component == "" {
			return nil
		}
		return strPtr(is.Component)
	}
	panic("bugtrack: untracked field " + field)
}

func renderedEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }
