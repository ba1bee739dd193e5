// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Row-to-entity mapping. Null columns arrive either as a missing key, an
// untyped nil, or the column type's zero value depending on the driver, so
// the optional accessors treat all three as absent.

func issueFromRow(row Row) (*Issue, error) {
	projectID, err := rowUUID(row, FieldProjectID)
	if err != nil {
		return nil, err
	}
	issueID, err := rowUUID(row, FieldIssueID)
	if err != nil {
		return nil, err
	}
	reporterID, err := rowUUID(row, FieldReporterID)
	if err != nil {
		return nil, err
	}
	createdAt, err := rowTime(row, FieldCreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := rowTime(row, FieldUpdatedAt)
	if err != nil {
		return nil, err
	}
	return &Issue{
		IssueID:     issueID,
		ProjectID:   projectID,
		Title:       rowString(row, FieldTitle),
		Description: rowString(row, FieldDescription),
		Status:      Status(rowString(row, FieldStatus)),
		Priority:    Priority(rowString(row, FieldPriority)),
		AssigneeID:  rowOptUUID(row, FieldAssigneeID),
		ReporterID:  reporterID,
		Component:   rowString(row, FieldComponent),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func issuesFromRows(rows []Row) ([]Issue, error) {
	issues := make([]Issue, 0, len(rows))
	for _, row := range rows {
		issue, err := issueFromRow(row)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, nil
}

func historyEventFromRow(row Row) (HistoryEvent, error) {
	projectID, err := rowUUID(row, FieldProjectID)
	if err != nil {
		return HistoryEvent{}, err
	}
	issueID, err := rowUUID(row, FieldIssueID)
	if err != nil {
		return HistoryEvent{}, err
	}
	eventID, err := rowUUID(row, "event_id")
	if err != nil {
		return HistoryEvent{}, err
	}
	changedBy, err := rowUUID(row, "changed_by")
	if err != nil {
		return HistoryEvent{}, err
	}
	changedAt, err := rowTime(row, "changed_at")
	if err != nil {
		return HistoryEvent{}, err
	}
	return HistoryEvent{
		EventID:      eventID,
		IssueID:      issueID,
		ProjectID:    projectID,
		FieldChanged: rowString(row, "field_changed"),
		OldValue:     rowOptString(row, "old_value"),
		NewValue:     rowOptString(row, "new_value"),
		ChangedBy:    changedBy,
		ChangedAt:    changedAt,
	}, nil
}

func projectFromRow(row Row) (Project, error) {
	projectID, err := rowUUID(row, FieldProjectID)
	if err != nil {
		return Project{}, err
	}
	createdAt, err := rowTime(row, FieldCreatedAt)
	if err != nil {
		return Project{}, err
	}
	return Project{
		ProjectID:   projectID,
		Name:        rowString(row, "name"),
		Description: rowString(row, FieldDescription),
		CreatedAt:   createdAt,
	}, nil
}

func userFromRow(row Row) (User, error) {
	userID, err := rowUUID(row, "user_id")
	if err != nil {
		return User{}, err
	}
	createdAt, err := rowTime(row, FieldCreatedAt)
	if err != nil {
		return User{}, err
	}
	return User{
		UserID:    userID,
		Username:  rowString(row, "username"),
		Email:     rowString(row, "email"),
		Role:      UserRole(rowString(row, "role")),
		CreatedAt: createdAt,
	}, nil
}

func commentFromRow(row Row) (Comment, error) {
	projectID, err := rowUUID(row, FieldProjectID)
	if err != nil {
		return Comment{}, err
	}
	issueID, err := rowUUID(row, FieldIssueID)
	if err != nil {
		return Comment{}, err
	}
	commentID, err := rowUUID(row, "comment_id")
	if err != nil {
		return Comment{}, err
	}
	userID, err := rowUUID(row, "user_id")
	if err != nil {
		return Comment{}, err
	}
	createdAt, err := rowTime(row, FieldCreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return Comment{
		CommentID: commentID,
		IssueID:   issueID,
		ProjectID: projectID,
		UserID:    userID,
		Content:   rowString(row, "content"),
		CreatedAt: createdAt,
	}, nil
}

func rowUUID(row Row, col string) (uuid.UUID, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return uuid.Nil, fmt.Errorf("row missing required uuid column %q", col)
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("column %q is %T, want uuid", col, v)
	}
	return id, nil
}

func rowOptUUID(row Row, col string) *uuid.UUID {
	v, ok := row[col]
	if !ok || v == nil {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}

func rowString(row Row, col string) string {
	v, ok := row[col]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func rowOptString(row Row, col string) *string {
	v, ok := row[col]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func rowTime(row Row, col string) (time.Time, error) {
	v, ok := row[col]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("row missing required timestamp column %q", col)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("column %q is %T, want timestamp", col, v)
	}
	return t, nil
}
