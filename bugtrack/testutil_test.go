// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// execCall is one recorded statement execution.
type execCall struct {
	stmt   string
	params []any
}

// fakeExecutor records every statement and serves scripted reads, so the
// repositories can be exercised without a live cluster.
type fakeExecutor struct {
	calls []execCall

	// fetchQueue feeds FetchOne in order; a nil entry means "no row".
	// An exhausted queue also means "no row".
	fetchQueue []Row

	// execRows serves Execute reads, keyed by a substring of the statement.
	execRows map[string][]Row

	// failAfter makes the Nth Execute call fail (1-based). Zero disables.
	failAfter int

	execCount int
}

var errFakeStorage = errors.New("fake storage failure")

func (f *fakeExecutor) Execute(_ context.Context, stmt string, params ...any) ([]Row, error) {
	f.calls = append(f.calls, execCall{stmt: stmt, params: params})
	f.execCount++
	if f.failAfter > 0 && f.execCount >= f.failAfter {
		return nil, newStorageError(stmt, errFakeStorage)
	}
	for key, rows := range f.execRows {
		if strings.Contains(stmt, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeExecutor) FetchOne(_ context.Context, stmt string, params ...any) (Row, error) {
	f.calls = append(f.calls, execCall{stmt: stmt, params: params})
	if len(f.fetchQueue) == 0 {
		return nil, nil
	}
	row := f.fetchQueue[0]
	f.fetchQueue = f.fetchQueue[1:]
	return row, nil
}

// statements returns the recorded statements, optionally filtered to those
// containing the given substring.
func (f *fakeExecutor) statements(contains string) []string {
	var out []string
	for _, c := range f.calls {
		if contains == "" || strings.Contains(c.stmt, contains) {
			out = append(out, c.stmt)
		}
	}
	return out
}

var (
	testProjectID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testIssueID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testReporterID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testAssigneeID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	testActorID    = uuid.MustParse("55555555-5555-5555-5555-555555555555")

	testCreatedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testUpdatedAt = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
)

// testIssue builds a fully-populated issue (assigned, with component).
func testIssue() *Issue {
	assignee := testAssigneeID
	return &Issue{
		IssueID:     testIssueID,
		ProjectID:   testProjectID,
		Title:       "Login fails with valid credentials",
		Description: "Users cannot sign in",
		Status:      StatusOpen,
		Priority:    PriorityHigh,
		AssigneeID:  &assignee,
		ReporterID:  testReporterID,
		Component:   "authentication",
		CreatedAt:   testCreatedAt,
		UpdatedAt:   testCreatedAt,
	}
}

// issueRow renders an issue as the canonical table row the fake serves.
func issueRow(is *Issue) Row {
	row := Row{
		"project_id":  is.ProjectID,
		"created_at":  is.CreatedAt,
		"issue_id":    is.IssueID,
		"title":       is.Title,
		"description": is.Description,
		"status":      string(is.Status),
		"priority":    string(is.Priority),
		"reporter_id": is.ReporterID,
		"updated_at":  is.UpdatedAt,
	}
	if is.AssigneeID != nil {
		row["assignee_id"] = *is.AssigneeID
	}
	if is.Component != "" {
		row["component"] = is.Component
	}
	return row
}

// opKinds projects a ViewOp slice to "view/kind" strings for compact asserts.
func opKinds(ops []ViewOp) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.View + "/" + op.Kind
	}
	return out
}
