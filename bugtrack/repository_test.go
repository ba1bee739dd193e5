// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-bugtrack/internal/auth"
)

func newTestRepo(fake *fakeExecutor) *IssueRepository {
	repo := NewIssueRepository(fake, testLogger())
	repo.now = func() time.Time { return testUpdatedAt }
	repo.newID = func() uuid.UUID { return testIssueID }
	return repo
}

func TestCreateWritesEveryIncludedView(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)
	assignee := testAssigneeID

	issue, err := repo.Create(context.Background(), CreateIssueInput{
		ProjectID:   testProjectID,
		Title:       "Login fails",
		Description: "Cannot sign in",
		Status:      StatusOpen,
		Priority:    PriorityHigh,
		AssigneeID:  &assignee,
		ReporterID:  testReporterID,
		Component:   "authentication",
	})
	require.NoError(t, err)

	assert.Equal(t, testIssueID, issue.IssueID, "id generated when input carries none")
	assert.True(t, issue.CreatedAt.Equal(issue.UpdatedAt), "created_at and updated_at start identical")

	stmts := fake.statements("INSERT INTO")
	require.Len(t, stmts, 5)
	assert.Contains(t, stmts[0], "issues_by_project", "canonical row is written first")
}

func TestCreateSkipsExcludedViews(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)

	_, err := repo.Create(context.Background(), CreateIssueInput{
		ProjectID:   testProjectID,
		Title:       "Broken layout",
		Description: "Renders incorrectly",
		Status:      StatusOpen,
		Priority:    PriorityLow,
		ReporterID:  testReporterID,
	})
	require.NoError(t, err)

	assert.Len(t, fake.statements("INSERT INTO"), 3)
	assert.Empty(t, fake.statements("issues_by_assignee"))
	assert.Empty(t, fake.statements("issues_by_component"))
}

func TestCreateRespectsProvidedID(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)
	custom := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	issue, err := repo.Create(context.Background(), CreateIssueInput{
		ProjectID:   testProjectID,
		IssueID:     custom,
		Title:       "t",
		Description: "d",
		Status:      StatusOpen,
		Priority:    PriorityLow,
		ReporterID:  testReporterID,
	})
	require.NoError(t, err)
	assert.Equal(t, custom, issue.IssueID)
}

func TestUpdateUnknownIssueReturnsNotFound(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)

	_, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{Title: OptionalOf("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEmptyPatchReturnsNoOp(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	_, err := repo.Update(context.Background(), testProjectID, testIssueID, IssuePatch{})
	assert.ErrorIs(t, err, ErrNoOpUpdate)
	assert.Empty(t, fake.statements("INSERT INTO"), "no writes for a no-op update")
}

func TestUpdateStatusSyncsViewsAndRecordsHistory(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	issue, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{Status: OptionalOf(StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, issue.Status)
	assert.True(t, issue.UpdatedAt.Equal(testUpdatedAt))
	assert.True(t, issue.CreatedAt.Equal(testCreatedAt), "created_at is immutable")
	assert.Equal(t, testReporterID, issue.ReporterID, "reporter_id is immutable")

	// Status is a partition-key field in issues_by_status and a clustering-key
	// field in issues_by_assignee, so both relocate; the rest update in place.
	assert.Len(t, fake.statements("DELETE FROM issues_by_status"), 1)
	assert.Len(t, fake.statements("INSERT INTO issues_by_status"), 1)
	assert.Len(t, fake.statements("DELETE FROM issues_by_assignee"), 1)
	assert.Len(t, fake.statements("INSERT INTO issues_by_assignee"), 1)
	assert.Len(t, fake.statements("UPDATE issues_by_project"), 1)
	assert.Len(t, fake.statements("UPDATE issues_by_priority"), 1)
	assert.Len(t, fake.statements("UPDATE issues_by_component"), 1)

	history := fake.statements("INSERT INTO issue_history")
	require.Len(t, history, 1, "one event for one changed field")
}

func TestUpdateHistoryAttributedToReporterByDefault(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	_, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{Priority: OptionalOf(PriorityCritical)})
	require.NoError(t, err)

	var historyParams []any
	for _, c := range fake.calls {
		if c.stmt == stmtInsertHistoryEvent {
			historyParams = c.params
		}
	}
	require.Len(t, historyParams, 8)
	assert.Equal(t, testReporterID, historyParams[7], "changed_by falls back to the reporter")
}

func TestUpdateHistoryAttributedToAuthenticatedActor(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	ctx := auth.SetActorID(context.Background(), testActorID)
	_, err := repo.Update(ctx, testProjectID, testIssueID,
		IssuePatch{Priority: OptionalOf(PriorityCritical)})
	require.NoError(t, err)

	var historyParams []any
	for _, c := range fake.calls {
		if c.stmt == stmtInsertHistoryEvent {
			historyParams = c.params
		}
	}
	require.Len(t, historyParams, 8)
	assert.Equal(t, testActorID, historyParams[7])
}

func TestUpdateClearsAssigneeOnExplicitNull(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	issue, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{AssigneeID: OptionalNull[uuid.UUID]()})
	require.NoError(t, err)
	assert.Nil(t, issue.AssigneeID)
	assert.Len(t, fake.statements("DELETE FROM issues_by_assignee"), 1,
		"clearing the assignee removes the issue from the assignee view")
}

func TestUpdateAbortsOnFirstFailure(t *testing.T) {
	fake := &fakeExecutor{
		fetchQueue: []Row{issueRow(testIssue())},
		failAfter:  2,
	}
	repo := newTestRepo(fake)

	_, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{Status: OptionalOf(StatusClosed)})
	require.Error(t, err)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)

	// One FetchOne plus exactly two Execute attempts; the failing statement
	// aborts everything behind it, including the history append.
	assert.Len(t, fake.calls, 3)
	assert.Empty(t, fake.statements("INSERT INTO issue_history"))
}

func TestGetReturnsNotFoundForMissingRow(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)

	_, err := repo.Get(context.Background(), testProjectID, testIssueID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByStatusHydratesFromCanonical(t *testing.T) {
	issue := testIssue()
	fake := &fakeExecutor{
		execRows: map[string][]Row{
			"FROM issues_by_status": {
				{"created_at": issue.CreatedAt, "issue_id": issue.IssueID},
			},
		},
		fetchQueue: []Row{issueRow(issue)},
	}
	repo := newTestRepo(fake)

	issues, err := repo.ListByStatus(context.Background(), testProjectID, StatusOpen)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.IssueID, issues[0].IssueID)
	assert.Equal(t, issue.Description, issues[0].Description,
		"results carry the full canonical row, not the view projection")
}

func TestListSkipsOrphanedViewRows(t *testing.T) {
	issue := testIssue()
	orphanID := uuid.MustParse("66666666-6666-6666-6666-666666666666")
	fake := &fakeExecutor{
		execRows: map[string][]Row{
			"FROM issues_by_status": {
				{"created_at": issue.CreatedAt, "issue_id": orphanID},
				{"created_at": issue.CreatedAt, "issue_id": issue.IssueID},
			},
		},
		// First hydration misses (orphan), second hits.
		fetchQueue: []Row{nil, issueRow(issue)},
	}
	repo := newTestRepo(fake)

	issues, err := repo.ListByStatus(context.Background(), testProjectID, StatusOpen)
	require.NoError(t, err)
	require.Len(t, issues, 1, "a view row without a canonical row is skipped")
	assert.Equal(t, issue.IssueID, issues[0].IssueID)
}

func TestListByAssigneeOptionalStatusNarrowing(t *testing.T) {
	fake := &fakeExecutor{}
	repo := newTestRepo(fake)

	_, err := repo.ListByAssignee(context.Background(), testProjectID, testAssigneeID, nil)
	require.NoError(t, err)

	status := StatusOpen
	_, err = repo.ListByAssignee(context.Background(), testProjectID, testAssigneeID, &status)
	require.NoError(t, err)

	scans := fake.statements("FROM issues_by_assignee")
	require.Len(t, scans, 2)
	assert.NotContains(t, scans[0], "AND status = ?")
	assert.Contains(t, scans[1], "AND status = ?", "status narrows via the clustering-key prefix")
}

func TestProjectStatisticsAggregation(t *testing.T) {
	open := testIssue()
	resolved := *open
	resolved.IssueID = uuid.MustParse("77777777-7777-7777-7777-777777777777")
	resolved.Status = StatusResolved
	resolved.Priority = PriorityLow
	resolved.Component = ""

	fake := &fakeExecutor{
		execRows: map[string][]Row{
			"FROM issues_by_project": {issueRow(open), issueRow(&resolved)},
		},
	}
	repo := newTestRepo(fake)

	stats, err := repo.ProjectStatistics(context.Background(), testProjectID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalIssues)
	assert.Equal(t, map[string]int{"open": 1, "resolved": 1}, stats.IssuesByStatus)
	assert.Equal(t, map[string]int{"high": 1, "low": 1}, stats.IssuesByPriority)
	assert.Equal(t, map[string]int{"authentication": 1}, stats.IssuesByComponent,
		"component-less issues are absent from the component breakdown")
}

func TestUpdateEmitsStageMetrics(t *testing.T) {
	fake := &fakeExecutor{fetchQueue: []Row{issueRow(testIssue())}}
	repo := newTestRepo(fake)

	var stages []string
	repo.Metrics = StageMetricsRecorderFunc(func(_ context.Context, timing StageTiming) {
		stages = append(stages, timing.Operation+"/"+timing.Stage)
	})

	_, err := repo.Update(context.Background(), testProjectID, testIssueID,
		IssuePatch{Title: OptionalOf("New title")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"issue_update/fetch",
		"issue_update/view_sync",
		"issue_update/history",
	}, stages)
}

func TestStorageErrorUnwraps(t *testing.T) {
	inner := errors.New("socket closed")
	err := newStorageError("SELECT 1", inner)
	assert.ErrorIs(t, err, inner)
}
