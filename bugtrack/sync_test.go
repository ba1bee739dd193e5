// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAllViewsIdenticalStatesEmitNothing(t *testing.T) {
	issue := testIssue()
	copied := *issue

	ops := SyncAllViews(issue, &copied)
	assert.Empty(t, ops, "sync of identical states must emit no writes")
}

func TestSyncAllViewsCreateFullyPopulated(t *testing.T) {
	issue := testIssue()

	ops := SyncAllViews(nil, issue)
	require.Len(t, ops, 5, "assigned issue with component belongs in every view")
	assert.Equal(t, []string{
		"issues_by_project/INSERT",
		"issues_by_status/INSERT",
		"issues_by_priority/INSERT",
		"issues_by_assignee/INSERT",
		"issues_by_component/INSERT",
	}, opKinds(ops), "canonical table must be written first")
}

func TestSyncAllViewsCreateUnassignedNoComponent(t *testing.T) {
	issue := testIssue()
	issue.AssigneeID = nil
	issue.Component = ""

	ops := SyncAllViews(nil, issue)
	assert.Equal(t, []string{
		"issues_by_project/INSERT",
		"issues_by_status/INSERT",
		"issues_by_priority/INSERT",
	}, opKinds(ops), "excluded views get no row at all")
}

func TestSyncAllViewsDelete(t *testing.T) {
	issue := testIssue()

	ops := SyncAllViews(issue, nil)
	assert.Equal(t, []string{
		"issues_by_project/DELETE",
		"issues_by_status/DELETE",
		"issues_by_priority/DELETE",
		"issues_by_assignee/DELETE",
		"issues_by_component/DELETE",
	}, opKinds(ops))
}

// A status change exercises all three update shapes at once: delete+insert
// where status is a key field, in-place update where it is only carried, and
// nothing extra anywhere else.
func TestSyncAllViewsStatusChange(t *testing.T) {
	oldState := testIssue()
	newState := *oldState
	newState.Status = StatusInProgress
	newState.UpdatedAt = testUpdatedAt

	ops := SyncAllViews(oldState, &newState)
	assert.Equal(t, []string{
		"issues_by_project/UPDATE",   // status and updated_at carried
		"issues_by_status/DELETE",    // status is in the partition key
		"issues_by_status/INSERT",
		"issues_by_priority/UPDATE",  // status carried only
		"issues_by_assignee/DELETE",  // status leads the clustering key
		"issues_by_assignee/INSERT",
		"issues_by_component/UPDATE", // status carried only
	}, opKinds(ops))
}

func TestSyncAllViewsAssigneeSet(t *testing.T) {
	oldState := testIssue()
	oldState.AssigneeID = nil
	newState := *oldState
	assignee := testAssigneeID
	newState.AssigneeID = &assignee
	newState.UpdatedAt = testUpdatedAt

	ops := SyncAllViews(oldState, &newState)
	assert.Equal(t, []string{
		"issues_by_project/UPDATE",
		"issues_by_status/UPDATE",
		"issues_by_priority/UPDATE",
		"issues_by_assignee/INSERT", // crossed the inclusion predicate
		"issues_by_component/UPDATE",
	}, opKinds(ops))
}

func TestSyncAllViewsComponentCleared(t *testing.T) {
	oldState := testIssue()
	newState := *oldState
	newState.Component = ""
	newState.UpdatedAt = testUpdatedAt

	ops := SyncAllViews(oldState, &newState)
	assert.Equal(t, []string{
		"issues_by_project/UPDATE",
		"issues_by_component/DELETE", // left the inclusion predicate
	}, opKinds(ops), "views that do not carry component stay untouched")
}

func TestSyncAllViewsTitleChangeUpdatesEveryIncludedView(t *testing.T) {
	oldState := testIssue()
	newState := *oldState
	newState.Title = "Login broken on Safari"
	newState.UpdatedAt = testUpdatedAt

	ops := SyncAllViews(oldState, &newState)
	require.Len(t, ops, 5)
	for _, op := range ops {
		assert.Equal(t, OpUpdate, op.Kind, "title is carried everywhere, never a key")
	}
}

func TestSyncViewUpdateKeyedByOldState(t *testing.T) {
	view := CanonicalView()
	oldState := testIssue()
	newState := *oldState
	newState.Title = "New title"
	newState.UpdatedAt = testUpdatedAt

	ops := SyncView(view, oldState, &newState)
	require.Len(t, ops, 1)
	op := ops[0]
	assert.Equal(t, OpUpdate, op.Kind)
	assert.Contains(t, op.Statement, "WHERE project_id = ? AND created_at = ? AND issue_id = ?")
	assert.NotContains(t, op.Statement, "SET project_id")

	// Carried params come from the new state, key params from the old.
	carried := len(view.Carried)
	key := op.Params[carried:]
	require.Len(t, key, 3)
	assert.Equal(t, oldState.ProjectID, key[0])
	assert.True(t, oldState.CreatedAt.Equal(key[1].(time.Time)), "key uses the old created_at")
	assert.Equal(t, oldState.IssueID, key[2])
}

func TestSyncViewInsertProjectsAbsentFieldsAsNull(t *testing.T) {
	issue := testIssue()
	issue.AssigneeID = nil

	ops := SyncView(CanonicalView(), nil, issue)
	require.Len(t, ops, 1)

	cols := CanonicalView().Columns()
	var assigneeParam any = "sentinel"
	for i, col := range cols {
		if col == FieldAssigneeID {
			assigneeParam = ops[0].Params[i]
		}
	}
	assert.Nil(t, assigneeParam, "absent assignee must be stored as null")
}

// Re-running sync for the same transition must produce the same writes, since
// replay is the recovery path after a partial failure.
func TestSyncAllViewsDeterministic(t *testing.T) {
	oldState := testIssue()
	newState := *oldState
	newState.Status = StatusResolved
	newState.Priority = PriorityLow
	newState.UpdatedAt = testUpdatedAt

	first := SyncAllViews(oldState, &newState)
	second := SyncAllViews(oldState, &newState)
	assert.Equal(t, first, second)
}
