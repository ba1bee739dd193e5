// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisteredViewsShape(t *testing.T) {
	views := RegisteredViews()
	require.Len(t, views, 5)

	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	assert.Equal(t, []string{
		"issues_by_project",
		"issues_by_status",
		"issues_by_priority",
		"issues_by_assignee",
		"issues_by_component",
	}, names, "canonical table must come first")

	for _, v := range views {
		assert.NotEmpty(t, v.PartitionKey, "%s has no partition key", v.Name)
		assert.Equal(t, FieldIssueID, v.ClusteringKey[len(v.ClusteringKey)-1],
			"%s clustering key must end with issue_id for determinism", v.Name)
		assert.NotNil(t, v.Includes, "%s has no inclusion predicate", v.Name)
	}
}

func TestCanonicalViewKey(t *testing.T) {
	canonical := CanonicalView()
	assert.Equal(t, "issues_by_project", canonical.Name)
	assert.Equal(t, []string{FieldProjectID, FieldCreatedAt, FieldIssueID}, canonical.KeyFields())
	assert.Contains(t, canonical.Carried, FieldDescription,
		"only the canonical table carries the description")
}

func TestInclusionPredicates(t *testing.T) {
	issue := testIssue()
	for _, v := range RegisteredViews() {
		assert.True(t, v.Includes(issue), "%s should include a fully-populated issue", v.Name)
	}

	issue.AssigneeID = nil
	issue.Component = ""
	included := map[string]bool{}
	for _, v := range RegisteredViews() {
		included[v.Name] = v.Includes(issue)
	}
	assert.True(t, included["issues_by_project"])
	assert.True(t, included["issues_by_status"])
	assert.True(t, included["issues_by_priority"])
	assert.False(t, included["issues_by_assignee"], "unassigned issue has no assignee row")
	assert.False(t, included["issues_by_component"], "component-less issue has no component row")
}

func TestFieldValueEqualTimestamps(t *testing.T) {
	base := testCreatedAt
	monotonic := base.Local()
	assert.True(t, fieldValueEqual(base, monotonic),
		"timestamp comparison must ignore location/representation")
	assert.False(t, fieldValueEqual(base, testUpdatedAt))
}
