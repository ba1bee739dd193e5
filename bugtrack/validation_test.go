// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCreateIssueAppliesDefaults(t *testing.T) {
	req := &CreateIssueRequest{
		ProjectID:   testProjectID,
		ReporterID:  testReporterID,
		Title:       "t",
		Description: "d",
	}
	require.NoError(t, validateCreateIssue(req))
	assert.Equal(t, StatusOpen, req.Status)
	assert.Equal(t, PriorityMedium, req.Priority)
}

func TestValidateCreateIssueRejections(t *testing.T) {
	base := func() *CreateIssueRequest {
		return &CreateIssueRequest{
			ProjectID:   testProjectID,
			ReporterID:  testReporterID,
			Title:       "t",
			Description: "d",
		}
	}

	missingProject := base()
	missingProject.ProjectID = uuid.Nil
	assert.Error(t, validateCreateIssue(missingProject))

	missingReporter := base()
	missingReporter.ReporterID = uuid.Nil
	assert.Error(t, validateCreateIssue(missingReporter))

	longTitle := base()
	longTitle.Title = strings.Repeat("x", 201)
	assert.Error(t, validateCreateIssue(longTitle))

	badStatus := base()
	badStatus.Status = "pending"
	assert.Error(t, validateCreateIssue(badStatus))

	badPriority := base()
	badPriority.Priority = "urgent"
	assert.Error(t, validateCreateIssue(badPriority))
}

func TestValidateUpdateIssueNullability(t *testing.T) {
	assert.Error(t, validateUpdateIssue(&IssuePatch{Title: OptionalNull[string]()}),
		"title cannot be cleared")
	assert.Error(t, validateUpdateIssue(&IssuePatch{Status: OptionalNull[Status]()}),
		"status cannot be cleared")

	assert.NoError(t, validateUpdateIssue(&IssuePatch{AssigneeID: OptionalNull[uuid.UUID]()}),
		"assignee is clearable")
	assert.NoError(t, validateUpdateIssue(&IssuePatch{Component: OptionalNull[string]()}),
		"component is clearable")
}

func TestValidateUpdateIssueValues(t *testing.T) {
	assert.Error(t, validateUpdateIssue(&IssuePatch{Status: OptionalOf(Status("pending"))}))
	assert.Error(t, validateUpdateIssue(&IssuePatch{Title: OptionalOf("")}))
	assert.NoError(t, validateUpdateIssue(&IssuePatch{
		Status:   OptionalOf(StatusResolved),
		Priority: OptionalOf(PriorityLow),
	}))
}

func TestValidateCreateUser(t *testing.T) {
	ok := &CreateUserRequest{Username: "dev_user", Email: "dev@company.com"}
	require.NoError(t, validateCreateUser(ok))
	assert.Equal(t, RoleDeveloper, ok.Role, "role defaults to developer")

	assert.Error(t, validateCreateUser(&CreateUserRequest{Username: "ab", Email: "a@b.com"}))
	assert.Error(t, validateCreateUser(&CreateUserRequest{Username: "valid_user", Email: "not-an-email"}))
	assert.Error(t, validateCreateUser(&CreateUserRequest{Username: "valid_user", Email: "a@b.com", Role: "boss"}))
}

func TestValidateCreateComment(t *testing.T) {
	assert.NoError(t, validateCreateComment(&CreateCommentRequest{UserID: testActorID, Content: "looks good"}))
	assert.Error(t, validateCreateComment(&CreateCommentRequest{Content: "no user"}))
	assert.Error(t, validateCreateComment(&CreateCommentRequest{UserID: testActorID}))
	assert.Error(t, validateCreateComment(&CreateCommentRequest{
		UserID: testActorID, Content: strings.Repeat("x", 1001),
	}))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusOpen.ValidTransition(StatusInProgress))
	assert.True(t, StatusClosed.ValidTransition(StatusReopened))
	assert.False(t, StatusClosed.ValidTransition(StatusResolved))
	assert.False(t, StatusOpen.ValidTransition(StatusOpen))
}
