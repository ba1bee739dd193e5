// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"strings"

	"github.com/google/uuid"
)

// Boundary validation for HTTP requests. Limits follow the persisted column
// expectations; nothing past this layer re-validates, so every request model
// must be checked here before it reaches a repository.

const (
	maxTitleLen       = 200
	maxUsernameLen    = 50
	minUsernameLen    = 3
	maxProjectNameLen = 100
	maxProjectDescLen = 500
	maxComponentLen   = 100
	maxCommentLen     = 1000
)

func validateCreateUser(req *CreateUserRequest) error {
	if len(req.Username) < minUsernameLen || len(req.Username) > maxUsernameLen {
		return validationErr("username", "must be between 3 and 50 characters")
	}
	if !validEmail(req.Email) {
		return validationErr("email", "must be a valid email address")
	}
	if req.Role == "" {
		req.Role = RoleDeveloper
	}
	if !req.Role.Known() {
		return validationErr("role", "unknown role tag")
	}
	return nil
}

func validateCreateProject(req *CreateProjectRequest) error {
	if req.Name == "" || len(req.Name) > maxProjectNameLen {
		return validationErr("name", "must be between 1 and 100 characters")
	}
	if len(req.Description) > maxProjectDescLen {
		return validationErr("description", "must be at most 500 characters")
	}
	return nil
}

func validateCreateIssue(req *CreateIssueRequest) error {
	if req.ProjectID == uuid.Nil {
		return validationErr("project_id", "required")
	}
	if req.ReporterID == uuid.Nil {
		return validationErr("reporter_id", "required")
	}
	if req.Title == "" || len(req.Title) > maxTitleLen {
		return validationErr("title", "must be between 1 and 200 characters")
	}
	if req.Description == "" {
		return validationErr("description", "required")
	}
	if req.Status == "" {
		req.Status = StatusOpen
	}
	if !req.Status.Known() {
		return validationErr("status", "unknown status tag")
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if !req.Priority.Known() {
		return validationErr("priority", "unknown priority tag")
	}
	if len(req.Component) > maxComponentLen {
		return validationErr("component", "must be at most 100 characters")
	}
	return nil
}

// validateUpdateIssue checks only the fields the caller supplied. Null is
// legal for the clearable fields (assignee_id, component) and rejected for
// the rest.
func validateUpdateIssue(patch *IssuePatch) error {
	if patch.Title.Set {
		if patch.Title.Null {
			return validationErr("title", "cannot be null")
		}
		if patch.Title.Value == "" || len(patch.Title.Value) > maxTitleLen {
			return validationErr("title", "must be between 1 and 200 characters")
		}
	}
	if patch.Description.Set {
		if patch.Description.Null || patch.Description.Value == "" {
			return validationErr("description", "cannot be empty")
		}
	}
	if patch.Status.Set {
		if patch.Status.Null || !patch.Status.Value.Known() {
			return validationErr("status", "unknown status tag")
		}
	}
	if patch.Priority.Set {
		if patch.Priority.Null || !patch.Priority.Value.Known() {
			return validationErr("priority", "unknown priority tag")
		}
	}
	if patch.Component.Set && !patch.Component.Null && len(patch.Component.Value) > maxComponentLen {
		return validationErr("component", "must be at most 100 characters")
	}
	return nil
}

func validateCreateComment(req *CreateCommentRequest) error {
	if req.UserID == uuid.Nil {
		return validationErr("user_id", "required")
	}
	if req.Content == "" || len(req.Content) > maxCommentLen {
		return validationErr("content", "must be between 1 and 1000 characters")
	}
	return nil
}

// validEmail does a minimal structural check; real verification belongs to a
// signup flow this system does not have.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
