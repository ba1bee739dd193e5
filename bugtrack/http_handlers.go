// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// HealthChecker reports whether the storage session is usable.
type HealthChecker interface {
	Connected() bool
}

// HTTPHandlers exposes the tracker over HTTP. It owns request parsing,
// validation, and error-to-status translation; the repositories never see an
// invalid request.
type HTTPHandlers struct {
	issues   *IssueRepository
	users    *UserRepository
	projects *ProjectRepository
	comments *CommentRepository
	seeder   *Seeder
	health   HealthChecker
	logger   *slog.Logger
}

// NewHTTPHandlers creates the handler set.
func NewHTTPHandlers(issues *IssueRepository, users *UserRepository, projects *ProjectRepository,
	comments *CommentRepository, seeder *Seeder, health HealthChecker, logger *slog.Logger) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandlers{
		issues:   issues,
		users:    users,
		projects: projects,
		comments: comments,
		seeder:   seeder,
		health:   health,
		logger:   logger,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *HTTPHandlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users", h.HandleCreateUser)
	mux.HandleFunc("GET /users", h.HandleListUsers)

	mux.HandleFunc("POST /projects", h.HandleCreateProject)
	mux.HandleFunc("GET /projects", h.HandleListProjects)
	mux.HandleFunc("GET /projects/{projectID}/statistics", h.HandleProjectStatistics)

	mux.HandleFunc("POST /issues", h.HandleCreateIssue)
	mux.HandleFunc("GET /issues/{issueID}", h.HandleGetIssue)
	mux.HandleFunc("PUT /issues/{issueID}", h.HandleUpdateIssue)
	mux.HandleFunc("GET /issues/status/{status}", h.HandleIssuesByStatus)
	mux.HandleFunc("GET /issues/assignee/{assigneeID}", h.HandleIssuesByAssignee)
	mux.HandleFunc("GET /issues/priority/{priority}", h.HandleIssuesByPriority)
	mux.HandleFunc("GET /issues/component/{component}", h.HandleIssuesByComponent)

	mux.HandleFunc("POST /issues/{issueID}/comments", h.HandleCreateComment)
	mux.HandleFunc("GET /issues/{issueID}/comments", h.HandleListComments)
	mux.HandleFunc("GET /issues/{issueID}/history", h.HandleIssueHistory)

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("POST /admin/clear-data", h.HandleClearData)
	mux.HandleFunc("POST /admin/seed-data", h.HandleSeedData)
	mux.HandleFunc("POST /admin/reset-data", h.HandleResetData)

	return mux
}

// HandleCreateUser creates a tracker user.
func (h *HTTPHandlers) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse user request")
		return
	}
	if err := validateCreateUser(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	user, err := h.users.Create(r.Context(), req.Username, req.Email, req.Role)
	if err != nil {
		h.writeStorageError(w, r, "create user", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// HandleListUsers lists users (limit query param, default 100).
func (h *HTTPHandlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}
	users, err := h.users.List(r.Context(), limit)
	if err != nil {
		h.writeStorageError(w, r, "list users", err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// HandleCreateProject creates a project.
func (h *HTTPHandlers) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse project request")
		return
	}
	if err := validateCreateProject(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	project, err := h.projects.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeStorageError(w, r, "create project", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, project)
}

// HandleListProjects lists projects.
func (h *HTTPHandlers) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}
	projects, err := h.projects.List(r.Context(), limit)
	if err != nil {
		h.writeStorageError(w, r, "list projects", err)
		return
	}
	h.writeJSON(w, http.StatusOK, projects)
}

// HandleProjectStatistics aggregates one project's issues.
func (h *HTTPHandlers) HandleProjectStatistics(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "projectID must be a UUID")
		return
	}
	stats, err := h.issues.ProjectStatistics(r.Context(), projectID)
	if err != nil {
		h.writeStorageError(w, r, "project statistics", err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// HandleCreateIssue creates an issue across every registered view.
func (h *HTTPHandlers) HandleCreateIssue(w http.ResponseWriter, r *http.Request) {
	var req CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse issue request")
		return
	}
	if err := validateCreateIssue(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	issue, err := h.issues.Create(r.Context(), CreateIssueInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		ReporterID:  req.ReporterID,
		Component:   req.Component,
	})
	if err != nil {
		h.writeStorageError(w, r, "create issue", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, issue)
}

// HandleGetIssue fetches one issue from the canonical table.
func (h *HTTPHandlers) HandleGetIssue(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, ok := h.issueIdentity(w, r)
	if !ok {
		return
	}
	issue, err := h.issues.Get(r.Context(), projectID, issueID)
	if err != nil {
		h.writeIssueError(w, r, "get issue", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issue)
}

// HandleUpdateIssue applies a partial update and syncs every view.
func (h *HTTPHandlers) HandleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, ok := h.issueIdentity(w, r)
	if !ok {
		return
	}
	var patch UpdateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse update request")
		return
	}
	if err := validateUpdateIssue(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	issue, err := h.issues.Update(r.Context(), projectID, issueID, patch)
	if err != nil {
		h.writeIssueError(w, r, "update issue", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issue)
}

// HandleIssuesByStatus lists a project's issues in one status.
func (h *HTTPHandlers) HandleIssuesByStatus(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectParam(w, r)
	if !ok {
		return
	}
	status := Status(r.PathValue("status"))
	if !status.Known() {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown status tag")
		return
	}
	issues, err := h.issues.ListByStatus(r.Context(), projectID, status)
	if err != nil {
		h.writeStorageError(w, r, "list by status", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issues)
}

// HandleIssuesByAssignee lists issues assigned to one user, optionally
// narrowed by status.
func (h *HTTPHandlers) HandleIssuesByAssignee(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectParam(w, r)
	if !ok {
		return
	}
	assigneeID, err := uuid.Parse(r.PathValue("assigneeID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "assigneeID must be a UUID")
		return
	}
	var status *Status
	if tag := r.URL.Query().Get("status"); tag != "" {
		st := Status(tag)
		if !st.Known() {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown status tag")
			return
		}
		status = &st
	}
	issues, err := h.issues.ListByAssignee(r.Context(), projectID, assigneeID, status)
	if err != nil {
		h.writeStorageError(w, r, "list by assignee", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issues)
}

// HandleIssuesByPriority lists a project's issues at one priority.
func (h *HTTPHandlers) HandleIssuesByPriority(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectParam(w, r)
	if !ok {
		return
	}
	priority := Priority(r.PathValue("priority"))
	if !priority.Known() {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "unknown priority tag")
		return
	}
	issues, err := h.issues.ListByPriority(r.Context(), projectID, priority)
	if err != nil {
		h.writeStorageError(w, r, "list by priority", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issues)
}

// HandleIssuesByComponent lists a project's issues for one component.
func (h *HTTPHandlers) HandleIssuesByComponent(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectParam(w, r)
	if !ok {
		return
	}
	component := r.PathValue("component")
	issues, err := h.issues.ListByComponent(r.Context(), projectID, component)
	if err != nil {
		h.writeStorageError(w, r, "list by component", err)
		return
	}
	h.writeJSON(w, http.StatusOK, issues)
}

// HandleCreateComment appends a comment to an issue.
func (h *HTTPHandlers) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, ok := h.issueIdentity(w, r)
	if !ok {
		return
	}
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse comment request")
		return
	}
	if err := validateCreateComment(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	comment, err := h.comments.Create(r.Context(), projectID, issueID, req.UserID, req.Content)
	if err != nil {
		h.writeStorageError(w, r, "create comment", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, comment)
}

// HandleListComments lists an issue's comments, newest first.
func (h *HTTPHandlers) HandleListComments(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, ok := h.issueIdentity(w, r)
	if !ok {
		return
	}
	comments, err := h.comments.ListByIssue(r.Context(), projectID, issueID)
	if err != nil {
		h.writeStorageError(w, r, "list comments", err)
		return
	}
	h.writeJSON(w, http.StatusOK, comments)
}

// HandleIssueHistory lists an issue's change history, newest first.
func (h *HTTPHandlers) HandleIssueHistory(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, ok := h.issueIdentity(w, r)
	if !ok {
		return
	}
	events, err := h.issues.History(r.Context(), projectID, issueID)
	if err != nil {
		h.writeStorageError(w, r, "issue history", err)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

// HandleHealth reports storage reachability.
func (h *HTTPHandlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	connected := h.health != nil && h.health.Connected()
	status := "ok"
	code := http.StatusOK
	if !connected {
		status = "error"
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, HealthResponse{Status: status, DatabaseConnected: connected})
}

// HandleClearData truncates every table.
func (h *HTTPHandlers) HandleClearData(w http.ResponseWriter, r *http.Request) {
	if err := h.seeder.Clear(r.Context()); err != nil {
		h.writeStorageError(w, r, "clear data", err)
		return
	}
	h.writeJSON(w, http.StatusOK, SeedResponse{Message: "All tables cleared successfully"})
}

// HandleSeedData loads the fixed test dataset.
func (h *HTTPHandlers) HandleSeedData(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Seed(r.Context())
	if err != nil {
		h.writeStorageError(w, r, "seed data", err)
		return
	}
	h.writeJSON(w, http.StatusOK, SeedResponse{Message: "Test data seeded successfully", Created: result})
}

// HandleResetData clears and reseeds.
func (h *HTTPHandlers) HandleResetData(w http.ResponseWriter, r *http.Request) {
	result, err := h.seeder.Seed(r.Context())
	if err != nil {
		h.writeStorageError(w, r, "reset data", err)
		return
	}
	h.writeJSON(w, http.StatusOK, SeedResponse{Message: "Database reset with test data successfully", Created: result})
}

func (h *HTTPHandlers) issueIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	projectID, ok := h.projectParam(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	issueID, err := uuid.Parse(r.PathValue("issueID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "issueID must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, issueID, true
}

func (h *HTTPHandlers) projectParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("project_id")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "project_id query parameter is required")
		return uuid.Nil, false
	}
	projectID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "project_id must be a UUID")
		return uuid.Nil, false
	}
	return projectID, true
}

func (h *HTTPHandlers) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 1000 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 1000")
			return 0, false
		}
		limit = v
	}
	return limit, true
}

// writeIssueError translates repository errors for endpoints that address one
// issue: NotFound and NoOpUpdate stay distinguishable from storage failures.
func (h *HTTPHandlers) writeIssueError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Issue not found")
	case errors.Is(err, ErrNoOpUpdate):
		h.writeError(w, http.StatusBadRequest, "no_fields_to_update", "No fields to update")
	default:
		h.writeStorageError(w, r, op, err)
	}
}

func (h *HTTPHandlers) writeStorageError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("Request failed", "op", op, "path", r.URL.Path, "error", err)
	h.writeError(w, http.StatusInternalServerError, "storage_error", "Storage operation failed")
}

func (h *HTTPHandlers) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a standardized error response
func (h *HTTPHandlers) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := ErrorResponse{
		Error:   errorCode,
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		h.logger.Debug("Failed to encode error response", "error", err)
	}

	h.logger.Debug("HTTP error response",
		"status_code", statusCode,
		"error_code", errorCode,
		"message", message)
}
