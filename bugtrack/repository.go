// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mobiletoly/go-bugtrack/internal/auth"
)

const (
	stmtGetIssueByID = "SELECT project_id, created_at, issue_id, title, description, status, priority, " +
		"assignee_id, reporter_id, component, updated_at FROM issues_by_project " +
		"WHERE project_id = ? AND issue_id = ? LIMIT 1 ALLOW FILTERING"

	stmtGetIssueByKey = "SELECT project_id, created_at, issue_id, title, description, status, priority, " +
		"assignee_id, reporter_id, component, updated_at FROM issues_by_project " +
		"WHERE project_id = ? AND created_at = ? AND issue_id = ? LIMIT 1"

	stmtListIssuesByProject = "SELECT project_id, created_at, issue_id, title, description, status, priority, " +
		"assignee_id, reporter_id, component, updated_at FROM issues_by_project WHERE project_id = ?"

	stmtInsertHistoryEvent = "INSERT INTO issue_history " +
		"(project_id, issue_id, changed_at, event_id, field_changed, old_value, new_value, changed_by) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

	stmtListHistory = "SELECT project_id, issue_id, changed_at, event_id, field_changed, old_value, new_value, changed_by " +
		"FROM issue_history WHERE project_id = ? AND issue_id = ?"
)

// IssueRepository orchestrates the canonical write, the per-view sync, and
// the history append into one logical create/update operation.
//
// Writes within one operation run sequentially and the first failure aborts
// the remainder with no compensation: a crash or storage error mid-sequence
// leaves derived views transiently behind the canonical row. Re-running the
// same sync is idempotent, which is the recovery path. Two concurrent updates
// to the same issue race freely (last canonical writer wins); there is no
// version column or compare-and-set.
type IssueRepository struct {
	exec   Executor
	logger *slog.Logger
	views  []ViewSpec

	// Metrics optionally receives stage timings for fetch/view-sync/history.
	Metrics StageMetricsRecorder

	// now and newID are swappable for tests.
	now   func() time.Time
	newID func() uuid.UUID
}

// NewIssueRepository creates an issue repository over the given executor,
// driven by the full registered-view set.
func NewIssueRepository(exec Executor, logger *slog.Logger) *IssueRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssueRepository{
		exec:   exec,
		logger: logger,
		views:  RegisteredViews(),
		now:    time.Now,
		newID:  uuid.New,
	}
}

// CreateIssueInput carries the attributes of a new issue. IssueID is
// generated when zero. Status/Priority defaults are applied at the boundary.
type CreateIssueInput struct {
	ProjectID   uuid.UUID
	IssueID     uuid.UUID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	AssigneeID  *uuid.UUID
	ReporterID  uuid.UUID
	Component   string
}

// Create writes the canonical row and every view row whose inclusion
// predicate holds. No history is recorded on creation.
func (r *IssueRepository) Create(ctx context.Context, in CreateIssueInput) (*Issue, error) {
	now := r.now()
	issueID := in.IssueID
	if issueID == uuid.Nil {
		issueID = r.newID()
	}

	issue := &Issue{
		IssueID:     issueID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  in.AssigneeID,
		ReporterID:  in.ReporterID,
		Component:   in.Component,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	start := stageStart(r.Metrics)
	ops := r.syncOps(nil, issue)
	err := r.applyOps(ctx, ops)
	observeStage(ctx, r.Metrics, MetricsOpIssueCreate, MetricsStageViewSync, start, len(ops), err != nil)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Issue created",
		"project_id", issue.ProjectID, "issue_id", issue.IssueID, "view_writes", len(ops))
	return issue, nil
}

// Update reads the current canonical state, merges the patch over it, brings
// every view in line, and appends one history event per changed tracked
// field. Omitted patch fields are left unchanged; explicitly-null clearable
// fields (assignee, component) are cleared. reporter_id and created_at are
// never overwritten.
//
// changed_by is the authenticated actor when the request carries one, and
// falls back to the issue's reporter otherwise.
func (r *IssueRepository) Update(ctx context.Context, projectID, issueID uuid.UUID, patch IssuePatch) (*Issue, error) {
	start := stageStart(r.Metrics)
	current, err := r.Get(ctx, projectID, issueID)
	observeStage(ctx, r.Metrics, MetricsOpIssueUpdate, MetricsStageFetch, start, 1, err != nil)
	if err != nil {
		return nil, err
	}
	if patch.IsZero() {
		return nil, ErrNoOpUpdate
	}

	now := r.now()
	merged := patch.applyTo(current)
	merged.UpdatedAt = now

	start = stageStart(r.Metrics)
	ops := r.syncOps(current, merged)
	err = r.applyOps(ctx, ops)
	observeStage(ctx, r.Metrics, MetricsOpIssueUpdate, MetricsStageViewSync, start, len(ops), err != nil)
	if err != nil {
		return nil, err
	}

	changedBy := current.ReporterID
	if actor, ok := auth.ActorID(ctx); ok {
		changedBy = actor
	}
	events := NewHistoryEvents(current, merged, now, changedBy)

	start = stageStart(r.Metrics)
	err = r.appendHistory(ctx, events)
	observeStage(ctx, r.Metrics, MetricsOpIssueUpdate, MetricsStageHistory, start, len(events), err != nil)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Issue updated",
		"project_id", projectID, "issue_id", issueID,
		"view_writes", len(ops), "history_events", len(events))
	return merged, nil
}

// Get fetches the canonical row by (project_id, issue_id).
func (r *IssueRepository) Get(ctx context.Context, projectID, issueID uuid.UUID) (*Issue, error) {
	row, err := r.exec.FetchOne(ctx, stmtGetIssueByID, projectID, issueID)
	if err != nil {
		return nil, fmt.Errorf("fetch issue: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return issueFromRow(row)
}

// History returns the append-only change history of an issue, newest first
// (the table's clustering order).
func (r *IssueRepository) History(ctx context.Context, projectID, issueID uuid.UUID) ([]HistoryEvent, error) {
	rows, err := r.exec.Execute(ctx, stmtListHistory, projectID, issueID)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	events := make([]HistoryEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := historyEventFromRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// ListByProject returns all issues of a project from the canonical table,
// newest first.
func (r *IssueRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]Issue, error) {
	rows, err := r.exec.Execute(ctx, stmtListIssuesByProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issuesFromRows(rows)
}

// ListByStatus returns a project's issues in one status, hydrated from the
// canonical table.
func (r *IssueRepository) ListByStatus(ctx context.Context, projectID uuid.UUID, status Status) ([]Issue, error) {
	stmt := "SELECT created_at, issue_id FROM issues_by_status WHERE project_id = ? AND status = ?"
	return r.listViaView(ctx, stmt, projectID, string(status))
}

// ListByPriority returns a project's issues at one priority.
func (r *IssueRepository) ListByPriority(ctx context.Context, projectID uuid.UUID, priority Priority) ([]Issue, error) {
	stmt := "SELECT created_at, issue_id FROM issues_by_priority WHERE project_id = ? AND priority = ?"
	return r.listViaView(ctx, stmt, projectID, string(priority))
}

// ListByAssignee returns the issues assigned to one user, optionally narrowed
// to a status (status leads the view's clustering key, so the narrowing is a
// key-prefix scan, not a filter).
func (r *IssueRepository) ListByAssignee(ctx context.Context, projectID, assigneeID uuid.UUID, status *Status) ([]Issue, error) {
	if status != nil {
		stmt := "SELECT created_at, issue_id FROM issues_by_assignee WHERE project_id = ? AND assignee_id = ? AND status = ?"
		return r.listViaView(ctx, stmt, projectID, assigneeID, string(*status))
	}
	stmt := "SELECT created_at, issue_id FROM issues_by_assignee WHERE project_id = ? AND assignee_id = ?"
	return r.listViaView(ctx, stmt, projectID, assigneeID)
}

// ListByComponent returns a project's issues for one component.
func (r *IssueRepository) ListByComponent(ctx context.Context, projectID uuid.UUID, component string) ([]Issue, error) {
	stmt := "SELECT created_at, issue_id FROM issues_by_component WHERE project_id = ? AND component = ?"
	return r.listViaView(ctx, stmt, projectID, component)
}

// listViaView scans a view for (created_at, issue_id) pairs and hydrates each
// from the canonical table by full primary key. A view row whose canonical
// row has vanished (the transient-inconsistency window) is skipped.
func (r *IssueRepository) listViaView(ctx context.Context, stmt string, params ...any) ([]Issue, error) {
	keyRows, err := r.exec.Execute(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("scan view: %w", err)
	}

	projectID := params[0]
	issues := make([]Issue, 0, len(keyRows))
	for _, keyRow := range keyRows {
		createdAt, err := rowTime(keyRow, FieldCreatedAt)
		if err != nil {
			return nil, err
		}
		issueID, err := rowUUID(keyRow, FieldIssueID)
		if err != nil {
			return nil, err
		}
		row, err := r.exec.FetchOne(ctx, stmtGetIssueByKey, projectID, createdAt, issueID)
		if err != nil {
			return nil, fmt.Errorf("hydrate issue: %w", err)
		}
		if row == nil {
			r.logger.Warn("View row without canonical row, skipping",
				"project_id", projectID, "issue_id", issueID)
			continue
		}
		issue, err := issueFromRow(row)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, nil
}

func (r *IssueRepository) syncOps(oldState, newState *Issue) []ViewOp {
	var ops []ViewOp
	for _, view := range r.views {
		ops = append(ops, SyncView(view, oldState, newState)...)
	}
	return ops
}

func (r *IssueRepository) applyOps(ctx context.Context, ops []ViewOp) error {
	for _, op := range ops {
		if _, err := r.exec.Execute(ctx, op.Statement, op.Params...); err != nil {
			r.logger.Error("View write failed, aborting remaining steps",
				"view", op.View, "op", op.Kind, "error", err)
			return fmt.Errorf("apply %s on %s: %w", op.Kind, op.View, err)
		}
	}
	return nil
}

func (r *IssueRepository) appendHistory(ctx context.Context, events []HistoryEvent) error {
	for _, ev := range events {
		_, err := r.exec.Execute(ctx, stmtInsertHistoryEvent,
			ev.ProjectID, ev.IssueID, ev.ChangedAt, ev.EventID,
			ev.FieldChanged, strValue(ev.OldValue), strValue(ev.NewValue), ev.ChangedBy)
		if err != nil {
			r.logger.Error("History write failed, aborting remaining steps",
				"field", ev.FieldChanged, "error", err)
			return fmt.Errorf("append history for %s: %w", ev.FieldChanged, err)
		}
	}
	return nil
}

func strValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// IssuePatch is a partial update. Every field is tri-state: not supplied
// (leave unchanged), supplied null (clear, for clearable fields), or supplied
// with a value. A plain pointer cannot express "clear this field", which is
// why each field is an Optional.
type IssuePatch struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Status      Optional[Status]    `json:"status"`
	Priority    Optional[Priority]  `json:"priority"`
	AssigneeID  Optional[uuid.UUID] `json:"assignee_id"`
	Component   Optional[string]    `json:"component"`
}

// IsZero reports whether the patch supplies no fields at all.
func (p IssuePatch) IsZero() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set &&
		!p.Priority.Set && !p.AssigneeID.Set && !p.Component.Set
}

// applyTo merges the patch over the current state. Immutable fields
// (reporter_id, created_at) carry over from current unconditionally.
func (p IssuePatch) applyTo(current *Issue) *Issue {
	merged := *current
	if p.Title.Set && !p.Title.Null {
		merged.Title = p.Title.Value
	}
	if p.Description.Set && !p.Description.Null {
		merged.Description = p.Description.Value
	}
	if p.Status.Set && !p.Status.Null {
		merged.Status = p.Status.Value
	}
	if p.Priority.Set && !p.Priority.Null {
		merged.Priority = p.Priority.Value
	}
	if p.AssigneeID.Set {
		if p.AssigneeID.Null {
			merged.AssigneeID = nil
		} else {
			id := p.AssigneeID.Value
			merged.AssigneeID = &id
		}
	}
	if p.Component.Set {
		if p.Component.Null {
			merged.Component = ""
		} else {
			merged.Component = p.Component.Value
		}
	}
	return &merged
}
