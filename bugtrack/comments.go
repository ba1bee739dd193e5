// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	stmtInsertComment = "INSERT INTO issue_comments (project_id, issue_id, created_at, comment_id, user_id, content) " +
		"VALUES (?, ?, ?, ?, ?, ?)"
	stmtListComments = "SELECT project_id, issue_id, created_at, comment_id, user_id, content " +
		"FROM issue_comments WHERE project_id = ? AND issue_id = ?"
)

// CommentRepository manages issue comments. Comments are write-once and
// read-many; no view synchronization applies to them.
type CommentRepository struct {
	exec   Executor
	logger *slog.Logger
	now    func() time.Time
}

func NewCommentRepository(exec Executor, logger *slog.Logger) *CommentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentRepository{exec: exec, logger: logger, now: time.Now}
}

// Create appends a comment to an issue.
func (r *CommentRepository) Create(ctx context.Context, projectID, issueID, userID uuid.UUID, content string) (*Comment, error) {
	comment := &Comment{
		CommentID: uuid.New(),
		IssueID:   issueID,
		ProjectID: projectID,
		UserID:    userID,
		Content:   content,
		CreatedAt: r.now(),
	}
	_, err := r.exec.Execute(ctx, stmtInsertComment,
		comment.ProjectID, comment.IssueID, comment.CreatedAt, comment.CommentID, comment.UserID, comment.Content)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// ListByIssue returns an issue's comments, newest first (the table's
// clustering order).
func (r *CommentRepository) ListByIssue(ctx context.Context, projectID, issueID uuid.UUID) ([]Comment, error) {
	rows, err := r.exec.Execute(ctx, stmtListComments, projectID, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]Comment, 0, len(rows))
	for _, row := range rows {
		c, err := commentFromRow(row)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}
