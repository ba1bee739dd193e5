// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"fmt"
	"log/slog"
)

// SeedResult lists the identifiers created by a seed run.
type SeedResult struct {
	Users    []string `json:"users"`
	Projects []string `json:"projects"`
	Issues   []string `json:"issues"`
}

// Seeder populates the store with deterministic test data. Issues are created
// through the IssueRepository so the seed data goes through the same view
// synchronization as live traffic and the views cannot start out diverged.
type Seeder struct {
	exec     Executor
	issues   *IssueRepository
	users    *UserRepository
	projects *ProjectRepository
	comments *CommentRepository
	logger   *slog.Logger
}

func NewSeeder(exec Executor, issues *IssueRepository, users *UserRepository,
	projects *ProjectRepository, comments *CommentRepository, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		exec:     exec,
		issues:   issues,
		users:    users,
		projects: projects,
		comments: comments,
		logger:   logger,
	}
}

// Clear truncates every table.
func (s *Seeder) Clear(ctx context.Context) error {
	return TruncateAll(ctx, s.exec)
}

// Seed clears the store and loads a small fixed dataset: four users, two
// projects, four issues (one unassigned, one without a component) and two
// comments on the first issue.
func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	if err := s.Clear(ctx); err != nil {
		return nil, err
	}

	admin, err := s.users.Create(ctx, "admin_user", "admin@company.com", RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	dev1, err := s.users.Create(ctx, "dev_user1", "dev1@company.com", RoleDeveloper)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	dev2, err := s.users.Create(ctx, "dev_user2", "dev2@company.com", RoleDeveloper)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	tester, err := s.users.Create(ctx, "tester_user", "tester@company.com", RoleTester)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	webApp, err := s.projects.Create(ctx, "Web Application", "Main company web application")
	if err != nil {
		return nil, fmt.Errorf("seed projects: %w", err)
	}
	mobileApp, err := s.projects.Create(ctx, "Mobile App", "Mobile application for iOS and Android")
	if err != nil {
		return nil, fmt.Errorf("seed projects: %w", err)
	}

	issueInputs := []CreateIssueInput{
		{
			ProjectID:   webApp.ProjectID,
			Title:       "Login fails with valid credentials",
			Description: "Users cannot sign in even with correct credentials",
			Status:      StatusOpen,
			Priority:    PriorityHigh,
			AssigneeID:  &dev1.UserID,
			ReporterID:  tester.UserID,
			Component:   "authentication",
		},
		{
			ProjectID:   webApp.ProjectID,
			Title:       "Slow page load",
			Description: "Landing page takes more than 5 seconds to load",
			Status:      StatusInProgress,
			Priority:    PriorityMedium,
			AssigneeID:  &dev2.UserID,
			ReporterID:  admin.UserID,
			Component:   "performance",
		},
		{
			ProjectID:   webApp.ProjectID,
			Title:       "Broken layout in Safari",
			Description: "Profile page renders incorrectly in Safari",
			Status:      StatusOpen,
			Priority:    PriorityLow,
			ReporterID:  tester.UserID,
			Component:   "frontend",
		},
		{
			ProjectID:   mobileApp.ProjectID,
			Title:       "Crash on screen rotation",
			Description: "App crashes when the home screen orientation changes",
			Status:      StatusOpen,
			Priority:    PriorityCritical,
			AssigneeID:  &dev1.UserID,
			ReporterID:  tester.UserID,
		},
	}

	result := &SeedResult{
		Users:    []string{admin.UserID.String(), dev1.UserID.String(), dev2.UserID.String(), tester.UserID.String()},
		Projects: []string{webApp.ProjectID.String(), mobileApp.ProjectID.String()},
	}

	var firstIssue *Issue
	for _, in := range issueInputs {
		issue, err := s.issues.Create(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed issues: %w", err)
		}
		if firstIssue == nil {
			firstIssue = issue
		}
		result.Issues = append(result.Issues, issue.IssueID.String())
	}

	if _, err := s.comments.Create(ctx, firstIssue.ProjectID, firstIssue.IssueID, dev1.UserID,
		"Taking a look. Smells like a session handling problem."); err != nil {
		return nil, fmt.Errorf("seed comments: %w", err)
	}
	if _, err := s.comments.Create(ctx, firstIssue.ProjectID, firstIssue.IssueID, tester.UserID,
		"Thanks! Waiting for updates."); err != nil {
		return nil, fmt.Errorf("seed comments: %w", err)
	}

	s.logger.Info("Test data seeded",
		"users", len(result.Users), "projects", len(result.Projects), "issues", len(result.Issues))
	return result, nil
}
