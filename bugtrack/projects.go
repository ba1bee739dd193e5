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
	stmtInsertProject = "INSERT INTO projects (project_id, name, description, created_at) VALUES (?, ?, ?, ?)"
	stmtListProjects  = "SELECT project_id, name, description, created_at FROM projects LIMIT ?"
)

// ProjectRepository manages projects. Projects sit outside the view-sync
// problem: single table, single row per entity.
type ProjectRepository struct {
	exec   Executor
	logger *slog.Logger
	now    func() time.Time
}

func NewProjectRepository(exec Executor, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectRepository{exec: exec, logger: logger, now: time.Now}
}

// Create stores a new project with a generated id.
func (r *ProjectRepository) Create(ctx context.Context, name, description string) (*Project, error) {
	project := &Project{
		ProjectID:   uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   r.now(),
	}
	var desc any
	if description != "" {
		desc = description
	}
	_, err := r.exec.Execute(ctx, stmtInsertProject, project.ProjectID, project.Name, desc, project.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// List returns up to limit projects.
func (r *ProjectRepository) List(ctx context.Context, limit int) ([]Project, error) {
	rows, err := r.exec.Execute(ctx, stmtListProjects, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, 0, len(rows))
	for _, row := range rows {
		p, err := projectFromRow(row)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}
