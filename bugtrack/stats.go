// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"

	"github.com/google/uuid"
)

// ProjectStatistics aggregates one project's issues by status, priority and
// component. A single canonical-partition scan feeds all three breakdowns;
// the derived views cannot answer this (their partition keys include the
// grouping column, so a per-project rollup would need a partition scan per
// status/priority/component value).
func (r *IssueRepository) ProjectStatistics(ctx context.Context, projectID uuid.UUID) (*ProjectStatistics, error) {
	issues, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &ProjectStatistics{
		ProjectID:         projectID,
		TotalIssues:       len(issues),
		IssuesByStatus:    make(map[string]int),
		IssuesByPriority:  make(map[string]int),
		IssuesByComponent: make(map[string]int),
	}
	for i := range issues {
		stats.IssuesByStatus[string(issues[i].Status)]++
		stats.IssuesByPriority[string(issues[i].Priority)]++
		if issues[i].Component != "" {
			stats.IssuesByComponent[issues[i].Component]++
		}
	}
	return stats, nil
}
