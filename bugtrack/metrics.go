// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"context"
	"time"
)

const (
	MetricsOpIssueCreate = "issue_create"
	MetricsOpIssueUpdate = "issue_update"

	// Stages of one logical issue operation.
	MetricsStageFetch    = "fetch"
	MetricsStageViewSync = "view_sync"
	MetricsStageHistory  = "history"
)

// StageTiming is one observed stage of a logical operation.
type StageTiming struct {
	Operation string
	Stage     string
	Duration  time.Duration
	Count     int
	Error     bool
}

// StageMetricsRecorder receives stage timings. The backend is the consumer's
// choice; the repositories only emit.
type StageMetricsRecorder interface {
	ObserveStage(ctx context.Context, timing StageTiming)
}

type StageMetricsRecorderFunc func(ctx context.Context, timing StageTiming)

func (f StageMetricsRecorderFunc) ObserveStage(ctx context.Context, timing StageTiming) {
	f(ctx, timing)
}

func stageStart(rec StageMetricsRecorder) time.Time {
	if rec == nil {
		return time.Time{}
	}
	return time.Now()
}

func observeStage(ctx context.Context, rec StageMetricsRecorder, op, stage string, start time.Time, count int, hadError bool) {
	if rec == nil || start.IsZero() {
		return
	}
	rec.ObserveStage(ctx, StageTiming{
		Operation: op,
		Stage:     stage,
		Duration:  time.Since(start),
		Count:     count,
		Error:     hadError,
	})
}
