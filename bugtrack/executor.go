// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import "context"

// Row is one result row keyed by column name.
type Row map[string]any

// Executor is the data-access seam the repositories write through. The
// production implementation is Session (a Cassandra session); tests inject a
// recording fake. Implementations must be safe for concurrent use from
// multiple in-flight requests and must surface failures as *StorageError.
type Executor interface {
	// Execute runs a write or a multi-row read.
	Execute(ctx context.Context, stmt string, params ...any) ([]Row, error)

	// FetchOne runs a read expected to return 0 or 1 rows.
	// It returns (nil, nil) when no row matches.
	FetchOne(ctx context.Context, stmt string, params ...any) (Row, error)
}
