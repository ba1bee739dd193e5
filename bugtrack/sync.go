// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package bugtrack

import (
	"fmt"
	"strings"
)

// ViewOp is one write intent against a denormalized view. The synchronizer
// only emits intents; the repository executes them through the Executor, so
// the decision logic is testable without a live store.
type ViewOp struct {
	Kind      string // OpInsert, OpUpdate, OpDelete
	View      string // table name
	Statement string
	Params    []any
}

// SyncView computes the minimal write sequence that brings one view in line
// with an issue transition. oldState nil means creation, newState nil means
// deletion; both non-nil is an update.
//
// The decision table, evaluated independently per view:
//
//	excluded -> excluded   nothing
//	excluded -> included   INSERT projected from newState
//	included -> excluded   DELETE keyed by oldState
//	included -> included   key fields differ: DELETE old key + INSERT new key
//	                       key fields equal:  UPDATE carried fields in place
//
// The same issue update can therefore be a no-op for one view, an in-place
// update for another, and a delete+insert for a third. Re-applying the result
// for the same (oldState, newState) pair is safe: deletes of absent rows and
// inserts over identical rows leave the view unchanged, which is what makes a
// repair pass after a partial failure possible.
func SyncView(view ViewSpec, oldState, newState *Issue) []ViewOp {
	oldIncluded := oldState != nil && view.Includes(oldState)
	newIncluded := newState != nil && view.Includes(newState)

	switch {
	case !oldIncluded && !newIncluded:
		return nil
	case !oldIncluded && newIncluded:
		return []ViewOp{insertOp(view, newState)}
	case oldIncluded && !newIncluded:
		return []ViewOp{deleteOp(view, oldState)}
	}

	if viewKeyChanged(view, oldState, newState) {
		// A storage engine with immutable primary keys cannot move a row;
		// the old location must be deleted and the new one inserted.
		return []ViewOp{deleteOp(view, oldState), insertOp(view, newState)}
	}
	if !carriedChanged(view, oldState, newState) {
		return nil
	}
	return []ViewOp{updateOp(view, oldState, newState)}
}

// SyncAllViews runs SyncView across the full registry in registry order
// (canonical table first) and concatenates the intents.
func SyncAllViews(oldState, newState *Issue) []ViewOp {
	var ops []ViewOp
	for _, view := range registeredViews {
		ops = append(ops, SyncView(view, oldState, newState)...)
	}
	return ops
}

func viewKeyChanged(view ViewSpec, oldState, newState *Issue) bool {
	for _, field := range view.KeyFields() {
		if !fieldValueEqual(issueFieldValue(oldState, field), issueFieldValue(newState, field)) {
			return true
		}
	}
	return false
}

func carriedChanged(view ViewSpec, oldState, newState *Issue) bool {
	for _, field := range view.Carried {
		if !fieldValueEqual(issueFieldValue(oldState, field), issueFieldValue(newState, field)) {
			return true
		}
	}
	return false
}

func insertOp(view ViewSpec, is *Issue) ViewOp {
	cols := view.Columns()
	params := make([]any, 0, len(cols))
	for _, col := range cols {
		params = append(params, issueFieldValue(is, col))
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		view.Name, strings.Join(cols, ", "), placeholders(len(cols)))
	return ViewOp{Kind: OpInsert, View: view.Name, Statement: stmt, Params: params}
}

func deleteOp(view ViewSpec, is *Issue) ViewOp {
	key := view.KeyFields()
	params := make([]any, 0, len(key))
	for _, col := range key {
		params = append(params, issueFieldValue(is, col))
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", view.Name, keyPredicate(key))
	return ViewOp{Kind: OpDelete, View: view.Name, Statement: stmt, Params: params}
}

// updateOp writes the carried columns from newState, keyed by oldState's
// (unchanged) key projection. The key columns themselves are never assigned.
func updateOp(view ViewSpec, oldState, newState *Issue) ViewOp {
	assignments := make([]string, 0, len(view.Carried))
	params := make([]any, 0, len(view.Carried)+len(view.PartitionKey)+len(view.ClusteringKey))
	for _, col := range view.Carried {
		assignments = append(assignments, col+" = ?")
		params = append(params, issueFieldValue(newState, col))
	}
	key := view.KeyFields()
	for _, col := range key {
		params = append(params, issueFieldValue(oldState, col))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		view.Name, strings.Join(assignments, ", "), keyPredicate(key))
	return ViewOp{Kind: OpUpdate, View: view.Name, Statement: stmt, Params: params}
}

func keyPredicate(key []string) string {
	preds := make([]string, len(key))
	for i, col := range key {
		preds[i] = col + " = ?"
	}
	return strings.Join(preds, " AND ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
