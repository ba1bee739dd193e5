// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const actorIDKey contextKey = "actor_id"

// SetActorID sets the authenticated acting user in the context.
func SetActorID(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorID retrieves the authenticated acting user from the context.
func ActorID(ctx context.Context) (uuid.UUID, bool) {
	actorID, ok := ctx.Value(actorIDKey).(uuid.UUID)
	return actorID, ok
}
