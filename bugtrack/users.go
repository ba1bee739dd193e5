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
	stmtInsertUser = "INSERT INTO users (user_id, username, email, role, created_at) VALUES (?, ?, ?, ?, ?)"
	stmtListUsers  = "SELECT user_id, username, email, role, created_at FROM users LIMIT ?"
)

// UserRepository manages tracker users.
type UserRepository struct {
	exec   Executor
	logger *slog.Logger
	now    func() time.Time
}

func NewUserRepository(exec Executor, logger *slog.Logger) *UserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserRepository{exec: exec, logger: logger, now: time.Now}
}

// Create stores a new user with a generated id.
func (r *UserRepository) Create(ctx context.Context, username, email string, role UserRole) (*User, error) {
	user := &User{
		UserID:    uuid.New(),
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: r.now(),
	}
	_, err := r.exec.Execute(ctx, stmtInsertUser, user.UserID, user.Username, user.Email, string(user.Role), user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// List returns up to limit users.
func (r *UserRepository) List(ctx context.Context, limit int) ([]User, error) {
	rows, err := r.exec.Execute(ctx, stmtListUsers, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]User, 0, len(rows))
	for _, row := range rows {
		u, err := userFromRow(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
