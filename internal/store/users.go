package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/safar/marketplace-orders/internal/models"
)

const userColumns = `id, email, name, created_at, updated_at, version`

func CreateUser(ctx context.Context, db sqlx.QueryerContext, id, email, name string) (*models.User, error) {
	if id == "" {
		id = uuid.NewString()
	}

	user := &models.User{}
	query := `
		INSERT INTO users (id, email, name, created_at, updated_at, version)
		VALUES ($1, $2, $3, NOW(), NOW(), 1)
		RETURNING ` + userColumns

	if err := sqlx.GetContext(ctx, db, user, query, id, email, name); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db sqlx.QueryerContext, id string) (*models.User, error) {
	user := &models.User{}
	err := sqlx.GetContext(ctx, db, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func UserExists(ctx context.Context, db sqlx.QueryerContext, id string) (bool, error) {
	var exists bool
	err := db.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func ListUsers(ctx context.Context, db sqlx.QueryerContext, page, pageSize int) (*OffsetPage, error) {
	var total int64
	if err := sqlx.GetContext(ctx, db, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	users := []models.User{}
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	if err := sqlx.SelectContext(ctx, db, &users, query, pageSize, offsetFor(page, pageSize)); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return newOffsetPage(users, total, page, pageSize), nil
}
