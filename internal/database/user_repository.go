package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexbot/pkg/models"
)

const userColumns = `id, telegram_id, username, first_name, last_name, is_admin,
	notification_enabled, notification_hour, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByTelegramID returns a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`)

	err := r.db.GetContext(ctx, &user, query, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", err)
	}
	return &user, nil
}

// Create inserts a new user or refreshes the profile of an existing one.
// Notification settings of an existing user are left alone.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (
			telegram_id, username, first_name, last_name, is_admin,
			notification_enabled, notification_hour
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			is_admin = excluded.is_admin,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, notification_enabled, notification_hour
	`)

	err := r.db.QueryRowxContext(ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.NotificationEnabled,
		user.NotificationHour,
	).Scan(&user.ID, &user.NotificationEnabled, &user.NotificationHour)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateNotificationSettings stores the reminder preferences of a user
func (r *UserRepository) UpdateNotificationSettings(ctx context.Context, userID int64, enabled bool, hour int) error {
	query := r.db.Rebind(`
		UPDATE users
		SET notification_enabled = ?, notification_hour = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query, enabled, hour, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUsersForNotification returns users who have notifications enabled at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + `
		FROM users
		WHERE notification_enabled = ? AND notification_hour = ?
		ORDER BY id`)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}
