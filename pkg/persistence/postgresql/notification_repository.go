package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/carelane/carelane/pkg/models"
)

// NotificationRepository handles in-app notification database operations.
type NotificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sql.DB, logger *slog.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Save inserts a notification.
func (r *NotificationRepository) Save(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (id, agency_id, user_id, kind, title, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		notification.ID, notification.AgencyID, notification.UserID, notification.Kind,
		notification.Title, notification.Body, notification.Read, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// ListByUser returns one user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, agencyID, userID string) ([]*models.Notification, error) {
	query := `
		SELECT id, agency_id, user_id, kind, title, body, read, created_at
		FROM notifications
		WHERE agency_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, agencyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var notifications []*models.Notification

	for rows.Next() {
		var notification models.Notification

		err := rows.Scan(&notification.ID, &notification.AgencyID, &notification.UserID,
			&notification.Kind, &notification.Title, &notification.Body,
			&notification.Read, &notification.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
