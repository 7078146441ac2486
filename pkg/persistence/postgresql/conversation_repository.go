package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// ConversationRepository handles conversation-thread database operations.
type ConversationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sql.DB, logger *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, logger: logger}
}

const threadColumns = `
	id, agency_id, channel, address, contact_type, contact_id, unread_count,
	last_message_preview, last_message_at, created_at, updated_at`

func (r *ConversationRepository) scanThread(row interface{ Scan(...any) error }) (*models.ConversationThread, error) {
	var thread models.ConversationThread

	err := row.Scan(
		&thread.ID,
		&thread.AgencyID,
		&thread.Channel,
		&thread.Address,
		&thread.ContactType,
		&thread.ContactID,
		&thread.UnreadCount,
		&thread.LastMessagePreview,
		&thread.LastMessageAt,
		&thread.CreatedAt,
		&thread.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &thread, nil
}

// GetByID returns one thread by its identifier.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.ConversationThread, error) {
	query := `SELECT ` + threadColumns + ` FROM conversation_threads WHERE id = $1`

	thread, err := r.scanThread(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrConversationNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query conversation thread: %w", err)
	}

	return thread, nil
}

// GetByAddress returns the thread for one (agency, channel, address) tuple.
func (r *ConversationRepository) GetByAddress(ctx context.Context, agencyID string, channel models.Channel, address string) (*models.ConversationThread, error) {
	query := `SELECT ` + threadColumns + `
		FROM conversation_threads
		WHERE agency_id = $1 AND channel = $2 AND address = $3`

	thread, err := r.scanThread(r.db.QueryRowContext(ctx, query, agencyID, channel, address))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrConversationNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query conversation thread: %w", err)
	}

	return thread, nil
}

// Save inserts a new thread.
func (r *ConversationRepository) Save(ctx context.Context, thread *models.ConversationThread) error {
	query := `
		INSERT INTO conversation_threads (` + threadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		thread.ID, thread.AgencyID, thread.Channel, thread.Address, thread.ContactType,
		thread.ContactID, thread.UnreadCount, thread.LastMessagePreview,
		thread.LastMessageAt, thread.CreatedAt, thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation thread: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an existing thread.
func (r *ConversationRepository) Update(ctx context.Context, thread *models.ConversationThread) error {
	query := `
		UPDATE conversation_threads
		SET contact_type = $2, contact_id = $3, unread_count = $4,
			last_message_preview = $5, last_message_at = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		thread.ID, thread.ContactType, thread.ContactID, thread.UnreadCount,
		thread.LastMessagePreview, thread.LastMessageAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update conversation thread: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrConversationNotFound
	}

	return nil
}

// MarkRead resets the unread counter of a thread to zero.
func (r *ConversationRepository) MarkRead(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE conversation_threads SET unread_count = 0, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.ErrConversationNotFound
	}

	return nil
}

// ListByAgency returns the agency's threads, most recent activity first.
func (r *ConversationRepository) ListByAgency(ctx context.Context, agencyID string) ([]*models.ConversationThread, error) {
	query := `SELECT ` + threadColumns + `
		FROM conversation_threads
		WHERE agency_id = $1
		ORDER BY last_message_at DESC`

	rows, err := r.db.QueryContext(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation threads: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var threads []*models.ConversationThread

	for rows.Next() {
		thread, err := r.scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation thread: %w", err)
		}

		threads = append(threads, thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation threads: %w", err)
	}

	return threads, nil
}

// CountUnread returns the number of threads with unread messages.
func (r *ConversationRepository) CountUnread(ctx context.Context, agencyID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_threads WHERE agency_id = $1 AND unread_count > 0`,
		agencyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread threads: %w", err)
	}

	return count, nil
}
