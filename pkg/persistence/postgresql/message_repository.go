package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/models"
)

// MessageRepository handles the append-only message log and raw inbound
// messages. Entries are write-once; there is no update path.
type MessageRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sql.DB, logger *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

// AppendLog records one send attempt.
func (r *MessageRepository) AppendLog(ctx context.Context, entry *models.MessageLog) error {
	query := `
		INSERT INTO message_logs (id, agency_id, channel, recipient, subject, body, status,
			mock, external_id, error_message, related_type, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.AgencyID, entry.Channel, entry.Recipient, entry.Subject,
		entry.Body, entry.Status, entry.Mock, entry.ExternalID, entry.ErrorMessage,
		entry.RelatedType, entry.RelatedID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message log: %w", err)
	}

	return nil
}

// SaveInbound records one received provider callback.
func (r *MessageRepository) SaveInbound(ctx context.Context, msg *models.InboundMessage) error {
	query := `
		INSERT INTO inbound_messages (id, agency_id, channel, from_address, to_address, subject,
			body, provider_message_id, matched, contact_type, contact_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID, msg.AgencyID, msg.Channel, msg.From, msg.To, msg.Subject,
		msg.Body, msg.ProviderMessageID, msg.Matched, msg.ContactType, msg.ContactID,
		msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save inbound message: %w", err)
	}

	return nil
}

// CountSentSince returns the number of successful sends after the given time.
func (r *MessageRepository) CountSentSince(ctx context.Context, agencyID string, since time.Time) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM message_logs WHERE agency_id = $1 AND status = 'sent' AND created_at >= $2`,
		agencyID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sent messages: %w", err)
	}

	return count, nil
}
