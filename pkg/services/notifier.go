package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/persistence"
)

// Notifier fans internal notifications out to every member of an agency.
type Notifier struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewNotifier(p persistence.Persistence, logger *slog.Logger) *Notifier {
	return &Notifier{
		persistence: p,
		logger:      logger.With("module", "notifier"),
	}
}

// NotifyAgency stores one notification per agency member and returns how many
// were created. An agency without members yields zero without error; staff
// rosters are allowed to be empty during onboarding.
func (n *Notifier) NotifyAgency(ctx context.Context, agencyID string, kind models.NotificationKind, title, body string) (int, error) {
	members, err := n.persistence.AgencyRepository().Members(ctx, agencyID)
	if err != nil {
		return 0, fmt.Errorf("loading agency members: %w", err)
	}

	created := 0

	for _, member := range members {
		notification := &models.Notification{
			ID:        uuid.New().String(),
			AgencyID:  agencyID,
			UserID:    member.UserID,
			Kind:      kind,
			Title:     title,
			Body:      body,
			CreatedAt: time.Now().UTC(),
		}

		if err := n.persistence.NotificationRepository().Save(ctx, notification); err != nil {
			n.logger.ErrorContext(ctx, "failed to save notification",
				"agency_id", agencyID, "user_id", member.UserID, "error", err)

			continue
		}

		created++
	}

	return created, nil
}
