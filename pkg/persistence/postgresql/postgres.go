// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Postgres driver registration.
	_ "github.com/lib/pq"

	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	agencyRepo       *AgencyRepository
	caregiverRepo    *CaregiverRepository
	candidateRepo    *CandidateRepository
	automationRepo   *AutomationRepository
	campaignRepo     *CampaignRepository
	messageRepo      *MessageRepository
	conversationRepo *ConversationRepository
	notificationRepo *NotificationRepository
	credentialRepo   *CredentialRepository
	enrollmentRepo   *EnrollmentRepository
	activityRepo     *ActivityRepository
}

// NewPersistence opens a connection, runs migrations, and wires repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:               database,
		logger:           logger,
		agencyRepo:       NewAgencyRepository(database, logger),
		caregiverRepo:    NewCaregiverRepository(database, logger),
		candidateRepo:    NewCandidateRepository(database, logger),
		automationRepo:   NewAutomationRepository(database, logger),
		campaignRepo:     NewCampaignRepository(database, logger),
		messageRepo:      NewMessageRepository(database, logger),
		conversationRepo: NewConversationRepository(database, logger),
		notificationRepo: NewNotificationRepository(database, logger),
		credentialRepo:   NewCredentialRepository(database, logger),
		enrollmentRepo:   NewEnrollmentRepository(database, logger),
		activityRepo:     NewActivityRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) AgencyRepository() persistence.AgencyRepository { return p.agencyRepo }

func (p *Persistence) CaregiverRepository() persistence.CaregiverRepository { return p.caregiverRepo }

func (p *Persistence) CandidateRepository() persistence.CandidateRepository { return p.candidateRepo }

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automationRepo
}

func (p *Persistence) CampaignRepository() persistence.CampaignRepository { return p.campaignRepo }

func (p *Persistence) MessageRepository() persistence.MessageRepository { return p.messageRepo }

func (p *Persistence) ConversationRepository() persistence.ConversationRepository {
	return p.conversationRepo
}

func (p *Persistence) NotificationRepository() persistence.NotificationRepository {
	return p.notificationRepo
}

func (p *Persistence) CredentialRepository() persistence.CredentialRepository {
	return p.credentialRepo
}

func (p *Persistence) EnrollmentRepository() persistence.EnrollmentRepository {
	return p.enrollmentRepo
}

func (p *Persistence) ActivityRepository() persistence.ActivityRepository { return p.activityRepo }
