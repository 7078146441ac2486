// Package jobs maps scheduled trigger names to the work they fan out across
// tenants.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carelane/carelane/pkg/automation"
	"github.com/carelane/carelane/pkg/models"
	"github.com/carelane/carelane/pkg/otelhelper"
	"github.com/carelane/carelane/pkg/outreach"
	"github.com/carelane/carelane/pkg/persistence"
	"github.com/carelane/carelane/pkg/services"
	"go.opentelemetry.io/otel"
)

// Name identifies one scheduled job. The set is closed; cron entries and the
// trigger endpoint both validate against it.
type Name string

const (
	JobAutomations Name = "automations"
	JobBriefing    Name = "briefing"
	JobScoring     Name = "scoring"
	JobSequences   Name = "sequences"
	JobSyncAds     Name = "sync-ads"
)

// Names lists every known job.
func Names() []Name {
	return []Name{JobAutomations, JobBriefing, JobScoring, JobSequences, JobSyncAds}
}

// Valid reports whether n names a known job.
func (n Name) Valid() bool {
	switch n {
	case JobAutomations, JobBriefing, JobScoring, JobSequences, JobSyncAds:
		return true
	default:
		return false
	}
}

// AdsClient fetches current campaign spend from the ad platform.
type AdsClient interface {
	// Configured reports whether the agency can sync at all.
	Configured(ctx context.Context, agencyID string) bool
	// FetchSpend returns the campaign's lifetime spend.
	FetchSpend(ctx context.Context, campaign *models.AdCampaign) (float64, error)
}

// NoopAdsClient is the default when no ad platform is wired; sync-ads skips
// every tenant.
type NoopAdsClient struct{}

func (NoopAdsClient) Configured(context.Context, string) bool { return false }

func (NoopAdsClient) FetchSpend(_ context.Context, campaign *models.AdCampaign) (float64, error) {
	return campaign.Spend, nil
}

// Service executes named jobs. Every job iterates tenants independently; one
// tenant's failure is logged and never stops the rest.
type Service struct {
	persistence persistence.Persistence
	runner      *automation.Runner
	dispatcher  *outreach.Dispatcher
	notifier    *services.Notifier
	ads         AdsClient
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(p persistence.Persistence, runner *automation.Runner, dispatcher *outreach.Dispatcher, notifier *services.Notifier, ads AdsClient, logger *slog.Logger) *Service {
	if ads == nil {
		ads = NoopAdsClient{}
	}

	return &Service{
		persistence: p,
		runner:      runner,
		dispatcher:  dispatcher,
		notifier:    notifier,
		ads:         ads,
		logger:      logger.With("module", "jobs"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one job by name.
func (s *Service) Run(ctx context.Context, name Name) error {
	tracer := otel.Tracer("jobs")

	ctx, span := otelhelper.StartSpan(ctx, tracer, "jobs.run",
		otelhelper.JobAttr(string(name)))
	defer span.End()

	s.logger.InfoContext(ctx, "running scheduled job", "job", name)

	err := s.run(ctx, name)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

func (s *Service) run(ctx context.Context, name Name) error {
	switch name {
	case JobAutomations:
		_, err := s.runner.Sweep(ctx)

		return err
	case JobScoring:
		_, err := s.runner.SweepKeys(ctx, models.AutomationLeadScoring)

		return err
	case JobSequences:
		return s.forEachAgency(ctx, s.retrySequences)
	case JobBriefing:
		return s.forEachAgency(ctx, s.sendBriefing)
	case JobSyncAds:
		return s.forEachAgency(ctx, s.syncAds)
	default:
		return fmt.Errorf("%w: %s", services.ErrUnknownJob, name)
	}
}

func (s *Service) forEachAgency(ctx context.Context, fn func(ctx context.Context, agency *models.Agency) error) error {
	agencies, err := s.persistence.AgencyRepository().All(ctx)
	if err != nil {
		return fmt.Errorf("listing agencies: %w", err)
	}

	for _, agency := range agencies {
		if err := fn(ctx, agency); err != nil {
			s.logger.ErrorContext(ctx, "job failed for tenant", "agency_id", agency.ID, "error", err)
		}
	}

	return nil
}

func (s *Service) retrySequences(ctx context.Context, agency *models.Agency) error {
	sent, err := s.dispatcher.RetryQueued(ctx, agency.ID)
	if err != nil {
		return err
	}

	if sent > 0 {
		s.logger.InfoContext(ctx, "retried queued outreach", "agency_id", agency.ID, "sent", sent)
	}

	return nil
}

// sendBriefing delivers the daily digest: new leads, unread threads and
// messages sent over the last day.
func (s *Service) sendBriefing(ctx context.Context, agency *models.Agency) error {
	since := s.now().Add(-24 * time.Hour)

	newLeads, err := s.persistence.CaregiverRepository().CountCreatedSince(ctx, agency.ID, since)
	if err != nil {
		return fmt.Errorf("counting new leads: %w", err)
	}

	unread, err := s.persistence.ConversationRepository().CountUnread(ctx, agency.ID)
	if err != nil {
		return fmt.Errorf("counting unread threads: %w", err)
	}

	sent, err := s.persistence.MessageRepository().CountSentSince(ctx, agency.ID, since)
	if err != nil {
		return fmt.Errorf("counting sent messages: %w", err)
	}

	body := fmt.Sprintf("Last 24h: %d new leads, %d messages sent. %d conversations awaiting a reply.",
		newLeads, sent, unread)

	_, err = s.notifier.NotifyAgency(ctx, agency.ID, models.NotificationDailyBriefing, "Your daily briefing", body)

	return err
}

// syncAds refreshes spend for the tenant's active campaigns. Tenants without a
// configured ad platform are skipped.
func (s *Service) syncAds(ctx context.Context, agency *models.Agency) error {
	if !s.ads.Configured(ctx, agency.ID) {
		return nil
	}

	campaigns, err := s.persistence.CampaignRepository().ListActive(ctx, agency.ID)
	if err != nil {
		return fmt.Errorf("listing campaigns: %w", err)
	}

	for _, campaign := range campaigns {
		spend, err := s.ads.FetchSpend(ctx, campaign)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to fetch campaign spend",
				"agency_id", agency.ID, "campaign_id", campaign.ID, "error", err)

			continue
		}

		now := s.now()
		campaign.Spend = spend
		campaign.LastSyncedAt = &now
		campaign.UpdatedAt = now

		if err := s.persistence.CampaignRepository().Update(ctx, campaign); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist campaign spend",
				"agency_id", agency.ID, "campaign_id", campaign.ID, "error", err)
		}
	}

	return nil
}
