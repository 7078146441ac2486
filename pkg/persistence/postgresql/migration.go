package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE agencies (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				slug VARCHAR(255) NOT NULL UNIQUE,
				primary_color VARCHAR(32) NOT NULL DEFAULT '',
				logo_url TEXT NOT NULL DEFAULT '',
				phone VARCHAR(32) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_agencies_deleted_at ON agencies(deleted_at);

			CREATE TABLE agency_members (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				user_id VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'member',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (agency_id, user_id)
			);

			CREATE INDEX idx_agency_members_agency_id ON agency_members(agency_id);

			CREATE TABLE caregivers (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				first_name VARCHAR(255) NOT NULL,
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(32) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL DEFAULT '',
				state VARCHAR(64) NOT NULL DEFAULT '',
				county VARCHAR(128) NOT NULL DEFAULT '',
				currently_caregiving BOOLEAN NOT NULL DEFAULT FALSE,
				years_experience INT NOT NULL DEFAULT 0,
				patient_name VARCHAR(255) NOT NULL DEFAULT '',
				patient_medicaid_id VARCHAR(128) NOT NULL DEFAULT '',
				patient_medicaid_status VARCHAR(32) NOT NULL DEFAULT '',
				has_transportation BOOLEAN NOT NULL DEFAULT FALSE,
				availability VARCHAR(255) NOT NULL DEFAULT '',
				background_check_passed BOOLEAN NOT NULL DEFAULT FALSE,
				status VARCHAR(32) NOT NULL DEFAULT 'new'
					CHECK (status IN ('new', 'contacted', 'intake_started', 'enrollment_pending', 'authorized', 'active')),
				lead_score INT,
				lead_tier VARCHAR(8) NOT NULL DEFAULT '',
				score_reasoning TEXT NOT NULL DEFAULT '',
				auto_followup_count INT NOT NULL DEFAULT 0,
				last_contacted_at TIMESTAMP WITH TIME ZONE,
				enrollment_started_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_caregivers_agency_id ON caregivers(agency_id);
			CREATE INDEX idx_caregivers_status ON caregivers(status);
			CREATE INDEX idx_caregivers_lead_score ON caregivers(lead_score);
			CREATE INDEX idx_caregivers_phone ON caregivers(phone);
			CREATE INDEX idx_caregivers_email ON caregivers(email);

			CREATE TABLE sourcing_campaigns (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				name VARCHAR(255) NOT NULL,
				source VARCHAR(64) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE candidates (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				sourcing_campaign_id UUID,
				first_name VARCHAR(255) NOT NULL,
				last_name VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(32) NOT NULL DEFAULT '',
				email VARCHAR(255) NOT NULL DEFAULT '',
				state VARCHAR(64) NOT NULL DEFAULT '',
				match_score INT NOT NULL DEFAULT 0,
				outreach_status VARCHAR(32) NOT NULL DEFAULT 'not_started'
					CHECK (outreach_status IN ('not_started', 'queued', 'sent', 'responded')),
				phone_screen_status VARCHAR(32) NOT NULL DEFAULT 'not_started',
				promoted_caregiver_id UUID REFERENCES caregivers(id),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_candidates_agency_id ON candidates(agency_id);
			CREATE INDEX idx_candidates_outreach_status ON candidates(outreach_status);
			CREATE INDEX idx_candidates_phone ON candidates(phone);

			CREATE TABLE ad_campaigns (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				name VARCHAR(255) NOT NULL,
				platform VARCHAR(64) NOT NULL DEFAULT '',
				external_id VARCHAR(255) NOT NULL DEFAULT '',
				status VARCHAR(32) NOT NULL DEFAULT 'draft'
					CHECK (status IN ('draft', 'active', 'paused', 'ended')),
				spend NUMERIC(12, 2) NOT NULL DEFAULT 0,
				pause_threshold NUMERIC(12, 2) NOT NULL DEFAULT 0,
				last_synced_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_ad_campaigns_agency_id ON ad_campaigns(agency_id);
			CREATE INDEX idx_ad_campaigns_status ON ad_campaigns(status);

			CREATE TABLE automation_rules (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				automation_key VARCHAR(64) NOT NULL
					CHECK (automation_key IN ('lead_scoring', 'follow_up_reminders', 'performance_alerts', 'stale_enrollment_alerts')),
				active BOOLEAN NOT NULL DEFAULT TRUE,
				last_run_at TIMESTAMP WITH TIME ZONE,
				actions_this_week INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (agency_id, automation_key)
			);

			CREATE TABLE message_logs (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				channel VARCHAR(16) NOT NULL CHECK (channel IN ('sms', 'email', 'in_app')),
				recipient VARCHAR(255) NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL,
				status VARCHAR(16) NOT NULL CHECK (status IN ('pending', 'sent', 'failed')),
				mock BOOLEAN NOT NULL DEFAULT FALSE,
				external_id VARCHAR(255) NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				related_type VARCHAR(32) NOT NULL DEFAULT '',
				related_id VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_message_logs_agency_id ON message_logs(agency_id);
			CREATE INDEX idx_message_logs_created_at ON message_logs(created_at);
			CREATE INDEX idx_message_logs_status ON message_logs(status);

			CREATE TABLE inbound_messages (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				channel VARCHAR(16) NOT NULL CHECK (channel IN ('sms', 'email')),
				from_address VARCHAR(255) NOT NULL,
				to_address VARCHAR(255) NOT NULL,
				subject TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '',
				provider_message_id VARCHAR(255) NOT NULL DEFAULT '',
				matched BOOLEAN NOT NULL DEFAULT FALSE,
				contact_type VARCHAR(32) NOT NULL DEFAULT '',
				contact_id VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_inbound_messages_agency_id ON inbound_messages(agency_id);

			CREATE TABLE conversation_threads (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				channel VARCHAR(16) NOT NULL,
				address VARCHAR(255) NOT NULL,
				contact_type VARCHAR(32) NOT NULL DEFAULT '',
				contact_id VARCHAR(255) NOT NULL DEFAULT '',
				unread_count INT NOT NULL DEFAULT 0,
				last_message_preview TEXT NOT NULL DEFAULT '',
				last_message_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (agency_id, channel, address)
			);

			CREATE INDEX idx_conversation_threads_agency_id ON conversation_threads(agency_id);

			CREATE TABLE notifications (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				user_id VARCHAR(255) NOT NULL,
				kind VARCHAR(64) NOT NULL,
				title VARCHAR(255) NOT NULL,
				body TEXT NOT NULL DEFAULT '',
				read BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_notifications_agency_user ON notifications(agency_id, user_id);

			CREATE TABLE credentials (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				key VARCHAR(64) NOT NULL,
				value TEXT NOT NULL,
				connected BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (agency_id, key)
			);

			CREATE TABLE sequence_enrollments (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				contact_type VARCHAR(32) NOT NULL,
				contact_id VARCHAR(255) NOT NULL,
				sequence_type VARCHAR(64) NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'active'
					CHECK (status IN ('active', 'completed', 'cancelled')),
				current_step INT NOT NULL DEFAULT 0,
				enrolled_at TIMESTAMP WITH TIME ZONE NOT NULL,
				cancelled_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_sequence_enrollments_contact ON sequence_enrollments(agency_id, contact_type, contact_id);

			CREATE TABLE activity_log (
				id UUID PRIMARY KEY,
				agency_id UUID NOT NULL REFERENCES agencies(id),
				kind VARCHAR(64) NOT NULL,
				summary TEXT NOT NULL,
				actions_total INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_activity_log_agency_id ON activity_log(agency_id);
		`,
	}
}
