package models

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the campaign lifecycle state.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignSent      CampaignStatus = "sent"
	CampaignFailed    CampaignStatus = "failed"
)

// Campaign is one newsletter broadcast with its own lifecycle and counters.
// The counters are write-once per send attempt: a new attempt resets and
// recomputes them, they are never cumulative across attempts.
type Campaign struct {
	ID              uuid.UUID      `json:"id"`
	Title           string         `json:"title"`
	Subject         string         `json:"subject"`
	Content         string         `json:"content"`
	Status          CampaignStatus `json:"status"`
	ScheduledAt     *time.Time     `json:"scheduled_at,omitempty"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	TotalRecipients int            `json:"total_recipients"`
	SentCount       int            `json:"sent_count"`
	FailedCount     int            `json:"failed_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// LogLevel classifies a campaign log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// CampaignLog is one append-only audit entry for a campaign send attempt.
type CampaignLog struct {
	ID              uuid.UUID `json:"id"`
	CampaignID      uuid.UUID `json:"campaign_id"`
	Level           LogLevel  `json:"level"`
	Message         string    `json:"message"`
	SubscriberEmail string    `json:"subscriber_email,omitempty"`
	ErrorDetails    string    `json:"error_details,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
