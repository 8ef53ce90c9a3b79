package realtime

import (
	"context"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/internal/newsletter"
)

// LogBroadcaster decorates an audit log so each appended entry is also pushed
// to WebSocket clients watching the campaign. Persistence failures are
// returned as-is; broadcast is best-effort.
type LogBroadcaster struct {
	next newsletter.AuditLog
	hub  *Hub
}

// NewLogBroadcaster wraps an audit log with live broadcasting.
func NewLogBroadcaster(next newsletter.AuditLog, hub *Hub) *LogBroadcaster {
	return &LogBroadcaster{next: next, hub: hub}
}

// Append persists the entry and broadcasts it to watchers.
func (b *LogBroadcaster) Append(ctx context.Context, entry *models.CampaignLog) error {
	if err := b.next.Append(ctx, entry); err != nil {
		return err
	}
	b.hub.Broadcast(entry.CampaignID, "log", entry)
	return nil
}
