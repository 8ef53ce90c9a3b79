package newsletter

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/middleware"
	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
)

// dismissCookie marks the browser so the signup popup is not shown again
// after a successful subscribe or unsubscribe.
const (
	dismissCookie       = "newsletter_dismissed"
	dismissCookieMaxAge = 180 * 24 * 60 * 60
)

// SubscribeRequest is the body for POST /newsletter/subscribe.
type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// CampaignRequest is the body for creating or updating a campaign.
type CampaignRequest struct {
	Title       string     `json:"title" binding:"required"`
	Subject     string     `json:"subject" binding:"required"`
	Content     string     `json:"content"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// BulkSendRequest selects campaigns for the operator bulk send action.
type BulkSendRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// Handler exposes the public subscribe/unsubscribe endpoints and the admin
// campaign endpoints.
type Handler struct {
	service     *Service
	subscribers *SubscriberRepository
	campaigns   *CampaignRepository
	logs        *LogRepository
	orch        *Orchestrator
	runner      *Runner
	logger      *zap.Logger
}

// NewHandler creates a newsletter handler.
func NewHandler(service *Service, subscribers *SubscriberRepository, campaigns *CampaignRepository, logs *LogRepository, orch *Orchestrator, runner *Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:     service,
		subscribers: subscribers,
		campaigns:   campaigns,
		logs:        logs,
		orch:        orch,
		runner:      runner,
		logger:      logger,
	}
}

// Subscribe handles POST /newsletter/subscribe.
func (h *Handler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "a valid email address and a name are required")
		return
	}
	_, created, err := h.service.Subscribe(c.Request.Context(), req.Email, req.Name, req.Phone, c.ClientIP())
	if err != nil {
		h.logger.Error("subscribe failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, "subscription failed, please try again later")
		return
	}
	h.setDismissCookie(c)
	msg := "you are already subscribed to our newsletter"
	if created {
		msg = "thank you for subscribing to our newsletter"
	}
	response.OK(c, gin.H{"message": msg})
}

// UnsubscribeConfirm handles GET /newsletter/unsubscribe/:token. It returns
// the data the confirmation page needs; the actual unsubscribe happens on POST.
func (h *Handler) UnsubscribeConfirm(c *gin.Context) {
	sub, err := h.service.ByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			response.NotFound(c, "this unsubscribe link is invalid or no longer active")
			return
		}
		h.logger.Error("unsubscribe lookup failed", zap.Error(err))
		response.Internal(c, "could not process the unsubscribe link")
		return
	}
	response.OK(c, gin.H{
		"email":     sub.Email,
		"name":      sub.Name,
		"is_active": sub.IsActive,
	})
}

// Unsubscribe handles POST /newsletter/unsubscribe/:token.
func (h *Handler) Unsubscribe(c *gin.Context) {
	sub, err := h.service.Unsubscribe(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrSubscriberNotFound) {
			response.NotFound(c, "this unsubscribe link is invalid or no longer active")
			return
		}
		h.logger.Error("unsubscribe failed", zap.Error(err))
		response.Internal(c, "could not unsubscribe, please try again later")
		return
	}
	h.setDismissCookie(c)
	response.OK(c, gin.H{"message": "you have been unsubscribed", "email": sub.Email})
}

func (h *Handler) setDismissCookie(c *gin.Context) {
	c.SetCookie(dismissCookie, "1", dismissCookieMaxAge, "/", "", false, false)
}

// ListSubscribers handles GET /api/subscribers (admin).
func (h *Handler) ListSubscribers(c *gin.Context) {
	list, err := h.subscribers.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list subscribers failed", zap.Error(err))
		response.Internal(c, "failed to list subscribers")
		return
	}
	response.OK(c, list)
}

// CreateCampaign handles POST /api/campaigns (admin). A scheduled time moves
// the campaign straight into the scheduled state.
func (h *Handler) CreateCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	campaign := &models.Campaign{
		Title:       req.Title,
		Subject:     req.Subject,
		Content:     req.Content,
		Status:      models.CampaignDraft,
		ScheduledAt: req.ScheduledAt,
	}
	if req.ScheduledAt != nil {
		campaign.Status = models.CampaignScheduled
	}
	if err := h.campaigns.Create(c.Request.Context(), campaign); err != nil {
		h.logger.Error("create campaign failed", zap.Error(err))
		response.Internal(c, "failed to create campaign")
		return
	}
	response.Created(c, campaign)
}

// ListCampaigns handles GET /api/campaigns (admin).
func (h *Handler) ListCampaigns(c *gin.Context) {
	list, err := h.campaigns.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list campaigns failed", zap.Error(err))
		response.Internal(c, "failed to list campaigns")
		return
	}
	response.OK(c, list)
}

// GetCampaign handles GET /api/campaigns/:id (admin).
func (h *Handler) GetCampaign(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	response.OK(c, campaign)
}

// UpdateCampaign handles PATCH /api/campaigns/:id (admin). Operators may edit
// drafts and scheduled campaigns, and may move a failed or stuck campaign
// back to draft for another attempt.
func (h *Handler) UpdateCampaign(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	campaign.Title = req.Title
	campaign.Subject = req.Subject
	campaign.Content = req.Content
	campaign.ScheduledAt = req.ScheduledAt
	switch campaign.Status {
	case models.CampaignDraft, models.CampaignScheduled, models.CampaignFailed, models.CampaignSending:
		if req.ScheduledAt != nil {
			campaign.Status = models.CampaignScheduled
		} else {
			campaign.Status = models.CampaignDraft
		}
	default:
		// sent campaigns keep their terminal status; edits only touch content
	}
	if err := h.campaigns.Update(c.Request.Context(), campaign); err != nil {
		h.logger.Error("update campaign failed", zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		response.Internal(c, "failed to update campaign")
		return
	}
	response.OK(c, campaign)
}

// DeleteCampaign handles DELETE /api/campaigns/:id (admin).
func (h *Handler) DeleteCampaign(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	if err := h.campaigns.Delete(c.Request.Context(), campaign.ID); err != nil {
		h.logger.Error("delete campaign failed", zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		response.Internal(c, "failed to delete campaign")
		return
	}
	response.NoContent(c)
}

// SendCampaign handles POST /api/campaigns/:id/send (admin): an immediate
// synchronous send attempt, bypassing the due-time check.
func (h *Handler) SendCampaign(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	if operatorID, ok := middleware.UserID(c); ok {
		h.logger.Info("manual campaign send",
			zap.String("campaign_id", campaign.ID.String()),
			zap.String("operator_id", operatorID.String()))
	}
	outcome := h.orch.Send(c.Request.Context(), campaign)
	response.OK(c, outcome)
}

// SendCampaigns handles POST /api/campaigns/send (admin): the bulk action
// over selected campaigns, reporting one outcome each.
func (h *Handler) SendCampaigns(c *gin.Context) {
	var req BulkSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	outcomes := make([]Outcome, 0, len(req.IDs))
	for _, id := range req.IDs {
		campaign, err := h.campaigns.GetByID(c.Request.Context(), id)
		if err != nil {
			h.logger.Error("load campaign failed", zap.Error(err), zap.String("campaign_id", id.String()))
			continue
		}
		if campaign == nil {
			outcomes = append(outcomes, Outcome{CampaignID: id, Level: LevelError, Message: "campaign not found"})
			continue
		}
		outcomes = append(outcomes, h.orch.Send(c.Request.Context(), campaign))
	}
	response.OK(c, outcomes)
}

// SendDue handles POST /api/campaigns/send-due (admin): the manual equivalent
// of one scheduler tick.
func (h *Handler) SendDue(c *gin.Context) {
	outcomes, err := h.runner.Trigger(c.Request.Context())
	if err != nil {
		h.logger.Error("due campaign run failed", zap.Error(err))
		response.Internal(c, "failed to run due campaigns")
		return
	}
	response.OK(c, outcomes)
}

// ListLogs handles GET /api/campaigns/:id/logs (admin).
func (h *Handler) ListLogs(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	entries, err := h.logs.ListByCampaign(c.Request.Context(), campaign.ID)
	if err != nil {
		h.logger.Error("list campaign logs failed", zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		response.Internal(c, "failed to list campaign logs")
		return
	}
	response.OK(c, entries)
}

// ClearLogs handles DELETE /api/campaigns/:id/logs (admin cleanup).
func (h *Handler) ClearLogs(c *gin.Context) {
	campaign, ok := h.campaignFromParam(c)
	if !ok {
		return
	}
	deleted, err := h.logs.DeleteByCampaign(c.Request.Context(), campaign.ID)
	if err != nil {
		h.logger.Error("clear campaign logs failed", zap.Error(err), zap.String("campaign_id", campaign.ID.String()))
		response.Internal(c, "failed to clear campaign logs")
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) campaignFromParam(c *gin.Context) (*models.Campaign, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return nil, false
	}
	campaign, err := h.campaigns.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load campaign failed", zap.Error(err), zap.String("campaign_id", id.String()))
		response.Internal(c, "failed to load campaign")
		return nil, false
	}
	if campaign == nil {
		response.NotFound(c, "campaign not found")
		return nil, false
	}
	return campaign, true
}
