package contact

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/pkg/queue"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
	"github.com/ufukcicekdev/RealInvest/pkg/utils"
)

// SubmitRequest is the body for POST /contact.
type SubmitRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// Handler handles contact form HTTP endpoints.
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates a contact handler. jobs may be nil when no worker runs;
// submission then only persists the message.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

// Submit handles POST /contact. The message is stored first; the operator
// notification email is queued so a broken SMTP setup never loses a message.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	m := &models.ContactMessage{
		Name:    req.Name,
		Email:   utils.NormalizeEmail(req.Email),
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("save contact message failed", zap.Error(err))
		response.Internal(c, "failed to save message")
		return
	}

	if h.jobs != nil {
		err := h.jobs.EnqueueContactNotification(c.Request.Context(), queue.ContactNotificationPayload{
			MessageID: m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Phone:     m.Phone,
			Subject:   m.Subject,
			Message:   m.Message,
		})
		if err != nil {
			h.logger.Warn("enqueue contact notification failed", zap.Error(err), zap.String("message_id", m.ID.String()))
		}
	}

	response.Created(c, gin.H{"message": "Your message has been received. We will get back to you soon."})
}

// List handles GET /admin/contact-messages (?unread=true).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("unread") == "true")
	if err != nil {
		response.Internal(c, "failed to list messages")
		return
	}
	response.OK(c, list)
}

// MarkRead handles PUT /admin/contact-messages/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}
	if err := h.repo.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "message not found")
			return
		}
		response.Internal(c, "failed to update message")
		return
	}
	response.NoContent(c)
}

// Delete handles DELETE /admin/contact-messages/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "message not found")
			return
		}
		response.Internal(c, "failed to delete message")
		return
	}
	response.NoContent(c)
}
