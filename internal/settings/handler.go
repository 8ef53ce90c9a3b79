package settings

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
	"github.com/ufukcicekdev/RealInvest/pkg/storage"
)

// UpdateRequest is the body for PUT /api/settings.
type UpdateRequest struct {
	SiteName     string `json:"site_name" binding:"required"`
	LogoKey      string `json:"logo_key"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	WorkingHours string `json:"working_hours"`

	PopupEnabled      bool   `json:"popup_enabled"`
	PopupTitle        string `json:"popup_title"`
	PopupDescription  string `json:"popup_description"`
	PopupDelaySeconds int    `json:"popup_delay_seconds"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPUseTLS   bool   `json:"smtp_use_tls"`
	EmailFrom    string `json:"email_from"`
}

// PublicSettings is the unauthenticated view of the settings record:
// branding, contact info and the signup popup, with the logo resolved to an
// absolute URL. SMTP fields never leave the admin surface.
type PublicSettings struct {
	SiteName          string `json:"site_name"`
	LogoURL           string `json:"logo_url,omitempty"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	Address           string `json:"address,omitempty"`
	WorkingHours      string `json:"working_hours,omitempty"`
	PopupEnabled      bool   `json:"popup_enabled"`
	PopupTitle        string `json:"popup_title,omitempty"`
	PopupDescription  string `json:"popup_description,omitempty"`
	PopupDelaySeconds int    `json:"popup_delay_seconds"`
}

// Handler exposes the settings endpoints.
type Handler struct {
	repo        *Repository
	media       *storage.S3
	resolveLogo func(key string) string
	logger      *zap.Logger
}

// NewHandler creates a settings handler. media may be nil in tests; the logo
// key is then left unresolved.
func NewHandler(repo *Repository, media *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	resolveLogo := func(key string) string { return key }
	if media != nil {
		resolveLogo = media.PublicURL
	}
	return &Handler{repo: repo, media: media, resolveLogo: resolveLogo, logger: logger}
}

// Public returns the unauthenticated settings view. A missing record yields
// the zero value, not an error.
func (h *Handler) Public(ctx context.Context) (PublicSettings, error) {
	s, err := h.repo.Get(ctx)
	if err != nil || s == nil {
		return PublicSettings{}, err
	}
	return PublicSettings{
		SiteName:          s.SiteName,
		LogoURL:           h.resolveLogo(s.LogoKey),
		Email:             s.Email,
		Phone:             s.Phone,
		Address:           s.Address,
		WorkingHours:      s.WorkingHours,
		PopupEnabled:      s.PopupEnabled,
		PopupTitle:        s.PopupTitle,
		PopupDescription:  s.PopupDescription,
		PopupDelaySeconds: s.PopupDelaySeconds,
	}, nil
}

// GetPublic handles GET /settings (public site bootstrap).
func (h *Handler) GetPublic(c *gin.Context) {
	pub, err := h.Public(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, pub)
}

// Get handles GET /api/settings (admin).
func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	if s == nil {
		response.NotFound(c, "site settings have not been created yet")
		return
	}
	response.OK(c, s)
}

// Update handles PUT /api/settings (admin). Creates the singleton on first
// use, updates it afterwards. An empty SMTP password keeps the stored one so
// operators can edit other fields without re-entering it.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	existing, err := h.repo.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}

	s := &models.SiteSettings{
		SiteName:          req.SiteName,
		LogoKey:           req.LogoKey,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		WorkingHours:      req.WorkingHours,
		PopupEnabled:      req.PopupEnabled,
		PopupTitle:        req.PopupTitle,
		PopupDescription:  req.PopupDescription,
		PopupDelaySeconds: req.PopupDelaySeconds,
		SMTPHost:          req.SMTPHost,
		SMTPPort:          req.SMTPPort,
		SMTPUsername:      req.SMTPUsername,
		SMTPPassword:      req.SMTPPassword,
		SMTPUseTLS:        req.SMTPUseTLS,
		EmailFrom:         req.EmailFrom,
	}

	if existing == nil {
		if err := h.repo.Create(c.Request.Context(), s); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				response.Conflict(c, "site settings already exist")
				return
			}
			h.logger.Error("create settings failed", zap.Error(err))
			response.Internal(c, "failed to create settings")
			return
		}
		response.Created(c, s)
		return
	}

	s.ID = existing.ID
	if s.SMTPPassword == "" {
		s.SMTPPassword = existing.SMTPPassword
	}
	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		h.logger.Error("update settings failed", zap.Error(err))
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, s)
}

// UploadLogo handles POST /admin/settings/logo (multipart form, field "logo"):
// stores the file under the branding prefix and points the settings record at
// the new key. The old logo object is removed best-effort.
func (h *Handler) UploadLogo(c *gin.Context) {
	existing, err := h.repo.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	if existing == nil {
		response.NotFound(c, "site settings have not been created yet")
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		response.BadRequest(c, "logo file required")
		return
	}
	if fileHeader.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "logo too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateImageFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	key := storage.BrandingKey(uuid.New().String()[:8] + "-" + fileHeader.Filename)
	url, err := h.media.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(fileHeader.Filename), file, fileHeader.Size)
	if err != nil {
		h.logger.Error("logo upload failed", zap.Error(err))
		response.Internal(c, "failed to upload logo")
		return
	}

	oldKey := existing.LogoKey
	existing.LogoKey = key
	if err := h.repo.Update(c.Request.Context(), existing); err != nil {
		h.logger.Error("update settings failed", zap.Error(err))
		response.Internal(c, "failed to save logo key")
		return
	}
	// external logo URLs are not our objects; only clean up uploaded keys
	if oldKey != "" && oldKey != key && !strings.HasPrefix(oldKey, "http") {
		if err := h.media.DeleteObject(c.Request.Context(), oldKey); err != nil {
			h.logger.Warn("delete old logo failed", zap.Error(err), zap.String("key", oldKey))
		}
	}
	response.OK(c, gin.H{"logo_key": key, "logo_url": url})
}
