package constructions

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
	"github.com/ufukcicekdev/RealInvest/pkg/storage"
	"github.com/ufukcicekdev/RealInvest/pkg/utils"
)

// ConstructionRequest is the body for create/update.
type ConstructionRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Status      string     `json:"status" binding:"omitempty,oneof=ongoing completed"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	IsActive    *bool      `json:"is_active"`
}

// Handler handles construction project HTTP endpoints.
type Handler struct {
	repo   *Repository
	media  *storage.S3
	logger *zap.Logger
}

// NewHandler creates a construction handler.
func NewHandler(repo *Repository, media *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, media: media, logger: logger}
}

func (h *Handler) attachImages(c *gin.Context, p *models.Construction) error {
	imgs, err := h.repo.Images(c.Request.Context(), p.ID)
	if err != nil {
		return err
	}
	for i := range imgs {
		imgs[i].URL = h.media.PublicURL(imgs[i].Key)
	}
	p.Images = imgs
	return nil
}

// List handles GET /constructions (public gallery, ?status=ongoing|completed).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("status"), true)
	if err != nil {
		response.Internal(c, "failed to list constructions")
		return
	}
	for i := range list {
		if err := h.attachImages(c, &list[i]); err != nil {
			h.logger.Warn("load construction images failed", zap.Error(err))
		}
	}
	response.OK(c, list)
}

// GetBySlug handles GET /constructions/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	p, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "construction not found")
			return
		}
		response.Internal(c, "failed to load construction")
		return
	}
	if err := h.attachImages(c, p); err != nil {
		response.Internal(c, "failed to load construction images")
		return
	}
	response.OK(c, p)
}

// AdminList handles GET /admin/constructions (includes inactive).
func (h *Handler) AdminList(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("status"), false)
	if err != nil {
		response.Internal(c, "failed to list constructions")
		return
	}
	response.OK(c, list)
}

// Create handles POST /admin/constructions.
func (h *Handler) Create(c *gin.Context) {
	var req ConstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := projectFromRequest(&req)
	p.Slug = utils.Slugify(req.Title)
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		p.Slug = utils.UniqueSlug(p.Slug)
		if err := h.repo.Create(c.Request.Context(), p); err != nil {
			h.logger.Error("create construction failed", zap.Error(err))
			response.Internal(c, "failed to create construction")
			return
		}
	}
	response.Created(c, p)
}

// Update handles PUT /admin/constructions/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid construction id")
		return
	}
	var req ConstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "construction not found")
			return
		}
		response.Internal(c, "failed to load construction")
		return
	}
	p := projectFromRequest(&req)
	p.ID = existing.ID
	p.Slug = existing.Slug
	if err := h.repo.Update(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to update construction")
		return
	}
	response.OK(c, p)
}

// Complete handles POST /admin/constructions/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid construction id")
		return
	}
	if err := h.repo.MarkCompleted(c.Request.Context(), id, time.Now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "construction not found")
			return
		}
		response.Internal(c, "failed to complete construction")
		return
	}
	response.NoContent(c)
}

// Delete handles DELETE /admin/constructions/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid construction id")
		return
	}
	imgs, err := h.repo.Images(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load construction images")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "construction not found")
			return
		}
		response.Internal(c, "failed to delete construction")
		return
	}
	for _, img := range imgs {
		if err := h.media.DeleteObject(c.Request.Context(), img.Key); err != nil {
			h.logger.Warn("delete construction image object failed", zap.Error(err), zap.String("key", img.Key))
		}
	}
	response.NoContent(c)
}

// UploadImage handles POST /admin/constructions/:id/images (multipart form, field "image").
func (h *Handler) UploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid construction id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "construction not found")
			return
		}
		response.Internal(c, "failed to load construction")
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "image file required")
		return
	}
	if fileHeader.Size > storage.MaxImageFileSize {
		response.BadRequest(c, "image too large")
		return
	}
	if !storage.ValidateImageFileType(fileHeader.Header.Get("Content-Type"), fileHeader.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	key := storage.ConstructionImageKey(id.String(), uuid.New().String()[:8]+"-"+fileHeader.Filename)
	url, err := h.media.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(fileHeader.Filename), file, fileHeader.Size)
	if err != nil {
		h.logger.Error("construction image upload failed", zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}

	img := &models.ConstructionImage{
		ConstructionID: id,
		Key:            key,
		IsCover:        c.PostForm("is_cover") == "true",
	}
	img.SortOrder, _ = strconv.Atoi(c.PostForm("sort_order"))
	if err := h.repo.AddImage(c.Request.Context(), img); err != nil {
		response.Internal(c, "failed to save image")
		return
	}
	img.URL = url
	response.Created(c, img)
}

// DeleteImage handles DELETE /admin/constructions/:id/images/:image_id.
func (h *Handler) DeleteImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid construction id")
		return
	}
	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	key, err := h.repo.DeleteImage(c.Request.Context(), id, imageID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		response.Internal(c, "failed to delete image")
		return
	}
	if err := h.media.DeleteObject(c.Request.Context(), key); err != nil {
		h.logger.Warn("delete image object failed", zap.Error(err), zap.String("key", key))
	}
	response.NoContent(c)
}

func projectFromRequest(req *ConstructionRequest) *models.Construction {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	status := models.ConstructionOngoing
	if req.Status != "" {
		status = models.ConstructionStatus(req.Status)
	}
	return &models.Construction{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Status:      status,
		StartedAt:   req.StartedAt,
		CompletedAt: req.CompletedAt,
		IsActive:    active,
	}
}
