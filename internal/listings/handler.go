package listings

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ufukcicekdev/RealInvest/internal/models"
	"github.com/ufukcicekdev/RealInvest/internal/settings"
	"github.com/ufukcicekdev/RealInvest/pkg/response"
	"github.com/ufukcicekdev/RealInvest/pkg/storage"
	"github.com/ufukcicekdev/RealInvest/pkg/utils"
)

// ListingRequest is the body for create/update.
type ListingRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	PropertyType    string `json:"property_type" binding:"required,oneof=apartment house villa land commercial"`
	Status          string `json:"status" binding:"required,oneof=sale rent"`
	Price           int64  `json:"price" binding:"required,min=0"`
	Location        string `json:"location"`
	Bedrooms        int    `json:"bedrooms"`
	Bathrooms       int    `json:"bathrooms"`
	AreaSqm         int    `json:"area_sqm"`
	IsActive        *bool  `json:"is_active"`
	IsFeatured      bool   `json:"is_featured"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
}

// ListResponse wraps a page of listings.
type ListResponse struct {
	Items  []models.Listing `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// DetailResponse is the public detail payload with related listings from the
// same location.
type DetailResponse struct {
	Listing *models.Listing  `json:"listing"`
	Related []models.Listing `json:"related"`
}

// Handler handles listing HTTP endpoints.
type Handler struct {
	repo   *Repository
	media  *storage.S3
	logger *zap.Logger
}

// NewHandler creates a listing handler.
func NewHandler(repo *Repository, media *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, media: media, logger: logger}
}

func (h *Handler) resolveImages(l *models.Listing) {
	for i := range l.Images {
		l.Images[i].URL = h.media.PublicURL(l.Images[i].Key)
	}
}

func (h *Handler) attachImages(c *gin.Context, l *models.Listing) error {
	imgs, err := h.repo.Images(c.Request.Context(), l.ID)
	if err != nil {
		return err
	}
	l.Images = imgs
	h.resolveImages(l)
	return nil
}

// List handles GET /listings (public search with filters and pagination).
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Query:        c.Query("q"),
		PropertyType: c.Query("property_type"),
		Status:       c.Query("status"),
		Location:     c.Query("location"),
		ActiveOnly:   true,
	}
	f.MinPrice, _ = strconv.ParseInt(c.Query("min_price"), 10, 64)
	f.MaxPrice, _ = strconv.ParseInt(c.Query("max_price"), 10, 64)
	f.Bedrooms, _ = strconv.Atoi(c.Query("bedrooms"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "9"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	f.FeaturedOnly = c.Query("featured") == "true"

	items, total, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list listings failed", zap.Error(err))
		response.Internal(c, "failed to list listings")
		return
	}
	for i := range items {
		item := &items[i]
		if err := h.attachImages(c, item); err != nil {
			h.logger.Warn("load listing images failed", zap.Error(err), zap.String("listing_id", item.ID.String()))
		}
	}
	response.OK(c, ListResponse{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// GetBySlug handles GET /listings/:slug (public detail page).
func (h *Handler) GetBySlug(c *gin.Context) {
	l, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "listing not found")
			return
		}
		response.Internal(c, "failed to load listing")
		return
	}
	if err := h.attachImages(c, l); err != nil {
		response.Internal(c, "failed to load listing images")
		return
	}
	related, err := h.repo.RelatedByLocation(c.Request.Context(), l.Location, l.ID, 3)
	if err != nil {
		h.logger.Warn("load related listings failed", zap.Error(err), zap.String("listing_id", l.ID.String()))
	}
	for i := range related {
		if err := h.attachImages(c, &related[i]); err != nil {
			h.logger.Warn("load related listing images failed", zap.Error(err))
		}
	}
	response.OK(c, DetailResponse{Listing: l, Related: related})
}

// SettingsSource supplies the public branding and popup view for aggregate
// payloads.
type SettingsSource interface {
	Public(ctx context.Context) (settings.PublicSettings, error)
}

// HomeResponse is the landing-page payload.
type HomeResponse struct {
	Featured []models.Listing        `json:"featured"`
	Recent   []models.Listing        `json:"recent"`
	Settings settings.PublicSettings `json:"settings"`
}

// Home handles GET /home: featured and recent listings plus site branding in
// one request.
func (h *Handler) Home(src SettingsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		featured, _, err := h.repo.List(ctx, Filter{ActiveOnly: true, FeaturedOnly: true, Limit: 6})
		if err != nil {
			h.logger.Error("list featured listings failed", zap.Error(err))
			response.Internal(c, "failed to load home payload")
			return
		}
		recent, _, err := h.repo.List(ctx, Filter{ActiveOnly: true, Limit: 6})
		if err != nil {
			h.logger.Error("list recent listings failed", zap.Error(err))
			response.Internal(c, "failed to load home payload")
			return
		}
		for i := range featured {
			if err := h.attachImages(c, &featured[i]); err != nil {
				h.logger.Warn("load listing images failed", zap.Error(err))
			}
		}
		for i := range recent {
			if err := h.attachImages(c, &recent[i]); err != nil {
				h.logger.Warn("load listing images failed", zap.Error(err))
			}
		}
		pub, err := src.Public(ctx)
		if err != nil {
			h.logger.Warn("load public settings failed", zap.Error(err))
		}
		response.OK(c, HomeResponse{Featured: featured, Recent: recent, Settings: pub})
	}
}

// AdminList handles GET /admin/listings (includes inactive).
func (h *Handler) AdminList(c *gin.Context) {
	f := Filter{Query: c.Query("q")}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	items, total, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list listings")
		return
	}
	response.OK(c, ListResponse{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Create handles POST /admin/listings.
func (h *Handler) Create(c *gin.Context) {
	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	l := listingFromRequest(&req)
	l.Slug = utils.Slugify(req.Title)
	if err := h.repo.Create(c.Request.Context(), l); err != nil {
		// slug collision gets one retry with a random suffix
		l.Slug = utils.UniqueSlug(l.Slug)
		if err := h.repo.Create(c.Request.Context(), l); err != nil {
			h.logger.Error("create listing failed", zap.Error(err))
			response.Internal(c, "failed to create listing")
			return
		}
	}
	response.Created(c, l)
}

// Update handles PUT /admin/listings/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	var req ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "listing not found")
			return
		}
		response.Internal(c, "failed to load listing")
		return
	}
	l := listingFromRequest(&req)
	l.ID = existing.ID
	l.Slug = existing.Slug
	if err := h.repo.Update(c.Request.Context(), l); err != nil {
		response.Internal(c, "failed to update listing")
		return
	}
	response.OK(c, l)
}

// Delete handles DELETE /admin/listings/:id. Removes S3 objects best-effort.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	imgs, err := h.repo.Images(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load listing images")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "listing not found")
			return
		}
		response.Internal(c, "failed to delete listing")
		return
	}
	for _, img := range imgs {
		if err := h.media.DeleteObject(c.Request.Context(), img.Key); err != nil {
			h.logger.Warn("delete listing image object failed", zap.Error(err), zap.String("key", img.Key))
		}
	}
	response.NoContent(c)
}

// PresignRequest asks for a direct-to-bucket upload slot.
type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// PresignResponse carries the pre-signed PUT URL and the key to register once
// the browser has uploaded the object.
type PresignResponse struct {
	UploadURL        string `json:"upload_url"`
	Key              string `json:"key"`
	Bucket           string `json:"bucket"`
	PublicURL        string `json:"public_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// RegisterImageRequest attaches an already-uploaded object as a gallery image.
type RegisterImageRequest struct {
	Key       string `json:"key" binding:"required"`
	IsCover   bool   `json:"is_cover"`
	SortOrder int    `json:"sort_order"`
}

// PresignImageUpload handles POST /admin/listings/:id/images/presign: large
// galleries upload straight to the bucket, then register each object via the
// JSON form of the images endpoint.
func (h *Handler) PresignImageUpload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "listing not found")
			return
		}
		response.Internal(c, "failed to load listing")
		return
	}
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateImageFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}
	key := storage.ListingImageKey(id.String(), uuid.New().String()[:8]+"-"+req.Filename)
	expire := h.media.PresignExpire()
	url, err := h.media.GeneratePresignedUploadURL(c.Request.Context(), key, contentType, expire)
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err))
		response.Internal(c, "failed to presign upload")
		return
	}
	response.OK(c, PresignResponse{
		UploadURL:        url,
		Key:              key,
		Bucket:           h.media.MediaBucket(),
		PublicURL:        h.media.PublicURL(key),
		ExpiresInSeconds: int(expire.Seconds()),
	})
}

// UploadImage handles POST /admin/listings/:id/images. Multipart form (field
// "image") uploads through the server; a JSON body registers an object that
// was already uploaded with a pre-signed URL.
func (h *Handler) UploadImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "listing not found")
			return
		}
		response.Internal(c, "failed to load listing")
		return
	}
	if c.ContentType() == "application/json" {
		h.registerUploadedImage(c, id)
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

	key := storage.ListingImageKey(id.String(), uuid.New().String()[:8]+"-"+fileHeader.Filename)
	url, err := h.media.Upload(c.Request.Context(), key, storage.ContentTypeForFilename(fileHeader.Filename), file, fileHeader.Size)
	if err != nil {
		h.logger.Error("listing image upload failed", zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}

	img := &models.ListingImage{
		ListingID: id,
		Key:       key,
		IsCover:   c.PostForm("is_cover") == "true",
	}
	img.SortOrder, _ = strconv.Atoi(c.PostForm("sort_order"))
	if err := h.repo.AddImage(c.Request.Context(), img); err != nil {
		response.Internal(c, "failed to save image")
		return
	}
	img.URL = url
	response.Created(c, img)
}

func (h *Handler) registerUploadedImage(c *gin.Context, id uuid.UUID) {
	var req RegisterImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	// keys must stay inside this listing's prefix
	if !strings.HasPrefix(req.Key, storage.ListingImageKey(id.String(), "")+"/") {
		response.BadRequest(c, "key does not belong to this listing")
		return
	}
	img := &models.ListingImage{
		ListingID: id,
		Key:       req.Key,
		IsCover:   req.IsCover,
		SortOrder: req.SortOrder,
	}
	if err := h.repo.AddImage(c.Request.Context(), img); err != nil {
		response.Internal(c, "failed to save image")
		return
	}
	img.URL = h.media.PublicURL(req.Key)
	response.Created(c, img)
}

// DeleteImage handles DELETE /admin/listings/:id/images/:image_id.
func (h *Handler) DeleteImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
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

// SetCover handles PUT /admin/listings/:id/images/:image_id/cover.
func (h *Handler) SetCover(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid listing id")
		return
	}
	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}
	if err := h.repo.SetCover(c.Request.Context(), id, imageID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "image not found")
			return
		}
		response.Internal(c, "failed to set cover")
		return
	}
	response.NoContent(c)
}

func listingFromRequest(req *ListingRequest) *models.Listing {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Listing{
		Title:           req.Title,
		Description:     req.Description,
		PropertyType:    models.PropertyType(req.PropertyType),
		Status:          models.ListingStatus(req.Status),
		Price:           req.Price,
		Location:        req.Location,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		AreaSqm:         req.AreaSqm,
		IsActive:        active,
		IsFeatured:      req.IsFeatured,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
}
