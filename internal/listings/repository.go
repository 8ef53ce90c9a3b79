package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// ErrNotFound is returned when no listing matches the lookup.
var ErrNotFound = errors.New("listing not found")

// Filter holds public search parameters.
type Filter struct {
	Query        string
	PropertyType string
	Status       string
	Location     string
	MinPrice     int64
	MaxPrice     int64
	Bedrooms     int
	FeaturedOnly bool
	ActiveOnly   bool
	Limit        int
	Offset       int
}

// Repository handles listing persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a listing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const listingColumns = `id, title, slug, description, property_type, status, price, location,
	bedrooms, bathrooms, area_sqm, is_active, is_featured, meta_title, meta_description, created_at, updated_at`

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	var ptype, status string
	err := row.Scan(&l.ID, &l.Title, &l.Slug, &l.Description, &ptype, &status, &l.Price, &l.Location,
		&l.Bedrooms, &l.Bathrooms, &l.AreaSqm, &l.IsActive, &l.IsFeatured, &l.MetaTitle, &l.MetaDescription,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.PropertyType = models.PropertyType(ptype)
	l.Status = models.ListingStatus(status)
	return &l, nil
}

// Create inserts a new listing.
func (r *Repository) Create(ctx context.Context, l *models.Listing) error {
	const q = `INSERT INTO listings (title, slug, description, property_type, status, price, location,
			bedrooms, bathrooms, area_sqm, is_active, is_featured, meta_title, meta_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, l.Title, l.Slug, l.Description, string(l.PropertyType), string(l.Status),
		l.Price, l.Location, l.Bedrooms, l.Bathrooms, l.AreaSqm, l.IsActive, l.IsFeatured,
		l.MetaTitle, l.MetaDescription).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// GetByID returns a listing by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return scanListing(r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
}

// GetBySlug returns an active listing by slug for the public detail page.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Listing, error) {
	return scanListing(r.pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE slug = $1 AND is_active`, slug))
}

// List returns listings matching the filter, newest first, plus the total
// count for pagination.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Listing, int, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "is_active")
	}
	if f.FeaturedOnly {
		conds = append(conds, "is_featured")
	}
	if f.Query != "" {
		add("(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%[1]d || '%%' OR location ILIKE '%%' || $%[1]d || '%%')", f.Query)
	}
	if f.PropertyType != "" {
		add("property_type = $%d", f.PropertyType)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", f.Location)
	}
	if f.MinPrice > 0 {
		add("price >= $%d", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		add("price <= $%d", f.MaxPrice)
	}
	if f.Bedrooms > 0 {
		add("bedrooms >= $%d", f.Bedrooms)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		listingColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *l)
	}
	return list, total, rows.Err()
}

// RelatedByLocation returns other active listings in the same location for
// the detail page sidebar.
func (r *Repository) RelatedByLocation(ctx context.Context, location string, exclude uuid.UUID, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE is_active AND location = $1 AND id <> $2
		 ORDER BY created_at DESC LIMIT $3`, location, exclude, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// Update replaces mutable listing fields.
func (r *Repository) Update(ctx context.Context, l *models.Listing) error {
	const q = `UPDATE listings SET title = $1, slug = $2, description = $3, property_type = $4, status = $5,
			price = $6, location = $7, bedrooms = $8, bathrooms = $9, area_sqm = $10,
			is_active = $11, is_featured = $12, meta_title = $13, meta_description = $14, updated_at = NOW()
		WHERE id = $15
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, l.Title, l.Slug, l.Description, string(l.PropertyType), string(l.Status),
		l.Price, l.Location, l.Bedrooms, l.Bathrooms, l.AreaSqm, l.IsActive, l.IsFeatured,
		l.MetaTitle, l.MetaDescription, l.ID).Scan(&l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a listing and (via cascade) its images.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Images returns gallery images for a listing, cover first.
func (r *Repository) Images(ctx context.Context, listingID uuid.UUID) ([]models.ListingImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, listing_id, key, is_cover, sort_order, created_at
		 FROM listing_images WHERE listing_id = $1 ORDER BY is_cover DESC, sort_order, created_at`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imgs []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.Key, &img.IsCover, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

// AddImage inserts a gallery image record.
func (r *Repository) AddImage(ctx context.Context, img *models.ListingImage) error {
	const q = `INSERT INTO listing_images (listing_id, key, is_cover, sort_order)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, img.ListingID, img.Key, img.IsCover, img.SortOrder).
		Scan(&img.ID, &img.CreatedAt)
}

// DeleteImage removes an image record and returns its key for S3 cleanup.
func (r *Repository) DeleteImage(ctx context.Context, listingID, imageID uuid.UUID) (string, error) {
	var key string
	err := r.pool.QueryRow(ctx,
		`DELETE FROM listing_images WHERE id = $1 AND listing_id = $2 RETURNING key`, imageID, listingID).
		Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return key, err
}

// SetCover marks one image as the cover and clears the flag on the rest.
func (r *Repository) SetCover(ctx context.Context, listingID, imageID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `UPDATE listing_images SET is_cover = FALSE WHERE listing_id = $1`, listingID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE listing_images SET is_cover = TRUE WHERE id = $1 AND listing_id = $2`, imageID, listingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
