package constructions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// ErrNotFound is returned when no project matches the lookup.
var ErrNotFound = errors.New("construction not found")

// Repository handles construction project persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a construction repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, title, slug, description, location, status, started_at, completed_at, is_active, created_at, updated_at`

func scan(row pgx.Row) (*models.Construction, error) {
	var p models.Construction
	var status string
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Location, &status,
		&p.StartedAt, &p.CompletedAt, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = models.ConstructionStatus(status)
	return &p, nil
}

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, p *models.Construction) error {
	const q = `INSERT INTO constructions (title, slug, description, location, status, started_at, completed_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, p.Title, p.Slug, p.Description, p.Location, string(p.Status),
		p.StartedAt, p.CompletedAt, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID returns a project by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Construction, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM constructions WHERE id = $1`, id))
}

// GetBySlug returns an active project by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Construction, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM constructions WHERE slug = $1 AND is_active`, slug))
}

// List returns projects, optionally filtered by status ("ongoing"/"completed").
// activeOnly hides drafts from the public gallery.
func (r *Repository) List(ctx context.Context, status string, activeOnly bool) ([]models.Construction, error) {
	q := `SELECT ` + columns + ` FROM constructions`
	var args []interface{}
	switch {
	case activeOnly && status != "":
		q += ` WHERE is_active AND status = $1`
		args = append(args, status)
	case activeOnly:
		q += ` WHERE is_active`
	case status != "":
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Construction
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// Update replaces mutable project fields.
func (r *Repository) Update(ctx context.Context, p *models.Construction) error {
	const q = `UPDATE constructions SET title = $1, description = $2, location = $3, status = $4,
			started_at = $5, completed_at = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, p.Title, p.Description, p.Location, string(p.Status),
		p.StartedAt, p.CompletedAt, p.IsActive, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// MarkCompleted transitions a project to completed with a completion date.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE constructions SET status = $1, completed_at = $2, updated_at = NOW() WHERE id = $3`,
		string(models.ConstructionCompleted), completedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project and (via cascade) its images.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM constructions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Images returns gallery images for a project, cover first.
func (r *Repository) Images(ctx context.Context, constructionID uuid.UUID) ([]models.ConstructionImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, construction_id, key, is_cover, sort_order, created_at
		 FROM construction_images WHERE construction_id = $1 ORDER BY is_cover DESC, sort_order, created_at`, constructionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var imgs []models.ConstructionImage
	for rows.Next() {
		var img models.ConstructionImage
		if err := rows.Scan(&img.ID, &img.ConstructionID, &img.Key, &img.IsCover, &img.SortOrder, &img.CreatedAt); err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	return imgs, rows.Err()
}

// AddImage inserts a gallery image record.
func (r *Repository) AddImage(ctx context.Context, img *models.ConstructionImage) error {
	const q = `INSERT INTO construction_images (construction_id, key, is_cover, sort_order)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, img.ConstructionID, img.Key, img.IsCover, img.SortOrder).
		Scan(&img.ID, &img.CreatedAt)
}

// DeleteImage removes an image record and returns its key for S3 cleanup.
func (r *Repository) DeleteImage(ctx context.Context, constructionID, imageID uuid.UUID) (string, error) {
	var key string
	err := r.pool.QueryRow(ctx,
		`DELETE FROM construction_images WHERE id = $1 AND construction_id = $2 RETURNING key`, imageID, constructionID).
		Scan(&key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return key, err
}
