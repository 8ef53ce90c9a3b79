package models

import (
	"time"

	"github.com/google/uuid"
)

// ConstructionStatus is the project phase.
type ConstructionStatus string

const (
	ConstructionOngoing   ConstructionStatus = "ongoing"
	ConstructionCompleted ConstructionStatus = "completed"
)

// Construction is a development project shown in the projects gallery.
type Construction struct {
	ID             uuid.UUID          `json:"id"`
	Title          string             `json:"title"`
	Slug           string             `json:"slug"`
	Description    string             `json:"description"`
	Location       string             `json:"location"`
	Status         ConstructionStatus `json:"status"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	Images []ConstructionImage `json:"images,omitempty"`
}

// ConstructionImage is one gallery image for a construction project.
type ConstructionImage struct {
	ID             uuid.UUID `json:"id"`
	ConstructionID uuid.UUID `json:"construction_id"`
	Key            string    `json:"key"`
	URL            string    `json:"url,omitempty"`
	IsCover        bool      `json:"is_cover"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}
