package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCoverImage is stored when a course has no cover of its own.
const DefaultCoverImage = "https://images.unsplash.com/photo-1571260899304-425eee4c7efd?q=80&w=2070&auto=format&fit=crop"

// PublishedCourse is the durable record written once per publish.
type PublishedCourse struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;index;not null;column:user_id" json:"user_id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	CoverImage  string         `gorm:"column:cover_image" json:"cover_image"`
	Duration    string         `gorm:"column:duration" json:"duration"`
	Sections    int            `gorm:"not null;column:sections" json:"sections"`
	Content     datatypes.JSON `gorm:"column:content" json:"content"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (PublishedCourse) TableName() string { return "course" }

func (c *PublishedCourse) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
