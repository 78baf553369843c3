package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LessonVisibility string

const (
	VisibilityPublic   LessonVisibility = "public"
	VisibilityEnrolled LessonVisibility = "enrolled"
)

type Lesson struct {
	ID       uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID uuid.UUID     `gorm:"type:uuid;not null;index" json:"course_id"`
	Course   *Course       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	ModuleID uuid.UUID     `gorm:"type:uuid;not null;index" json:"module_id"`
	Module   *CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Index    int           `gorm:"column:index;not null" json:"index"`
	Title    string        `gorm:"column:title;not null" json:"title"`

	Visibility LessonVisibility `gorm:"column:visibility;not null;default:'public'" json:"visibility"`

	// PlaybackID is set once the provider has a ready asset.
	PlaybackID   *string      `gorm:"column:playback_id" json:"playback_id,omitempty"`
	Duration     float64      `gorm:"column:duration" json:"duration"`
	Width        int          `gorm:"column:width" json:"width"`
	Height       int          `gorm:"column:height" json:"height"`
	UploadStatus UploadStatus `gorm:"column:upload_status;not null;default:'IDLE'" json:"upload_status"`

	// DirectUploadID correlates the lesson with the provider-side upload
	// session. At most one active session per lesson; a new session
	// overwrites it.
	DirectUploadID *string `gorm:"column:direct_upload_id;index" json:"direct_upload_id,omitempty"`

	TranscriptData datatypes.JSON `gorm:"column:transcript_data;type:jsonb" json:"transcript_data,omitempty"`
	AIPrompts      datatypes.JSON `gorm:"column:ai_prompts;type:jsonb" json:"ai_prompts,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

// Chapter is one structured, timestamped segment derived from a transcript.
type Chapter struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Timestamp   float64 `json:"timestamp"`
}

// TranscriptData is the cached enrichment result stored on the lesson row.
type TranscriptData struct {
	Language    string    `json:"language"`
	Chapters    []Chapter `json:"chapters"`
	GeneratedAt time.Time `json:"generated_at"`
}
