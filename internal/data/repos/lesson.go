package repos

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
)

type LessonRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Lesson, error)
	GetByDirectUploadID(dbc dbctx.Context, uploadID string) (*domain.Lesson, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, log *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: log.With("repo", "LessonRepo")}
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Lesson, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Lesson
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *lessonRepo) GetByDirectUploadID(dbc dbctx.Context, uploadID string) (*domain.Lesson, error) {
	uploadID = strings.TrimSpace(uploadID)
	if uploadID == "" {
		return nil, fmt.Errorf("missing upload id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Lesson
	if err := txx.WithContext(dbc.Ctx).
		Where("direct_upload_id = ?", uploadID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *lessonRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&domain.Lesson{}).
		Where("id = ?", id).
		Updates(updates).Error
}
