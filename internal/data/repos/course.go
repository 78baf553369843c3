package repos

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
)

type CourseRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: log.With("repo", "CourseRepo")}
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Course, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out domain.Course
	if err := txx.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
