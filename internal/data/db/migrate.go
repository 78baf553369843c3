package db

import (
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Course{},
		&domain.CourseModule{},
		&domain.Lesson{},
	)
}
