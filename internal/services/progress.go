package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/po-tati-x/potatix-sub004/internal/kv"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/apierr"
)

// progressTTL is the lifetime of a progress record from its last write.
const progressTTL = time.Hour

// ProgressService tracks upload percentage per lesson in the ephemeral
// store. Last write wins: a stale client report arriving after a newer one
// overwrites it, which is accepted behavior, not a bug to fix here.
type ProgressService interface {
	Record(ctx context.Context, lessonID uuid.UUID, percent int) error
	// Read returns the stored percentage, or 0 when absent or expired.
	Read(ctx context.Context, lessonID uuid.UUID) (int, error)
}

type progressService struct {
	log   *logger.Logger
	store kv.Store
}

func NewProgressService(log *logger.Logger, store kv.Store) (ProgressService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	return &progressService{
		log:   log.With("service", "ProgressService"),
		store: store,
	}, nil
}

func progressKey(lessonID uuid.UUID) string {
	return "upload:progress:" + lessonID.String()
}

func (s *progressService) Record(ctx context.Context, lessonID uuid.UUID, percent int) error {
	if lessonID == uuid.Nil {
		return apierr.Validation(fmt.Errorf("missing lesson id"))
	}
	if percent < 0 || percent > 100 {
		return apierr.Validation(fmt.Errorf("percent must be within [0,100], got %d", percent))
	}
	if err := s.store.Set(ctx, progressKey(lessonID), strconv.Itoa(percent), progressTTL); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

func (s *progressService) Read(ctx context.Context, lessonID uuid.UUID) (int, error) {
	if lessonID == uuid.Nil {
		return 0, apierr.Validation(fmt.Errorf("missing lesson id"))
	}
	val, ok, err := s.store.Get(ctx, progressKey(lessonID))
	if err != nil {
		return 0, fmt.Errorf("read progress: %w", err)
	}
	if !ok {
		return 0, nil
	}
	percent, convErr := strconv.Atoi(val)
	if convErr != nil || percent < 0 || percent > 100 {
		s.log.Warn("discarding malformed progress value", "lesson_id", lessonID, "value", val)
		return 0, nil
	}
	return percent, nil
}
