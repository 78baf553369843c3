package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/data/repos"
	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
)

// WebhookService applies provider events to the upload status machine.
// Events for unknown or superseded upload sessions are dropped, as are
// transitions the machine does not allow; the provider retries on its own
// schedule and ordering across events is not guaranteed.
type WebhookService interface {
	HandleEvent(dbc dbctx.Context, ev *mux.Event) error
}

type webhookService struct {
	log     *logger.Logger
	lessons repos.LessonRepo
}

func NewWebhookService(log *logger.Logger, lessons repos.LessonRepo) (WebhookService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lessons == nil {
		return nil, fmt.Errorf("lesson repo required")
	}
	return &webhookService{
		log:     log.With("service", "WebhookService"),
		lessons: lessons,
	}, nil
}

func (s *webhookService) HandleEvent(dbc dbctx.Context, ev *mux.Event) error {
	if ev == nil {
		return fmt.Errorf("nil event")
	}

	uploadID := ev.UploadSessionID()
	if uploadID == "" {
		s.log.Debug("ignoring event without upload correlation", "type", ev.Type)
		return nil
	}

	lesson, err := s.lessons.GetByDirectUploadID(dbc, uploadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Superseded session or a lesson deleted mid-flight.
			s.log.Debug("ignoring event for unknown upload session",
				"type", ev.Type, "direct_upload_id", uploadID)
			return nil
		}
		return fmt.Errorf("lookup lesson for upload %s: %w", uploadID, err)
	}

	var target domain.UploadStatus
	updates := map[string]interface{}{}

	switch ev.Type {
	case mux.EventUploadAssetCreated:
		target = domain.UploadStatusProcessing
	case mux.EventAssetReady:
		target = domain.UploadStatusCompleted
		if pb := ev.PlaybackID(); pb != "" {
			updates["playback_id"] = pb
		}
		if ev.Data.Duration > 0 {
			updates["duration"] = ev.Data.Duration
		}
		if w, h := ev.Dimensions(); w > 0 && h > 0 {
			updates["width"] = w
			updates["height"] = h
		}
	case mux.EventUploadErrored:
		target = domain.UploadStatusError
	case mux.EventUploadCancelled:
		target = domain.UploadStatusCancelled
	default:
		s.log.Debug("ignoring unhandled event type", "type", ev.Type)
		return nil
	}

	if !domain.CanTransition(lesson.UploadStatus, target) {
		s.log.Warn("dropping event with illegal status transition",
			"type", ev.Type,
			"lesson_id", lesson.ID,
			"from", lesson.UploadStatus,
			"to", target,
		)
		return nil
	}

	updates["upload_status"] = target
	if err := s.lessons.UpdateFields(dbc, lesson.ID, updates); err != nil {
		return fmt.Errorf("apply %s to lesson %s: %w", ev.Type, lesson.ID, err)
	}

	s.log.Info("applied provider event",
		"type", ev.Type,
		"lesson_id", lesson.ID,
		"from", lesson.UploadStatus,
		"to", target,
	)
	return nil
}
