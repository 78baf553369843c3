package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/data/repos"
	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/apierr"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
	"github.com/po-tati-x/potatix-sub004/internal/requestdata"
)

// UploadSession is what the caller needs to push media straight to the
// provider: the session id persisted on the lesson and the one-time URL.
type UploadSession struct {
	UploadID string              `json:"upload_id"`
	URL      string              `json:"url"`
	Status   domain.UploadStatus `json:"status"`
}

type UploadService interface {
	// CreateSession requests a direct upload authorization and binds it
	// to the lesson, restarting the status machine at PENDING.
	CreateSession(dbc dbctx.Context, lessonID uuid.UUID) (*UploadSession, error)
	// Cancel revokes the in-flight session. Provider errors are logged
	// and swallowed; the local status always lands on CANCELLED.
	Cancel(dbc dbctx.Context, lessonID uuid.UUID) error
	// SetClientStatus applies a client-driven transition. Only
	// PENDING→UPLOADING, UPLOADING↔PAUSED and →ERROR are reachable this
	// way; provider-driven moves arrive over the webhook.
	SetClientStatus(dbc dbctx.Context, lessonID uuid.UUID, to domain.UploadStatus) (*domain.Lesson, error)
}

type uploadService struct {
	log        *logger.Logger
	lessons    repos.LessonRepo
	provider   mux.Client
	corsOrigin string
}

func NewUploadService(log *logger.Logger, lessons repos.LessonRepo, provider mux.Client) (UploadService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lessons == nil {
		return nil, fmt.Errorf("lesson repo required")
	}
	if provider == nil {
		return nil, fmt.Errorf("video provider required")
	}

	corsOrigin := strings.TrimSpace(os.Getenv("UPLOAD_CORS_ORIGIN"))
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	return &uploadService{
		log:        log.With("service", "UploadService"),
		lessons:    lessons,
		provider:   provider,
		corsOrigin: corsOrigin,
	}, nil
}

func (s *uploadService) CreateSession(dbc dbctx.Context, lessonID uuid.UUID) (*UploadSession, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}

	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return nil, err
	}

	// One active session per lesson: a new authorization supersedes the
	// old one, so revoke it at the provider before overwriting the
	// correlation. Best effort.
	if lesson.DirectUploadID != nil && !lesson.UploadStatus.Terminal() {
		if cancelErr := s.provider.CancelDirectUpload(dbc.Ctx, *lesson.DirectUploadID); cancelErr != nil {
			s.log.Warn("provider cancel of superseded session failed",
				"lesson_id", lessonID,
				"direct_upload_id", *lesson.DirectUploadID,
				"error", cancelErr,
			)
		}
	}

	upload, err := s.provider.CreateDirectUpload(dbc.Ctx, s.corsOrigin)
	if err != nil {
		s.log.Error("provider create upload failed", "lesson_id", lessonID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("could not create upload session"))
	}

	// New media invalidates the cached enrichment results.
	updates := map[string]interface{}{
		"direct_upload_id": upload.ID,
		"upload_status":    domain.UploadStatusPending,
		"playback_id":      nil,
		"transcript_data":  nil,
		"ai_prompts":       nil,
	}
	if err := s.lessons.UpdateFields(dbc, lessonID, updates); err != nil {
		// The authorization is already issued; the caller can still use
		// it. Accepted inconsistency, observable in the logs.
		s.log.Error("failed to persist upload session on lesson",
			"lesson_id", lessonID,
			"direct_upload_id", upload.ID,
			"error", err,
		)
	}

	return &UploadSession{
		UploadID: upload.ID,
		URL:      upload.URL,
		Status:   domain.UploadStatusPending,
	}, nil
}

func (s *uploadService) Cancel(dbc dbctx.Context, lessonID uuid.UUID) error {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}

	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return err
	}
	if lesson.DirectUploadID == nil || strings.TrimSpace(*lesson.DirectUploadID) == "" {
		return apierr.NotFound(fmt.Errorf("no upload session for lesson"))
	}

	// Soft failure policy: the provider may already consider the session
	// gone. Log and continue so the local machine never wedges on
	// provider state.
	if err := s.provider.CancelDirectUpload(dbc.Ctx, *lesson.DirectUploadID); err != nil {
		s.log.Warn("provider cancel failed, forcing local CANCELLED anyway",
			"lesson_id", lessonID,
			"direct_upload_id", *lesson.DirectUploadID,
			"error", err,
		)
	}

	if err := s.lessons.UpdateFields(dbc, lessonID, map[string]interface{}{
		"upload_status": domain.UploadStatusCancelled,
	}); err != nil {
		return fmt.Errorf("persist cancelled status: %w", err)
	}
	return nil
}

func (s *uploadService) SetClientStatus(dbc dbctx.Context, lessonID uuid.UUID, to domain.UploadStatus) (*domain.Lesson, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}

	switch to {
	case domain.UploadStatusUploading, domain.UploadStatusPaused, domain.UploadStatusError:
	default:
		return nil, apierr.Validation(fmt.Errorf("status %q cannot be set by the client", to))
	}

	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return nil, err
	}

	if !domain.CanTransition(lesson.UploadStatus, to) {
		return nil, apierr.Validation(fmt.Errorf("cannot move upload from %s to %s", lesson.UploadStatus, to))
	}

	if err := s.lessons.UpdateFields(dbc, lessonID, map[string]interface{}{
		"upload_status": to,
	}); err != nil {
		return nil, fmt.Errorf("persist status: %w", err)
	}
	lesson.UploadStatus = to
	return lesson, nil
}
