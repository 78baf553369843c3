package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/data/repos"
	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/apierr"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
	"github.com/po-tati-x/potatix-sub004/internal/platform/openai"
)

// ErrNotReady is the typed "not available" outcome for lessons whose media
// or captions have not landed yet.
func errNotReady() *apierr.Error {
	return apierr.New(http.StatusNotFound, "transcript_not_available", fmt.Errorf("transcript not available yet"))
}

// EnrichmentService derives structured chapters from a lesson's transcript
// and caches the result on the lesson row. The cache key is the lesson, not
// the transcript content; a new upload session clears it.
type EnrichmentService interface {
	GetOrGenerateChapters(dbc dbctx.Context, lessonID uuid.UUID) (*domain.TranscriptData, error)
}

type enrichmentService struct {
	log        *logger.Logger
	lessons    repos.LessonRepo
	transcript mux.Client
	ai         openai.Client
}

func NewEnrichmentService(log *logger.Logger, lessons repos.LessonRepo, transcript mux.Client, ai openai.Client) (EnrichmentService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lessons == nil {
		return nil, fmt.Errorf("lesson repo required")
	}
	if transcript == nil {
		return nil, fmt.Errorf("transcript provider required")
	}
	if ai == nil {
		return nil, fmt.Errorf("ai client required")
	}
	return &enrichmentService{
		log:        log.With("service", "EnrichmentService"),
		lessons:    lessons,
		transcript: transcript,
		ai:         ai,
	}, nil
}

var chapterSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"chapters": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"id":          map[string]any{"type": "string"},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"timestamp":   map[string]any{"type": "number", "minimum": 0},
				},
				"required": []string{"id", "title", "description", "timestamp"},
			},
		},
	},
	"required": []string{"chapters"},
}

func (s *enrichmentService) GetOrGenerateChapters(dbc dbctx.Context, lessonID uuid.UUID) (*domain.TranscriptData, error) {
	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return nil, err
	}

	if len(lesson.TranscriptData) > 0 {
		var cached domain.TranscriptData
		if err := json.Unmarshal(lesson.TranscriptData, &cached); err == nil && len(cached.Chapters) > 0 {
			return &cached, nil
		}
		s.log.Warn("ignoring unreadable cached transcript data", "lesson_id", lessonID)
	}

	if lesson.PlaybackID == nil || strings.TrimSpace(*lesson.PlaybackID) == "" {
		return nil, errNotReady()
	}

	transcript, err := s.transcript.GetTranscript(dbc.Ctx, *lesson.PlaybackID)
	if err != nil {
		if errors.Is(err, mux.ErrTranscriptNotAvailable) {
			return nil, errNotReady()
		}
		s.log.Error("transcript fetch failed", "lesson_id", lessonID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("could not fetch transcript"))
	}

	chapters, err := s.generateChapters(dbc, lesson, transcript)
	if err != nil {
		return nil, err
	}

	data := &domain.TranscriptData{
		Language:    transcript.Language,
		Chapters:    chapters,
		GeneratedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode transcript data: %w", err)
	}
	if err := s.lessons.UpdateFields(dbc, lessonID, map[string]interface{}{
		"transcript_data": datatypes.JSON(raw),
	}); err != nil {
		// Next request regenerates; the caller still gets this result.
		s.log.Error("failed to cache chapters on lesson", "lesson_id", lessonID, "error", err)
	}

	return data, nil
}

func (s *enrichmentService) generateChapters(dbc dbctx.Context, lesson *domain.Lesson, transcript *mux.Transcript) ([]domain.Chapter, error) {
	system := "You segment lecture transcripts into chapters. " +
		"Chapters must cover the whole video in order, each with a concise title, " +
		"a one-sentence description, and a start timestamp in seconds. " +
		"The first chapter always starts at timestamp 0."

	user := fmt.Sprintf(
		"Lesson title: %s\nTranscript (%s):\n%s",
		lesson.Title, transcript.Language, transcript.Text,
	)

	out, err := s.ai.GenerateJSON(dbc.Ctx, system, user, "lesson_chapters", chapterSchema)
	if err != nil {
		s.log.Error("chapter generation failed", "lesson_id", lesson.ID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("could not generate chapters"))
	}

	raw, err := json.Marshal(out["chapters"])
	if err != nil {
		return nil, fmt.Errorf("re-encode chapters: %w", err)
	}
	var chapters []domain.Chapter
	if err := json.Unmarshal(raw, &chapters); err != nil {
		return nil, apierr.Provider(fmt.Errorf("model returned malformed chapters"))
	}

	return normalizeChapters(s.log, lesson.ID, chapters)
}

// normalizeChapters enforces the output contract independent of the model:
// non-empty list, ids present, non-negative ascending timestamps, and the
// first chapter pinned to timestamp 0.
func normalizeChapters(log *logger.Logger, lessonID uuid.UUID, chapters []domain.Chapter) ([]domain.Chapter, error) {
	if len(chapters) == 0 {
		return nil, apierr.Provider(fmt.Errorf("model returned no chapters"))
	}

	for i := range chapters {
		if strings.TrimSpace(chapters[i].ID) == "" {
			chapters[i].ID = uuid.NewString()
		}
		if chapters[i].Timestamp < 0 {
			return nil, apierr.Provider(fmt.Errorf("model returned negative timestamp"))
		}
		if strings.TrimSpace(chapters[i].Title) == "" {
			return nil, apierr.Provider(fmt.Errorf("model returned untitled chapter"))
		}
	}

	sort.SliceStable(chapters, func(i, j int) bool {
		return chapters[i].Timestamp < chapters[j].Timestamp
	})

	if chapters[0].Timestamp != 0 {
		log.Warn("pinning first chapter to timestamp 0",
			"lesson_id", lessonID,
			"model_timestamp", chapters[0].Timestamp,
		)
		chapters[0].Timestamp = 0
	}

	return chapters, nil
}
