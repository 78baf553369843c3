package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/data/repos"
	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/apierr"
	"github.com/po-tati-x/potatix-sub004/internal/platform/openai"
	"github.com/po-tati-x/potatix-sub004/internal/requestdata"
)

const (
	defaultPromptCount = 5
	maxPromptCount     = 10
)

// ChatMessage is one turn of the tutoring conversation. Nothing is
// persisted server-side; the client carries the full history each call.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantService serves AI-derived study aids for a lesson: cached
// suggested discussion prompts and streamed tutoring answers. Quota
// enforcement happens in the HTTP layer before either call runs.
type AssistantService interface {
	// SuggestedPrompts returns the cached prompt list, generating and
	// persisting it on first request. count is clamped to the default
	// when zero and rejected outside [1,10].
	SuggestedPrompts(dbc dbctx.Context, lessonID uuid.UUID, count int) ([]string, error)
	// StreamAnswer streams the model's reply token-by-token to onDelta.
	StreamAnswer(dbc dbctx.Context, lessonID uuid.UUID, history []ChatMessage, onDelta func(delta string)) error
}

type assistantService struct {
	log     *logger.Logger
	lessons repos.LessonRepo
	courses repos.CourseRepo
	ai      openai.Client
}

func NewAssistantService(log *logger.Logger, lessons repos.LessonRepo, courses repos.CourseRepo, ai openai.Client) (AssistantService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lessons == nil {
		return nil, fmt.Errorf("lesson repo required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course repo required")
	}
	if ai == nil {
		return nil, fmt.Errorf("ai client required")
	}
	return &assistantService{
		log:     log.With("service", "AssistantService"),
		lessons: lessons,
		courses: courses,
		ai:      ai,
	}, nil
}

var promptSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"prompts": map[string]any{
			"type":     "array",
			"minItems": 1,
			"maxItems": maxPromptCount,
			"items":    map[string]any{"type": "string"},
		},
	},
	"required": []string{"prompts"},
}

func (s *assistantService) SuggestedPrompts(dbc dbctx.Context, lessonID uuid.UUID, count int) ([]string, error) {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}
	if count == 0 {
		count = defaultPromptCount
	}
	if count < 1 || count > maxPromptCount {
		return nil, apierr.Validation(fmt.Errorf("count must be within [1,%d], got %d", maxPromptCount, count))
	}

	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return nil, err
	}

	// Cache is permanent once populated; the stored list is returned
	// unchanged regardless of the requested count.
	if len(lesson.AIPrompts) > 0 {
		var cached []string
		if err := json.Unmarshal(lesson.AIPrompts, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
		s.log.Warn("ignoring unreadable cached prompts", "lesson_id", lessonID)
	}

	courseTitle := ""
	if course, err := s.courses.GetByID(dbc, lesson.CourseID); err == nil {
		courseTitle = course.Title
	}

	system := fmt.Sprintf(
		"You write short, thought-provoking discussion questions for video lessons. "+
			"Return exactly %d questions, each a single sentence.", count)
	user := fmt.Sprintf("Course: %s\nLesson: %s", courseTitle, lesson.Title)

	out, err := s.ai.GenerateJSON(dbc.Ctx, system, user, "lesson_prompts", promptSchema)
	if err != nil {
		s.log.Error("prompt generation failed", "lesson_id", lessonID, "error", err)
		return nil, apierr.Provider(fmt.Errorf("could not generate prompts"))
	}

	prompts, err := decodePrompts(out, count)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(prompts)
	if err != nil {
		return nil, fmt.Errorf("encode prompts: %w", err)
	}
	if err := s.lessons.UpdateFields(dbc, lessonID, map[string]interface{}{
		"ai_prompts": datatypes.JSON(raw),
	}); err != nil {
		s.log.Error("failed to cache prompts on lesson", "lesson_id", lessonID, "error", err)
	}

	return prompts, nil
}

func decodePrompts(out map[string]any, count int) ([]string, error) {
	raw, err := json.Marshal(out["prompts"])
	if err != nil {
		return nil, fmt.Errorf("re-encode prompts: %w", err)
	}
	var prompts []string
	if err := json.Unmarshal(raw, &prompts); err != nil {
		return nil, apierr.Provider(fmt.Errorf("model returned malformed prompts"))
	}

	cleaned := prompts[:0]
	for _, p := range prompts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil, apierr.Provider(fmt.Errorf("model returned no prompts"))
	}
	if len(cleaned) > count {
		cleaned = cleaned[:count]
	}
	return cleaned, nil
}

func (s *assistantService) StreamAnswer(dbc dbctx.Context, lessonID uuid.UUID, history []ChatMessage, onDelta func(delta string)) error {
	rd := requestdata.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.Unauthorized(fmt.Errorf("not authenticated"))
	}

	cleaned, err := validateHistory(history)
	if err != nil {
		return err
	}

	lesson, err := s.lessons.GetByID(dbc, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound(fmt.Errorf("lesson not found"))
		}
		return err
	}

	courseTitle := ""
	if course, err := s.courses.GetByID(dbc, lesson.CourseID); err == nil {
		courseTitle = course.Title
	}

	system := buildTutorSystemPrompt(courseTitle, lesson)
	user := flattenHistory(cleaned)

	if _, err := s.ai.StreamText(dbc.Ctx, system, user, onDelta); err != nil {
		s.log.Error("chat stream failed", "lesson_id", lessonID, "error", err)
		return apierr.Provider(fmt.Errorf("could not stream answer"))
	}
	return nil
}

func validateHistory(history []ChatMessage) ([]ChatMessage, error) {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := strings.TrimSpace(strings.ToLower(m.Role))
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if role != "user" && role != "assistant" {
			return nil, apierr.Validation(fmt.Errorf("message role must be user or assistant, got %q", m.Role))
		}
		out = append(out, ChatMessage{Role: role, Content: content})
	}
	if len(out) == 0 {
		return nil, apierr.Validation(fmt.Errorf("conversation history is empty"))
	}
	if out[len(out)-1].Role != "user" {
		return nil, apierr.Validation(fmt.Errorf("last message must be from the user"))
	}
	return out, nil
}

func buildTutorSystemPrompt(courseTitle string, lesson *domain.Lesson) string {
	var b strings.Builder
	b.WriteString("You are a tutor helping a student with the video lesson ")
	fmt.Fprintf(&b, "%q", lesson.Title)
	if courseTitle != "" {
		fmt.Fprintf(&b, " from the course %q", courseTitle)
	}
	b.WriteString(". Answer from the lesson content. ")
	b.WriteString("When you reference a moment in the video you MUST format the timestamp exactly as [MM:SS], for example [03:45]. ")
	b.WriteString("Never use any other timestamp format.")

	if len(lesson.TranscriptData) > 0 {
		var td domain.TranscriptData
		if err := json.Unmarshal(lesson.TranscriptData, &td); err == nil && len(td.Chapters) > 0 {
			b.WriteString("\n\nLesson chapters:")
			for _, ch := range td.Chapters {
				mins := int(ch.Timestamp) / 60
				secs := int(ch.Timestamp) % 60
				fmt.Fprintf(&b, "\n[%02d:%02d] %s: %s", mins, secs, ch.Title, ch.Description)
			}
		}
	}
	return b.String()
}

func flattenHistory(history []ChatMessage) string {
	var b strings.Builder
	for _, m := range history {
		switch m.Role {
		case "assistant":
			b.WriteString("Tutor: ")
		default:
			b.WriteString("Student: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Tutor:")
	return b.String()
}
