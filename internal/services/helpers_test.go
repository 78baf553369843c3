package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/dbctx"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
	"github.com/po-tati-x/potatix-sub004/internal/requestdata"
)

// authedDBC builds a request context carrying an authenticated user.
func authedDBC() dbctx.Context {
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString: "test-token",
		UserID:      uuid.New(),
	})
	return dbctx.Context{Ctx: ctx}
}

func anonDBC() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func errRecordNotFound() error { return gorm.ErrRecordNotFound }

type fakeLessonRepo struct {
	mu      sync.Mutex
	lessons map[uuid.UUID]*domain.Lesson
	updates []map[string]interface{}

	getErr    error
	updateErr error
}

func newFakeLessonRepo(lessons ...*domain.Lesson) *fakeLessonRepo {
	r := &fakeLessonRepo{lessons: make(map[uuid.UUID]*domain.Lesson)}
	for _, l := range lessons {
		r.lessons[l.ID] = l
	}
	return r
}

func (r *fakeLessonRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	l, ok := r.lessons[id]
	if !ok {
		return nil, errRecordNotFound()
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLessonRepo) GetByDirectUploadID(_ dbctx.Context, uploadID string) (*domain.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, l := range r.lessons {
		if l.DirectUploadID != nil && *l.DirectUploadID == uploadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, errRecordNotFound()
}

func (r *fakeLessonRepo) UpdateFields(_ dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates = append(r.updates, updates)
	l, ok := r.lessons[id]
	if !ok {
		return errRecordNotFound()
	}
	if v, ok := updates["upload_status"]; ok {
		l.UploadStatus = v.(domain.UploadStatus)
	}
	if v, ok := updates["direct_upload_id"]; ok {
		switch s := v.(type) {
		case string:
			l.DirectUploadID = &s
		case nil:
			l.DirectUploadID = nil
		}
	}
	return nil
}

func (r *fakeLessonRepo) lastUpdate() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

type fakeCourseRepo struct {
	courses map[uuid.UUID]*domain.Course
}

func (r *fakeCourseRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*domain.Course, error) {
	c, ok := r.courses[id]
	if !ok {
		return nil, errRecordNotFound()
	}
	return c, nil
}

type fakeVideoClient struct {
	mu sync.Mutex

	createCalls int
	createOut   *mux.DirectUpload
	createErr   error

	cancelled []string
	cancelErr error

	transcript    *mux.Transcript
	transcriptErr error
}

func (c *fakeVideoClient) CreateDirectUpload(_ context.Context, _ string) (*mux.DirectUpload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.createErr != nil {
		return nil, c.createErr
	}
	return c.createOut, nil
}

func (c *fakeVideoClient) CancelDirectUpload(_ context.Context, uploadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, uploadID)
	return c.cancelErr
}

func (c *fakeVideoClient) GetTranscript(_ context.Context, _ string) (*mux.Transcript, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transcriptErr != nil {
		return nil, c.transcriptErr
	}
	return c.transcript, nil
}

type fakeAIClient struct {
	mu sync.Mutex

	jsonCalls int
	jsonOut   map[string]any
	jsonErr   error

	streamCalls  int
	streamChunks []string
	streamErr    error

	lastSystem string
	lastUser   string
}

func (c *fakeAIClient) GenerateJSON(_ context.Context, system, user, _ string, _ map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jsonCalls++
	c.lastSystem = system
	c.lastUser = user
	if c.jsonErr != nil {
		return nil, c.jsonErr
	}
	return c.jsonOut, nil
}

func (c *fakeAIClient) StreamText(_ context.Context, system, user string, onDelta func(string)) (string, error) {
	c.mu.Lock()
	c.streamCalls++
	c.lastSystem = system
	c.lastUser = user
	chunks := c.streamChunks
	err := c.streamErr
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	var full string
	for _, chunk := range chunks {
		onDelta(chunk)
		full += chunk
	}
	return full, nil
}
