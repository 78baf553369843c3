package services

import (
	"encoding/json"
	"testing"

	"github.com/po-tati-x/potatix-sub004/internal/domain"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
	"github.com/po-tati-x/potatix-sub004/internal/platform/mux"
)

func uploadEvent(t *testing.T, eventType, uploadID string) *mux.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"type": eventType,
		"data": map[string]any{"id": uploadID},
	})
	if err != nil {
		t.Fatal(err)
	}
	ev, err := mux.ParseEvent(raw)
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func assetReadyEvent(t *testing.T, uploadID string) *mux.Event {
	t.Helper()
	raw := []byte(`{
		"type": "video.asset.ready",
		"data": {
			"id": "asset_1",
			"upload_id": "` + uploadID + `",
			"duration": 300.25,
			"playback_ids": [{"id": "pb_1"}],
			"tracks": [{"type": "video", "max_width": 1280, "max_height": 720}]
		}
	}`)
	ev, err := mux.ParseEvent(raw)
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func lessonWithUpload(status domain.UploadStatus, uploadID string) *domain.Lesson {
	lesson := newTestLesson(status)
	lesson.DirectUploadID = &uploadID
	return lesson
}

func TestHandleEvent(t *testing.T) {
	t.Parallel()

	t.Run("asset created moves to processing", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLessonRepo(lessonWithUpload(domain.UploadStatusUploading, "up_1"))
		svc, _ := NewWebhookService(logger.NewNop(), repo)

		if err := svc.HandleEvent(anonDBC(), uploadEvent(t, mux.EventUploadAssetCreated, "up_1")); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if repo.lastUpdate()["upload_status"] != domain.UploadStatusProcessing {
			t.Fatalf("status = %v, want PROCESSING", repo.lastUpdate()["upload_status"])
		}
	})

	t.Run("asset ready completes with media metadata", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLessonRepo(lessonWithUpload(domain.UploadStatusProcessing, "up_1"))
		svc, _ := NewWebhookService(logger.NewNop(), repo)

		if err := svc.HandleEvent(anonDBC(), assetReadyEvent(t, "up_1")); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		updates := repo.lastUpdate()
		if updates["upload_status"] != domain.UploadStatusCompleted {
			t.Fatalf("status = %v, want COMPLETED", updates["upload_status"])
		}
		if updates["playback_id"] != "pb_1" {
			t.Fatalf("playback_id = %v", updates["playback_id"])
		}
		if updates["duration"] != 300.25 {
			t.Fatalf("duration = %v", updates["duration"])
		}
		if updates["width"] != 1280 || updates["height"] != 720 {
			t.Fatalf("dimensions = %v x %v", updates["width"], updates["height"])
		}
	})

	t.Run("errored and cancelled map to their statuses", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			eventType string
			from      domain.UploadStatus
			want      domain.UploadStatus
		}{
			{mux.EventUploadErrored, domain.UploadStatusUploading, domain.UploadStatusError},
			{mux.EventUploadCancelled, domain.UploadStatusPending, domain.UploadStatusCancelled},
		}
		for _, tc := range cases {
			repo := newFakeLessonRepo(lessonWithUpload(tc.from, "up_1"))
			svc, _ := NewWebhookService(logger.NewNop(), repo)

			if err := svc.HandleEvent(anonDBC(), uploadEvent(t, tc.eventType, "up_1")); err != nil {
				t.Fatalf("HandleEvent(%s): %v", tc.eventType, err)
			}
			if repo.lastUpdate()["upload_status"] != tc.want {
				t.Fatalf("%s: status = %v, want %s", tc.eventType, repo.lastUpdate()["upload_status"], tc.want)
			}
		}
	})

	t.Run("illegal transition dropped without error", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLessonRepo(lessonWithUpload(domain.UploadStatusCancelled, "up_1"))
		svc, _ := NewWebhookService(logger.NewNop(), repo)

		if err := svc.HandleEvent(anonDBC(), assetReadyEvent(t, "up_1")); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if repo.lastUpdate() != nil {
			t.Fatalf("cancelled lesson mutated by a late event: %v", repo.lastUpdate())
		}
	})

	t.Run("unknown upload session dropped without error", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLessonRepo(lessonWithUpload(domain.UploadStatusUploading, "up_current"))
		svc, _ := NewWebhookService(logger.NewNop(), repo)

		if err := svc.HandleEvent(anonDBC(), uploadEvent(t, mux.EventUploadAssetCreated, "up_superseded")); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if repo.lastUpdate() != nil {
			t.Fatal("event for a superseded session mutated the lesson")
		}
	})

	t.Run("unhandled event type ignored", func(t *testing.T) {
		t.Parallel()
		repo := newFakeLessonRepo(lessonWithUpload(domain.UploadStatusUploading, "up_1"))
		svc, _ := NewWebhookService(logger.NewNop(), repo)

		ev, err := mux.ParseEvent([]byte(`{"type":"video.asset.static_renditions.ready","data":{"id":"up_1"}}`))
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.HandleEvent(anonDBC(), ev); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if repo.lastUpdate() != nil {
			t.Fatal("unhandled event type mutated the lesson")
		}
	})
}
