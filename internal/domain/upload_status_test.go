package domain

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from UploadStatus
		to   UploadStatus
		want bool
	}{
		{"idle to pending", UploadStatusIdle, UploadStatusPending, true},
		{"pending to uploading", UploadStatusPending, UploadStatusUploading, true},
		{"pending to cancelled", UploadStatusPending, UploadStatusCancelled, true},
		{"uploading to paused", UploadStatusUploading, UploadStatusPaused, true},
		{"uploading to processing", UploadStatusUploading, UploadStatusProcessing, true},
		{"uploading to cancelled", UploadStatusUploading, UploadStatusCancelled, true},
		{"paused to uploading", UploadStatusPaused, UploadStatusUploading, true},
		{"paused to cancelled", UploadStatusPaused, UploadStatusCancelled, true},
		{"processing to completed", UploadStatusProcessing, UploadStatusCompleted, true},
		{"error to pending", UploadStatusError, UploadStatusPending, true},

		{"processing to uploading", UploadStatusProcessing, UploadStatusUploading, false},
		{"processing to cancelled", UploadStatusProcessing, UploadStatusCancelled, false},
		{"completed to anything", UploadStatusCompleted, UploadStatusUploading, false},
		{"cancelled to pending", UploadStatusCancelled, UploadStatusPending, false},
		{"idle to uploading", UploadStatusIdle, UploadStatusUploading, false},
		{"pending to completed", UploadStatusPending, UploadStatusCompleted, false},
		{"paused to processing", UploadStatusPaused, UploadStatusProcessing, false},
		{"invalid from", UploadStatus("BOGUS"), UploadStatusPending, false},
		{"invalid to", UploadStatusPending, UploadStatus("BOGUS"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestErrorReachableFromEverywhere(t *testing.T) {
	t.Parallel()

	all := []UploadStatus{
		UploadStatusIdle, UploadStatusPending, UploadStatusUploading,
		UploadStatusPaused, UploadStatusProcessing, UploadStatusCompleted,
		UploadStatusError, UploadStatusCancelled,
	}
	for _, from := range all {
		if !CanTransition(from, UploadStatusError) {
			t.Errorf("CanTransition(%s, ERROR) = false, want true", from)
		}
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	if !UploadStatusCompleted.Terminal() || !UploadStatusCancelled.Terminal() {
		t.Fatal("COMPLETED and CANCELLED must be terminal")
	}
	for _, s := range []UploadStatus{
		UploadStatusIdle, UploadStatusPending, UploadStatusUploading,
		UploadStatusPaused, UploadStatusProcessing, UploadStatusError,
	} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}
