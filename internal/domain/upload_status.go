package domain

// UploadStatus tracks a lesson's single upload attempt. The status lives on
// the lesson row; there is no separate session table, so one lesson tracks
// one attempt at a time.
type UploadStatus string

const (
	UploadStatusIdle       UploadStatus = "IDLE"
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusUploading  UploadStatus = "UPLOADING"
	UploadStatusPaused     UploadStatus = "PAUSED"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusCompleted  UploadStatus = "COMPLETED"
	UploadStatusError      UploadStatus = "ERROR"
	UploadStatusCancelled  UploadStatus = "CANCELLED"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusIdle, UploadStatusPending, UploadStatusUploading,
		UploadStatusPaused, UploadStatusProcessing, UploadStatusCompleted,
		UploadStatusError, UploadStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status ends the current session. A new
// session restarts the machine at PENDING.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusCancelled
}

var uploadTransitions = map[UploadStatus][]UploadStatus{
	UploadStatusIdle:       {UploadStatusPending},
	UploadStatusError:      {UploadStatusPending},
	UploadStatusPending:    {UploadStatusUploading, UploadStatusCancelled},
	UploadStatusUploading:  {UploadStatusPaused, UploadStatusProcessing, UploadStatusCancelled},
	UploadStatusPaused:     {UploadStatusUploading, UploadStatusCancelled},
	UploadStatusProcessing: {UploadStatusCompleted},
}

// CanTransition reports whether from -> to is an allowed move. ERROR is
// reachable from every state; everything else follows the transition table.
func CanTransition(from, to UploadStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == UploadStatusError {
		return true
	}
	for _, next := range uploadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
