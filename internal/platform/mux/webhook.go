package mux

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types the pipeline reacts to. Everything else is ignored.
const (
	EventUploadAssetCreated = "video.upload.asset_created"
	EventUploadCancelled    = "video.upload.cancelled"
	EventUploadErrored      = "video.upload.errored"
	EventAssetReady         = "video.asset.ready"
)

// Event is the subset of the provider webhook payload the pipeline reads.
// For upload events Data.ID is the upload session id; for asset events the
// correlation handle is Data.UploadID.
type Event struct {
	Type string `json:"type"`
	Data struct {
		ID          string  `json:"id"`
		UploadID    string  `json:"upload_id"`
		Duration    float64 `json:"duration"`
		PlaybackIDs []struct {
			ID string `json:"id"`
		} `json:"playback_ids"`
		Tracks []struct {
			Type      string `json:"type"`
			MaxWidth  int    `json:"max_width"`
			MaxHeight int    `json:"max_height"`
		} `json:"tracks"`
	} `json:"data"`
}

func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("webhook payload decode: %w", err)
	}
	if strings.TrimSpace(ev.Type) == "" {
		return nil, fmt.Errorf("webhook payload missing type")
	}
	return &ev, nil
}

// UploadSessionID returns the direct upload id the event correlates to, or
// "" when the event has no upload correlation.
func (e *Event) UploadSessionID() string {
	switch e.Type {
	case EventUploadAssetCreated, EventUploadCancelled, EventUploadErrored:
		return e.Data.ID
	case EventAssetReady:
		return e.Data.UploadID
	}
	return ""
}

// PlaybackID returns the first public playback id on an asset event.
func (e *Event) PlaybackID() string {
	if len(e.Data.PlaybackIDs) == 0 {
		return ""
	}
	return e.Data.PlaybackIDs[0].ID
}

// Dimensions returns the video track's max width/height, or zeros.
func (e *Event) Dimensions() (width, height int) {
	for _, t := range e.Data.Tracks {
		if t.Type == "video" {
			return t.MaxWidth, t.MaxHeight
		}
	}
	return 0, 0
}

// signatureTolerance bounds how stale a signed webhook may be.
const signatureTolerance = 5 * time.Minute

// VerifySignature checks the provider's signature header, formatted as
// "t=<unix>,v1=<hex hmac-sha256 of "<t>.<body>">".
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("webhook secret not configured")
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			ts = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			sig = strings.TrimPrefix(part, "v1=")
		}
	}
	if ts == "" || sig == "" {
		return fmt.Errorf("malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	sent := time.Unix(unix, 0)
	if sent.Before(now.Add(-signatureTolerance)) || sent.After(now.Add(signatureTolerance)) {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
