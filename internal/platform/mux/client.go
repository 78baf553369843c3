// Package mux talks to the Mux Video HTTP API: direct upload sessions,
// best-effort cancellation, and transcript retrieval for ready assets.
package mux

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/po-tati-x/potatix-sub004/internal/pkg/ctxutil"
	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
)

// ErrTranscriptNotAvailable marks the typed "not available" outcome: the
// asset has no text track yet (captions still generating) or none at all.
var ErrTranscriptNotAvailable = errors.New("transcript not available")

// DirectUpload is a provider-issued single-use upload authorization.
type DirectUpload struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Transcript is the provider-generated caption text for a playback ID.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type Client interface {
	// CreateDirectUpload requests a session configured for any origin
	// given by corsOrigin, standard-quality output, and auto-generated
	// English captions.
	CreateDirectUpload(ctx context.Context, corsOrigin string) (*DirectUpload, error)
	CancelDirectUpload(ctx context.Context, uploadID string) error
	GetTranscript(ctx context.Context, playbackID string) (*Transcript, error)
}

type client struct {
	log         *logger.Logger
	baseURL     string
	streamURL   string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
}

func New(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	tokenID := strings.TrimSpace(os.Getenv("MUX_TOKEN_ID"))
	tokenSecret := strings.TrimSpace(os.Getenv("MUX_TOKEN_SECRET"))
	if tokenID == "" || tokenSecret == "" {
		return nil, fmt.Errorf("missing MUX_TOKEN_ID or MUX_TOKEN_SECRET")
	}

	baseURL := strings.TrimSpace(os.Getenv("MUX_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.mux.com"
	}
	streamURL := strings.TrimSpace(os.Getenv("MUX_STREAM_URL"))
	if streamURL == "" {
		streamURL = "https://stream.mux.com"
	}

	return &client{
		log:         log.With("service", "MuxClient"),
		baseURL:     baseURL,
		streamURL:   streamURL,
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type muxHTTPError struct {
	StatusCode int
	Body       string
}

func (e *muxHTTPError) Error() string {
	return fmt.Sprintf("mux http %d: %s", e.StatusCode, e.Body)
}

func (c *client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &muxHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("mux decode error: %w; raw=%s", err, string(raw))
	}
	return nil
}

type createUploadRequest struct {
	CorsOrigin       string `json:"cors_origin"`
	NewAssetSettings struct {
		PlaybackPolicies []string `json:"playback_policies"`
		VideoQuality     string   `json:"video_quality"`
		Inputs           []struct {
			GeneratedSubtitles []struct {
				LanguageCode string `json:"language_code"`
				Name         string `json:"name"`
			} `json:"generated_subtitles"`
		} `json:"inputs"`
	} `json:"new_asset_settings"`
}

type createUploadResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

func (c *client) CreateDirectUpload(ctx context.Context, corsOrigin string) (*DirectUpload, error) {
	corsOrigin = strings.TrimSpace(corsOrigin)
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	req := createUploadRequest{CorsOrigin: corsOrigin}
	req.NewAssetSettings.PlaybackPolicies = []string{"public"}
	req.NewAssetSettings.VideoQuality = "basic"
	req.NewAssetSettings.Inputs = []struct {
		GeneratedSubtitles []struct {
			LanguageCode string `json:"language_code"`
			Name         string `json:"name"`
		} `json:"generated_subtitles"`
	}{
		{
			GeneratedSubtitles: []struct {
				LanguageCode string `json:"language_code"`
				Name         string `json:"name"`
			}{
				{LanguageCode: "en", Name: "English (auto)"},
			},
		},
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp createUploadResponse
	if err := c.do(ctx, "POST", "/video/v1/uploads", strings.NewReader(string(buf)), &resp); err != nil {
		return nil, fmt.Errorf("mux create upload: %w", err)
	}
	if resp.Data.ID == "" || resp.Data.URL == "" {
		return nil, fmt.Errorf("mux create upload: incomplete response")
	}
	return &DirectUpload{ID: resp.Data.ID, URL: resp.Data.URL}, nil
}

func (c *client) CancelDirectUpload(ctx context.Context, uploadID string) error {
	uploadID = strings.TrimSpace(uploadID)
	if uploadID == "" {
		return fmt.Errorf("upload id required")
	}
	if err := c.do(ctx, "PUT", "/video/v1/uploads/"+uploadID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("mux cancel upload: %w", err)
	}
	return nil
}

type playbackIDResponse struct {
	Data struct {
		Object struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"object"`
	} `json:"data"`
}

type assetResponse struct {
	Data struct {
		Tracks []struct {
			ID           string `json:"id"`
			Type         string `json:"type"`
			TextType     string `json:"text_type"`
			LanguageCode string `json:"language_code"`
			Status       string `json:"status"`
		} `json:"tracks"`
	} `json:"data"`
}

// GetTranscript resolves the playback ID to its asset, locates a ready
// subtitle track, and fetches its plain-text rendition from the streaming
// edge.
func (c *client) GetTranscript(ctx context.Context, playbackID string) (*Transcript, error) {
	playbackID = strings.TrimSpace(playbackID)
	if playbackID == "" {
		return nil, fmt.Errorf("playback id required")
	}

	var pb playbackIDResponse
	if err := c.do(ctx, "GET", "/video/v1/playback-ids/"+playbackID, nil, &pb); err != nil {
		var httpErr *muxHTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, ErrTranscriptNotAvailable
		}
		return nil, fmt.Errorf("mux resolve playback id: %w", err)
	}
	if pb.Data.Object.Type != "asset" || pb.Data.Object.ID == "" {
		return nil, ErrTranscriptNotAvailable
	}

	var asset assetResponse
	if err := c.do(ctx, "GET", "/video/v1/assets/"+pb.Data.Object.ID, nil, &asset); err != nil {
		return nil, fmt.Errorf("mux get asset: %w", err)
	}

	var trackID, language string
	for _, track := range asset.Data.Tracks {
		if track.Type == "text" && track.TextType == "subtitles" && track.Status == "ready" {
			trackID = track.ID
			language = track.LanguageCode
			break
		}
	}
	if trackID == "" {
		return nil, ErrTranscriptNotAvailable
	}

	text, err := c.fetchTrackText(ctx, playbackID, trackID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTranscriptNotAvailable
	}
	if language == "" {
		language = "en"
	}
	return &Transcript{Text: text, Language: language}, nil
}

func (c *client) fetchTrackText(ctx context.Context, playbackID, trackID string) (string, error) {
	url := fmt.Sprintf("%s/%s/text/%s.txt", c.streamURL, playbackID, trackID)
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), "GET", url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrTranscriptNotAvailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", &muxHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
