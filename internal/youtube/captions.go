package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"playscribe/internal/textutil"
)

const (
	playerResponseMarker = "ytInitialPlayerResponse"
	maxCachedVideos      = 256
)

// CaptionTrack is one caption track advertised by the watch page.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"`
}

// Generated reports whether the track is automatic speech recognition output.
func (t CaptionTrack) Generated() bool {
	return t.Kind == "asr"
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer *struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// CaptionTracks lists the caption tracks of a video. A video without captions
// returns an empty slice; a watch page without a player response returns
// ErrMalformedPage.
func (c *Client) CaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.New("video id is required")
	}
	c.mu.Lock()
	cached, ok := c.tracks[videoID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("hl", c.language)
	page, err := c.get(ctx, c.baseURL+"/watch?"+params.Encode())
	if err != nil {
		return nil, err
	}
	player, err := extractPlayerResponse(page)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}

	var tracks []CaptionTrack
	if player.Captions != nil && player.Captions.PlayerCaptionsTracklistRenderer != nil {
		tracks = player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	}

	c.mu.Lock()
	if len(c.tracks) >= maxCachedVideos {
		c.tracks = make(map[string][]CaptionTrack)
	}
	c.tracks[videoID] = tracks
	c.mu.Unlock()
	return tracks, nil
}

// extractPlayerResponse finds the inline script assigning ytInitialPlayerResponse
// and decodes the object literal that follows the assignment.
func extractPlayerResponse(page []byte) (*playerResponse, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("%w: parse watch page: %v", ErrMalformedPage, err)
	}

	var (
		player   *playerResponse
		parseErr error
	)
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerResponseMarker)
		if idx < 0 {
			return true
		}
		start := strings.Index(text[idx:], "{")
		if start < 0 {
			return true
		}
		var decoded playerResponse
		// The decoder stops after the first complete value, ignoring the trailing ";var ..." code.
		if err := json.NewDecoder(strings.NewReader(text[idx+start:])).Decode(&decoded); err != nil {
			parseErr = err
			return true
		}
		player = &decoded
		return false
	})
	if player == nil {
		if parseErr != nil {
			return nil, fmt.Errorf("%w: decode player response: %v", ErrMalformedPage, parseErr)
		}
		return nil, fmt.Errorf("%w: watch page has no player response", ErrMalformedPage)
	}
	return player, nil
}

// selectTrack picks the caption track for the configured language. Manual
// tracks win over generated ones unless only generated tracks are accepted.
func (c *Client) selectTrack(tracks []CaptionTrack) (CaptionTrack, bool) {
	var fallback *CaptionTrack
	for i := range tracks {
		track := tracks[i]
		if !languageMatches(track.LanguageCode, c.transcriptLanguage) {
			continue
		}
		if c.generatedOnly {
			if track.Generated() {
				return track, true
			}
			continue
		}
		if !track.Generated() {
			return track, true
		}
		if fallback == nil {
			fallback = &tracks[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return CaptionTrack{}, false
}

func languageMatches(code, want string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == want || strings.HasPrefix(code, want+"-")
}

// HasEnglishTranscript reports whether the video offers a caption track in
// the configured transcript language (English by default).
func (c *Client) HasEnglishTranscript(ctx context.Context, videoID string) (bool, error) {
	tracks, err := c.CaptionTracks(ctx, videoID)
	if err != nil {
		return false, err
	}
	_, ok := c.selectTrack(tracks)
	return ok, nil
}

type timedtextResponse struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs,omitempty"`
	} `json:"events"`
}

// TranscriptText downloads the selected caption track and returns its text
// with whitespace collapsed to single spaces.
func (c *Client) TranscriptText(ctx context.Context, videoID string) (string, error) {
	tracks, err := c.CaptionTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	track, ok := c.selectTrack(tracks)
	if !ok {
		return "", fmt.Errorf("video %s has no %s transcript", videoID, c.transcriptLanguage)
	}

	trackURL, err := c.trackURL(track.BaseURL)
	if err != nil {
		return "", err
	}
	data, err := c.get(ctx, trackURL)
	if err != nil {
		return "", err
	}
	return parseTimedtext(data)
}

func (c *Client) trackURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("%w: caption track without url", ErrMalformedPage)
	}
	if strings.HasPrefix(base, "/") {
		base = c.baseURL + base
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: caption url: %v", ErrMalformedPage, err)
	}
	query := parsed.Query()
	query.Set("fmt", "json3")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func parseTimedtext(data []byte) (string, error) {
	var resp timedtextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: decode timedtext: %v", ErrMalformedPage, err)
	}
	parts := make([]string, 0, len(resp.Events))
	for _, event := range resp.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var b strings.Builder
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		parts = append(parts, b.String())
	}
	return textutil.CollapseSpace(strings.Join(parts, " ")), nil
}
