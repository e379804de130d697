package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"playscribe/internal/config"
	"playscribe/internal/services"
)

const (
	defaultClientName    = "WEB"
	defaultClientVersion = "2.20240101.00.00"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxResponseBytes = 16 << 20
)

// ErrMalformedPage marks a response that lacks the structure the parser expects.
var ErrMalformedPage = fmt.Errorf("%w: malformed youtube response", services.ErrTransient)

// ErrPlaylistTooLarge is returned when a playlist still has a continuation
// after the member page limit.
var ErrPlaylistTooLarge = errors.New("playlist exceeds member page limit")

// HTTPError reports a non-200 response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("youtube request %s returned %d", e.URL, e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return services.ErrTransient
}

// Permanent reports whether retrying the request cannot change the answer.
// Client errors qualify except timeouts and rate limiting.
func (e *HTTPError) Permanent() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsUnavailable reports whether err means the requested content cannot be
// read at all, as opposed to a network or server failure worth retrying.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrMalformedPage) || errors.Is(err, ErrPlaylistTooLarge) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Permanent()
}

// Client issues requests against a YouTube-compatible base URL.
type Client struct {
	baseURL            string
	language           string
	region             string
	transcriptLanguage string
	generatedOnly      bool
	memberPageLimit    int
	httpClient         *http.Client

	mu     sync.Mutex
	tracks map[string][]CaptionTrack
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLocale sets the interface language and region sent with innertube requests.
func WithLocale(language, region string) Option {
	return func(c *Client) {
		if language = strings.TrimSpace(language); language != "" {
			c.language = language
		}
		if region = strings.TrimSpace(region); region != "" {
			c.region = region
		}
	}
}

// WithTranscriptLanguage selects the caption language counted as available.
// generatedOnly restricts the check to auto-generated tracks.
func WithTranscriptLanguage(language string, generatedOnly bool) Option {
	return func(c *Client) {
		if language = strings.TrimSpace(language); language != "" {
			c.transcriptLanguage = strings.ToLower(language)
		}
		c.generatedOnly = generatedOnly
	}
}

// WithMemberPageLimit bounds the browse requests issued for one playlist.
func WithMemberPageLimit(pages int) Option {
	return func(c *Client) {
		if pages > 0 {
			c.memberPageLimit = pages
		}
	}
}

// New creates a client rooted at baseURL (normally https://www.youtube.com).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("youtube base url required")
	}
	client := &Client{
		baseURL:            strings.TrimRight(baseURL, "/"),
		language:           "en",
		region:             "US",
		transcriptLanguage: "en",
		memberPageLimit:    maxMemberPages,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
		tracks:             make(map[string][]CaptionTrack),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig builds a client from the discovery and transcript sections.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("youtube: config is required")
	}
	return New(cfg.Discovery.BaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		WithLocale(cfg.Discovery.Language, cfg.Discovery.Region),
		WithTranscriptLanguage(cfg.Transcripts.Language, cfg.Transcripts.GeneratedOnly),
	)
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
	GL            string `json:"gl"`
}

func (c *Client) innertubeContext() innertubeContext {
	return innertubeContext{Client: innertubeClient{
		ClientName:    defaultClientName,
		ClientVersion: defaultClientVersion,
		HL:            c.language,
		GL:            c.region,
	}}
}

// postInnertube sends payload to /youtubei/v1/<endpoint> and decodes the reply into out.
func (c *Client) postInnertube(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}
	url := c.baseURL + "/youtubei/v1/" + endpoint + "?prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")

	data, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrMalformedPage, endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("Cookie", "CONSENT=YES+1")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", defaultUserAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", req.Method, fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{URL: req.URL.Path, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "youtube", req.Method, "read body", err)
	}
	return data, nil
}

// textRuns is the innertube representation of formatted text.
type textRuns struct {
	SimpleText string    `json:"simpleText,omitempty"`
	Runs       []textRun `json:"runs,omitempty"`
}

type textRun struct {
	Text               string              `json:"text,omitempty"`
	NavigationEndpoint *navigationEndpoint `json:"navigationEndpoint,omitempty"`
}

type navigationEndpoint struct {
	BrowseEndpoint *struct {
		BrowseID string `json:"browseId,omitempty"`
	} `json:"browseEndpoint,omitempty"`
}

func (t *textRuns) text() string {
	if t == nil {
		return ""
	}
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b strings.Builder
	for _, run := range t.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

type continuationItemRenderer struct {
	ContinuationEndpoint *struct {
		ContinuationCommand *struct {
			Token string `json:"token,omitempty"`
		} `json:"continuationCommand,omitempty"`
	} `json:"continuationEndpoint,omitempty"`
}

func (r *continuationItemRenderer) token() string {
	if r == nil || r.ContinuationEndpoint == nil || r.ContinuationEndpoint.ContinuationCommand == nil {
		return ""
	}
	return r.ContinuationEndpoint.ContinuationCommand.Token
}
