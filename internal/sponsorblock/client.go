package sponsorblock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"segskip/internal/config"
	"segskip/internal/segments"
)

// DefaultBaseURL is the public SponsorBlock server.
const DefaultBaseURL = "https://sponsor.ajay.app"

// ErrEmptyVideoID is returned when Fetch is called without a video ID.
var ErrEmptyVideoID = errors.New("video id is empty")

// HTTPDoer describes the HTTP client used by the segment client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-success response from the segment service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("skipSegments returned %d", e.StatusCode)
}

// skipSegment is one record of the skipSegments response. Only segment and
// category are used; the rest is kept for debug logging.
type skipSegment struct {
	Segment       []float64 `json:"segment"`
	Category      string    `json:"category"`
	UUID          string    `json:"UUID"`
	ActionType    string    `json:"actionType"`
	VideoDuration float64   `json:"videoDuration"`
}

// Client queries the skipSegments endpoint.
type Client struct {
	baseURL    string
	categories []string
	client     HTTPDoer
}

// NewClient constructs a client. An empty baseURL uses DefaultBaseURL and a nil
// client uses http.DefaultClient.
func NewClient(baseURL string, categories []string, client HTTPDoer) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		categories: append([]string(nil), categories...),
		client:     client,
	}
}

// NewConfiguredClient builds a client from the sponsorblock config section.
func NewConfiguredClient(cfg *config.Config) *Client {
	if cfg == nil {
		return NewClient("", nil, nil)
	}
	return NewClient(
		cfg.SponsorBlock.APIURL,
		cfg.SponsorBlock.Categories,
		&http.Client{Timeout: cfg.RequestTimeout()},
	)
}

// Categories returns the category filter sent with every request.
func (c *Client) Categories() []string {
	return append([]string(nil), c.categories...)
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch returns the raw categorized segments for a video. A 404 means the
// video has no segments and yields an empty slice with no error. Records with
// a malformed segment pair are dropped.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]segments.CategorizedInterval, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, ErrEmptyVideoID
	}

	endpoint, err := c.endpoint(videoID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build skipSegments request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request skipSegments: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return []segments.CategorizedInterval{}, nil
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var records []skipSegment
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode skipSegments response: %w", err)
	}

	out := make([]segments.CategorizedInterval, 0, len(records))
	for _, rec := range records {
		if len(rec.Segment) != 2 {
			continue
		}
		iv := segments.Interval{Start: rec.Segment[0], End: rec.Segment[1]}
		if !iv.Valid() {
			continue
		}
		out = append(out, segments.CategorizedInterval{Interval: iv, Category: segments.Category(rec.Category)})
	}
	return out, nil
}

func (c *Client) endpoint(videoID string) (string, error) {
	categories := c.categories
	if categories == nil {
		categories = []string{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return "", fmt.Errorf("encode categories: %w", err)
	}
	query := url.Values{}
	query.Set("videoID", videoID)
	query.Set("categories", string(encoded))
	return c.baseURL + "/api/skipSegments?" + query.Encode(), nil
}
