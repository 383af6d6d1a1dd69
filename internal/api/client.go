package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"segskip/internal/segments"
	"segskip/internal/session"
)

// HTTPDoer issues HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to a running daemon.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// NewClient builds a client for the daemon listening on bind ("host:port" or a URL).
func NewClient(bind string, doer HTTPDoer) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if doer == nil {
		doer = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: base, http: doer}
}

// WithToken sets the bearer token sent on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = strings.TrimSpace(token)
	return c
}

// Health fetches daemon health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// Sessions lists live sessions.
func (c *Client) Sessions(ctx context.Context) ([]SessionView, error) {
	var out []SessionView
	err := c.get(ctx, "/api/sessions", &out)
	return out, err
}

// Session fetches one session.
func (c *Client) Session(ctx context.Context, id string) (SessionView, error) {
	var out SessionView
	err := c.get(ctx, "/api/sessions/"+url.PathEscape(id), &out)
	return out, err
}

// Markers fetches a session's progress markers.
func (c *Client) Markers(ctx context.Context, id string) ([]segments.Marker, error) {
	var out []segments.Marker
	err := c.get(ctx, "/api/sessions/"+url.PathEscape(id)+"/markers", &out)
	return out, err
}

// PostEvidence sends an ad evidence snapshot.
func (c *Client) PostEvidence(ctx context.Context, id string, evidence any) (session.EvidenceReply, error) {
	var out session.EvidenceReply
	body, err := json.Marshal(evidence)
	if err != nil {
		return out, fmt.Errorf("encode evidence: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/sessions/"+url.PathEscape(id)+"/evidence", strings.NewReader(string(body)))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	err = c.do(req, &out)
	return out, err
}

// Segments asks the daemon to resolve a video ID or URL.
func (c *Client) Segments(ctx context.Context, videoID string) (SegmentsView, error) {
	var out SegmentsView
	err := c.get(ctx, "/api/segments/"+url.PathEscape(videoID), &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read daemon response: %w", err)
	}
	var envelope Response
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("decode daemon response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Status != "ok" {
		if envelope.Error != nil {
			return envelope.Error
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if dst == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		return fmt.Errorf("decode daemon payload: %w", err)
	}
	return nil
}

// IsUnavailable reports whether err means the daemon could not be reached.
func IsUnavailable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
