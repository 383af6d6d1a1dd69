package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"segskip/internal/logging"
	"segskip/internal/segments"
	"segskip/internal/session"
)

type stubSource struct {
	mu    sync.Mutex
	calls []string
}

func (s *stubSource) Segments(_ context.Context, videoID string) segments.Result {
	s.mu.Lock()
	s.calls = append(s.calls, videoID)
	s.mu.Unlock()
	return segments.Build([]segments.CategorizedInterval{
		{Interval: segments.Interval{Start: 5, End: 10}, Category: segments.CategorySponsor},
		{Interval: segments.Interval{Start: 8, End: 12}, Category: segments.CategoryIntro},
	})
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager, *stubSource) {
	t.Helper()
	mgr := session.NewManager(session.Options{Logger: logging.NewNop(), AdSpeedup: true})
	t.Cleanup(mgr.StopAll)
	source := &stubSource{}
	handler := NewHandler(mgr, source, Options{SponsorBlock: true, AdSpeedup: true}, logging.NewNop())
	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv, mgr, source
}

func TestHealth(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	if _, err := mgr.Create(context.Background(), nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	health, err := NewClient(srv.URL, srv.Client()).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Sessions != 1 || !health.SponsorBlock {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestSessionEndpoints(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	sess, err := mgr.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Reset round-trips through the event loop, so the session is running after it.
	if err := sess.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	client := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	list, err := client.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(list) != 1 || list[0].ID != sess.ID() {
		t.Fatalf("unexpected sessions %+v", list)
	}

	view, err := client.Session(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if !view.Running || view.AdState != "normal" || view.CreatedAt == "" {
		t.Fatalf("unexpected view %+v", view)
	}

	markers, err := client.Markers(ctx, sess.ID())
	if err != nil {
		t.Fatalf("Markers: %v", err)
	}
	if len(markers) != 0 {
		t.Fatalf("expected no markers, got %+v", markers)
	}

	_, err = client.Session(ctx, "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostEvidence(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	sess, err := mgr.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	body := `{"overlay":true,"ad_text":true,"skip_visible":true}`
	resp, err := srv.Client().Post(srv.URL+"/api/sessions/"+sess.ID()+"/evidence", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var envelope struct {
		Status string                `json:"status"`
		Data   session.EvidenceReply `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != "ok" || !envelope.Data.Definite || envelope.Data.Indicators != 2 {
		t.Fatalf("unexpected reply %+v", envelope)
	}
}

func TestPostEvidenceRejectsUnknownFields(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	sess, err := mgr.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	resp, err := srv.Client().Post(srv.URL+"/api/sessions/"+sess.ID()+"/evidence", "application/json", strings.NewReader(`{"banner":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != "error" || envelope.Error == nil || envelope.Error.Code != codeBadRequest {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}

func TestSegmentsEndpoint(t *testing.T) {
	srv, _, source := newTestServer(t)
	client := NewClient(srv.URL, srv.Client())

	view, err := client.Segments(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	if view.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected video id %q", view.VideoID)
	}
	want := segments.SkipSet{{Start: 5, End: 12}}
	if len(view.Skip) != 1 || view.Skip[0] != want[0] {
		t.Fatalf("unexpected skip set %v", view.Skip)
	}
	if len(view.Display) != 2 || view.Display[1].Category != segments.CategoryIntro {
		t.Fatalf("unexpected display set %+v", view.Display)
	}
	if len(source.calls) != 1 || source.calls[0] != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected source calls %v", source.calls)
	}

	_, err = client.Segments(context.Background(), "not a video")
	var body *ErrorBody
	if !errors.As(err, &body) || body.Code != codeInvalidVideoID {
		t.Fatalf("expected invalid video id error, got %v", err)
	}
}

func TestSegmentsDisabled(t *testing.T) {
	mgr := session.NewManager(session.Options{Logger: logging.NewNop()})
	handler := NewHandler(mgr, nil, Options{}, logging.NewNop())
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/segments/dQw4w9WgXcQ", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
