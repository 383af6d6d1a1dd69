package sponsorblock_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"segskip/internal/segments"
	"segskip/internal/sponsorblock"
)

func TestFetchBuildsRequestAndParsesSegments(t *testing.T) {
	var gotPath, gotVideo, gotCategories string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVideo = r.URL.Query().Get("videoID")
		gotCategories = r.URL.Query().Get("categories")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"segment":[0,5],"category":"sponsor","UUID":"a","actionType":"skip","videoDuration":300},
			{"segment":[4,6],"category":"intro","UUID":"b"},
			{"segment":[9],"category":"outro"},
			{"segment":[8,7],"category":"outro"}
		]`))
	}))
	defer srv.Close()

	client := sponsorblock.NewClient(srv.URL+"/", []string{"sponsor", "intro"}, srv.Client())
	got, err := client.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotPath != "/api/skipSegments" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotVideo != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected videoID %q", gotVideo)
	}
	if gotCategories != `["sponsor","intro"]` {
		t.Fatalf("unexpected categories %q", gotCategories)
	}
	want := []segments.CategorizedInterval{
		{Interval: segments.Interval{Start: 0, End: 5}, Category: segments.CategorySponsor},
		{Interval: segments.Interval{Start: 4, End: 6}, Category: segments.CategoryIntro},
	}
	if len(got) != len(want) {
		t.Fatalf("expected malformed records dropped, got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestFetchTreatsNotFoundAsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer srv.Close()

	got, err := sponsorblock.NewClient(srv.URL, nil, srv.Client()).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("expected no error for 404, got %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFetchReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := sponsorblock.NewClient(srv.URL, nil, srv.Client()).Fetch(context.Background(), "dQw4w9WgXcQ")
	var statusErr *sponsorblock.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502, got %v", err)
	}
}

func TestFetchRejectsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	if _, err := sponsorblock.NewClient(srv.URL, nil, srv.Client()).Fetch(context.Background(), "dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchRequiresVideoID(t *testing.T) {
	_, err := sponsorblock.NewClient("", nil, nil).Fetch(context.Background(), "  ")
	if !errors.Is(err, sponsorblock.ErrEmptyVideoID) {
		t.Fatalf("expected ErrEmptyVideoID, got %v", err)
	}
}
