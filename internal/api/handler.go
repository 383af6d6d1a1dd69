package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"segskip/internal/adstate"
	"segskip/internal/logging"
	"segskip/internal/segments"
	"segskip/internal/session"
	"segskip/internal/sponsorblock"
)

// Sessions looks up live sessions.
type Sessions interface {
	List() []*session.Session
	Get(id string) (*session.Session, bool)
}

// SegmentSource resolves segments for a video.
type SegmentSource interface {
	Segments(ctx context.Context, videoID string) segments.Result
}

// Options toggles what the health endpoint reports.
type Options struct {
	SponsorBlock bool
	AdSpeedup    bool
}

// Handler serves the HTTP API.
type Handler struct {
	sessions Sessions
	source   SegmentSource
	opts     Options
	logger   *slog.Logger
}

// NewHandler builds a handler. source may be nil when segment lookups are disabled.
func NewHandler(sessions Sessions, source SegmentSource, opts Options, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		source:   source,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "api"),
	}
}

// Router returns the API routes mounted under /api.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/sessions", h.listSessions)
		r.Get("/sessions/{id}", h.getSession)
		r.Post("/sessions/{id}/evidence", h.postEvidence)
		r.Get("/sessions/{id}/markers", h.markers)
		r.Get("/segments/{videoID}", h.segments)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:       "ok",
		Sessions:     len(h.sessions.List()),
		SponsorBlock: h.opts.SponsorBlock,
		AdSpeedup:    h.opts.AdSpeedup,
	})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	list := h.sessions.List()
	views := make([]SessionView, 0, len(list))
	for _, sess := range list {
		views = append(views, FromStatus(sess.Status()))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, FromStatus(sess.Status()))
}

func (h *Handler) postEvidence(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var evidence adstate.Evidence
	if err := readJSON(w, r, &evidence); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid evidence payload: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.PostEvidence(evidence))
}

func (h *Handler) markers(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Markers())
}

func (h *Handler) segments(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "segment lookups are disabled")
		return
	}
	raw, err := url.PathUnescape(chi.URLParam(r, "videoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidVideoID, "malformed video reference")
		return
	}
	videoID, ok := sponsorblock.VideoIDFromURL(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidVideoID, "not a video id or video URL")
		return
	}
	result := h.source.Segments(r.Context(), videoID)
	writeJSON(w, http.StatusOK, SegmentsView{
		VideoID: videoID,
		Skip:    nonNilSkip(result.Skip),
		Display: nonNilDisplay(result.Display),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// IsNotFound reports whether err is an API not-found error.
func IsNotFound(err error) bool {
	var body *ErrorBody
	return errors.As(err, &body) && body.Code == codeNotFound
}
