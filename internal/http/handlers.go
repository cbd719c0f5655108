package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/towncal/internal/auth"
	"github.com/example/towncal/internal/feed"
	httperrors "github.com/example/towncal/internal/http/errors"
	"github.com/example/towncal/internal/metrics"
	"github.com/example/towncal/internal/publish"
	"github.com/example/towncal/internal/store"
	"github.com/example/towncal/internal/submission"
)

const (
	maxTitleLen    = 255
	maxLocationLen = 255

	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler serves the submission API, the public calendar feed, and the
// queue admin endpoints.
type Handler struct {
	store     *store.Store
	publisher *publish.Publisher
	worker    *publish.Worker
	feed      *feed.Service
	logger    *slog.Logger
}

func NewHandler(st *store.Store, publisher *publish.Publisher, worker *publish.Worker, feedSvc *feed.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{store: st, publisher: publisher, worker: worker, feed: feedSvc, logger: logger}
}

type submissionRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
}

type submissionResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	OwnerID     *int64     `json:"owner_id,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toResponse(sub *store.Submission) submissionResponse {
	return submissionResponse{
		ID:          sub.ID,
		Title:       sub.Title,
		Description: sub.Description,
		Location:    sub.Location,
		Start:       sub.Start,
		End:         sub.End,
		OwnerID:     sub.OwnerID,
		Status:      string(sub.Status),
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (req *submissionRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	switch {
	case req.Title == "":
		return "title is required"
	case len(req.Title) > maxTitleLen:
		return "title must be at most 255 characters"
	case len(req.Location) > maxLocationLen:
		return "location must be at most 255 characters"
	case req.Start.IsZero():
		return "start is required"
	case req.End != nil && req.End.Before(req.Start):
		return "end must not be before start"
	}
	return ""
}

func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequest(w, r, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		httperrors.BadRequest(w, r, msg)
		return
	}

	sub := store.Submission{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       req.Start,
		End:         req.End,
		Status:      submission.StatusSubmitted,
	}
	if actor := auth.ActorFromContext(r.Context()); !actor.Anonymous {
		sub.OwnerID = &actor.ID
	}

	created, err := h.store.Submissions.Create(r.Context(), sub)
	if err != nil {
		httperrors.InternalError(w, r, err, "create submission")
		return
	}

	h.logger.Info("submission created", "id", created.ID, "anonymous", created.OwnerID == nil)
	writeJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) loadSubmission(w http.ResponseWriter, r *http.Request) *store.Submission {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.NotFound(w)
		return nil
	}
	sub, err := h.store.Submissions.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httperrors.NotFound(w)
		return nil
	}
	if err != nil {
		httperrors.InternalError(w, r, err, "load submission")
		return nil
	}
	return sub
}

func canView(actor submission.Actor, sub *store.Submission) bool {
	if actor.Moderator {
		return true
	}
	return sub.OwnerID != nil && !actor.Anonymous && *sub.OwnerID == actor.ID
}

func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub := h.loadSubmission(w, r)
	if sub == nil {
		return
	}
	if !canView(auth.ActorFromContext(r.Context()), sub) {
		httperrors.Forbidden(w)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sub))
}

func (h *Handler) UpdateSubmission(w http.ResponseWriter, r *http.Request) {
	sub := h.loadSubmission(w, r)
	if sub == nil {
		return
	}
	if !submission.CanEdit(auth.ActorFromContext(r.Context()), sub.OwnerID, sub.Status) {
		httperrors.Forbidden(w)
		return
	}

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequest(w, r, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		httperrors.BadRequest(w, r, msg)
		return
	}

	sub.Title = req.Title
	sub.Description = req.Description
	sub.Location = req.Location
	sub.Start = req.Start
	sub.End = req.End

	if err := h.store.Submissions.Update(r.Context(), sub); err != nil {
		httperrors.InternalError(w, r, err, "update submission")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(sub))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *Handler) TransitionSubmission(w http.ResponseWriter, r *http.Request) {
	sub := h.loadSubmission(w, r)
	if sub == nil {
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.BadRequest(w, r, "invalid JSON body")
		return
	}
	to := submission.Status(req.Status)
	if !to.Valid() {
		httperrors.BadRequest(w, r, "unknown status")
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if err := submission.CheckTransition(actor, sub.Status, to); err != nil {
		switch {
		case errors.Is(err, submission.ErrPermissionDenied):
			httperrors.Forbidden(w)
		case errors.Is(err, submission.ErrInvalidTransition):
			httperrors.Conflict(w, "transition not allowed from "+string(sub.Status))
		default:
			httperrors.InternalError(w, r, err, "transition submission")
		}
		return
	}

	if err := h.store.Submissions.SetStatus(r.Context(), sub.ID, to); err != nil {
		httperrors.InternalError(w, r, err, "transition submission")
		return
	}
	sub.Status = to
	h.logger.Info("submission transitioned", "id", sub.ID, "status", to, "moderator", actor.ID)

	// Approval queues the submission for the next publish batch.
	if to == submission.StatusApproved {
		if _, err := h.store.Jobs.Enqueue(r.Context(), sub.ID); err != nil {
			httperrors.InternalError(w, r, err, "enqueue publish job")
			return
		}
		if n, err := h.store.Jobs.Count(r.Context()); err == nil {
			metrics.SetQueueDepth(n)
		}
	}

	writeJSON(w, http.StatusOK, toResponse(sub))
}

func (h *Handler) PublishSubmission(w http.ResponseWriter, r *http.Request) {
	if !auth.ActorFromContext(r.Context()).Moderator {
		httperrors.Forbidden(w)
		return
	}
	sub := h.loadSubmission(w, r)
	if sub == nil {
		return
	}

	if err := h.publisher.PublishNow(r.Context(), sub); err != nil {
		httperrors.BadGateway(w, r, err, "calendar server rejected the event")
		return
	}

	// Re-read for the post-publish status; a non-approved submission is a
	// successful no-op and keeps its state.
	updated, err := h.store.Submissions.GetByID(r.Context(), sub.ID)
	if err != nil {
		httperrors.InternalError(w, r, err, "reload submission")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if !auth.ActorFromContext(r.Context()).Moderator {
		httperrors.Forbidden(w)
		return
	}

	filter := store.SubmissionFilter{Limit: defaultListLimit}
	if s := r.URL.Query().Get("status"); s != "" {
		status := submission.Status(s)
		if !status.Valid() {
			httperrors.BadRequest(w, r, "unknown status filter")
			return
		}
		filter.Status = status
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = min(n, maxListLimit)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	subs, err := h.store.Submissions.List(r.Context(), filter)
	if err != nil {
		httperrors.InternalError(w, r, err, "list submissions")
		return
	}

	out := make([]submissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, toResponse(&subs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Events(r.Context()))
}

func (h *Handler) QueueDepth(w http.ResponseWriter, r *http.Request) {
	if !auth.ActorFromContext(r.Context()).Moderator {
		httperrors.Forbidden(w)
		return
	}
	depth, err := h.store.Jobs.Count(r.Context())
	if err != nil {
		httperrors.InternalError(w, r, err, "queue depth")
		return
	}
	metrics.SetQueueDepth(depth)
	writeJSON(w, http.StatusOK, map[string]int{"depth": depth})
}

func (h *Handler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	if !auth.ActorFromContext(r.Context()).Moderator {
		httperrors.Forbidden(w)
		return
	}
	processed, err := h.worker.ProcessBatch(r.Context(), h.worker.BatchSize())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"processed": processed,
			"error":     "publish batch stopped on failure",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
}
