package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/tasks"
	"github.com/jgcallah/cadence/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	svc *taskservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *taskservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotATask), errors.Is(err, apperr.ErrLineOutOfRange):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func parseDate(field, s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", apperr.ErrInvalidInput, field)
	}
	return &d, nil
}

// Agenda handles GET /api/tasks.
//
//	@Summary		Aggregate tasks from recent periodic notes
//	@Tags			tasks
//	@Produce		json
//	@Param			days		query		int		false	"Days back (default from vault config)"
//	@Param			completed	query		bool	false	"Include completed tasks"
//	@Param			types		query		string	false	"Comma-separated note types"	Enums(daily, weekly, monthly, quarterly, yearly)
//	@Success		200			{object}	AgendaResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [get]
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var req taskservice.AgendaRequest
	if s := q.Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("days must be an integer"))
			return
		}
		req.DaysBack = &n
	}
	req.IncludeCompleted, _ = strconv.ParseBool(q.Get("completed"))
	if s := q.Get("types"); s != "" {
		for _, name := range strings.Split(s, ",") {
			nt, err := vault.ParseNoteType(name)
			if err != nil {
				writeError(w, "agenda", err)
				return
			}
			req.NoteTypes = append(req.NoteTypes, nt)
		}
	}

	agenda, err := h.svc.Agenda(r.Context(), req)
	if err != nil {
		writeError(w, "agenda", err)
		return
	}
	writeJSON(w, http.StatusOK, agenda)
}

// SearchTasks handles GET /api/tasks/search.
//
//	@Summary		Search every indexed task in the vault
//	@Tags			tasks
//	@Produce		json
//	@Param			q			query		string	false	"Text query"
//	@Param			tag			query		string	false	"Tag filter"
//	@Param			priority	query		string	false	"Priority filter"	Enums(high, medium, low, none)
//	@Param			completed	query		bool	false	"Include completed tasks"
//	@Param			due_before	query		string	false	"Only tasks due before this date"
//	@Param			limit		query		int		false	"Max results"
//	@Success		200			{object}	SearchResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/search [get]
func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := index.TaskQuery{
		Text: q.Get("q"),
		Tag:  q.Get("tag"),
	}
	query.IncludeCompleted, _ = strconv.ParseBool(q.Get("completed"))
	query.Limit, _ = strconv.Atoi(q.Get("limit"))
	if p := q.Get("priority"); p != "" {
		if strings.EqualFold(p, string(tasks.PriorityNone)) {
			query.Priority = tasks.PriorityNone
		} else if parsed, ok := tasks.ParsePriority(p); ok {
			query.Priority = parsed
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody("priority must be high, medium, low or none"))
			return
		}
	}
	due, err := parseDate("due_before", q.Get("due_before"))
	if err != nil {
		writeError(w, "search", err)
		return
	}
	query.DueBefore = due

	rows, err := h.svc.Search(r.Context(), query)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Tasks: rows})
}

// AddTask handles POST /api/tasks.
//
//	@Summary		Add a task to a note
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddTaskRequest	true	"Task to add"
//	@Success		201		{object}	TaskResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks [post]
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	var body AddTaskRequest
	if !decodeBody(w, r, &body) {
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, "add task", err)
		return
	}
	res, err := h.svc.AddTask(r.Context(), req)
	if err != nil {
		writeError(w, "add task", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (b AddTaskRequest) toService() (taskservice.AddRequest, error) {
	req := taskservice.AddRequest{
		Path:    b.Path,
		Section: b.Section,
		Text:    b.Text,
	}
	if b.NoteType != "" {
		nt, err := vault.ParseNoteType(b.NoteType)
		if err != nil {
			return req, err
		}
		req.NoteType = nt
	}
	var err error
	if req.Date, err = parseDate("date", b.Date); err != nil {
		return req, err
	}
	m := &req.Metadata
	if m.Due, err = parseDate("due", b.Due); err != nil {
		return req, err
	}
	if m.Scheduled, err = parseDate("scheduled", b.Scheduled); err != nil {
		return req, err
	}
	if m.Created, err = parseDate("created", b.Created); err != nil {
		return req, err
	}
	m.Priority = tasks.Priority(b.Priority)
	m.Age = b.Age
	m.Tags = b.Tags
	return req, nil
}

// ToggleTask handles POST /api/tasks/toggle.
//
//	@Summary		Toggle a task's completion state
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TaskLocator	true	"Task location"
//	@Success		200		{object}	TaskResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/toggle [post]
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	var body TaskLocator
	if !decodeBody(w, r, &body) {
		return
	}
	res, err := h.svc.Toggle(r.Context(), body.Path, body.Line)
	if err != nil {
		writeError(w, "toggle task", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UpdateMetadata handles PATCH /api/tasks/metadata.
//
//	@Summary		Set or remove task metadata fields
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateMetadataRequest	true	"Fields to change; null removes a field"
//	@Success		200		{object}	TaskResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/metadata [patch]
func (h *Handler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var body UpdateMetadataRequest
	if !decodeBody(w, r, &body) {
		return
	}
	u, err := tasks.ParseMetadataUpdate(body.Fields)
	if err != nil {
		writeError(w, "update metadata", err)
		return
	}
	res, err := h.svc.UpdateMetadata(r.Context(), body.Path, body.Line, u)
	if err != nil {
		writeError(w, "update metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rollover handles POST /api/tasks/rollover.
//
//	@Summary		Roll open tasks forward into the target daily note
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RolloverRequest	false	"Rollover options"
//	@Success		200		{object}	RolloverResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tasks/rollover [post]
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	var body RolloverRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}
	target, err := parseDate("target_date", body.TargetDate)
	if err != nil {
		writeError(w, "rollover", err)
		return
	}
	res, err := h.svc.Rollover(r.Context(), taskservice.RolloverRequest{
		SourceDaysBack: body.SourceDaysBack,
		TargetDate:     target,
	})
	if err != nil {
		writeError(w, "rollover", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReloadConfig handles POST /api/config/reload.
//
//	@Summary		Drop the cached vault configuration
//	@Tags			config
//	@Success		204	"Reloaded"
//	@Failure		500	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/config/reload [post]
func (h *Handler) ReloadConfig(w http.ResponseWriter, _ *http.Request) {
	h.svc.ReloadConfig()
	if _, err := h.svc.Config(); err != nil {
		writeError(w, "reload config", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
