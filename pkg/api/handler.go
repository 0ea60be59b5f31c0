package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"formsync/pkg/config"
	"formsync/pkg/formsync"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Messages shown to submitters. Details stay in the logs.
const (
	msgUnavailable  = "submission service unavailable"
	msgWriteFailed  = "failed to save submission, try again later"
	msgUnknownForm  = "unknown form"
	msgBadRequest   = "malformed submission"
	maxRequestBytes = 1 << 20
)

var ErrUnknownForm = errors.New("unknown form")

// Registry hands out one session per configured form, creating and
// authorizing it on first use.
type Registry struct {
	connect formsync.Connector

	mu       sync.Mutex
	forms    map[string]config.Form
	sessions map[string]*formsync.Session
}

func NewRegistry(cfg *config.Config, connect formsync.Connector) *Registry {
	r := &Registry{
		connect:  connect,
		forms:    make(map[string]config.Form, len(cfg.Forms)),
		sessions: make(map[string]*formsync.Session, len(cfg.Forms)),
	}
	for _, f := range cfg.Forms {
		r.forms[f.ID] = f
	}
	return r
}

// Session returns the ready session for formID. A session that failed to
// authorize earlier is authorized again from scratch.
func (r *Registry) Session(ctx context.Context, formID string) (*formsync.Session, error) {
	r.mu.Lock()
	form, ok := r.forms[formID]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}
	s, ok := r.sessions[formID]
	if !ok {
		s = formsync.NewSession(form.SheetConfig(), r.connect)
		r.sessions[formID] = s
	}
	r.mu.Unlock()

	if err := s.Authorize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// States reports the session state of every configured form.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make(map[string]string, len(r.forms))
	for id := range r.forms {
		state := formsync.StateUnauthorized
		if s, ok := r.sessions[id]; ok {
			state = s.State()
		}
		states[id] = state.String()
	}
	return states
}

// FormIDs lists configured forms in order.
func (r *Registry) FormIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.forms))
	for id := range r.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type writeRequest struct {
	FormID   string            `json:"form_id"`
	FormData map[string]string `json:"form_data"`
}

type responseError struct {
	Message string `json:"message"`
}

type response struct {
	Success  bool                   `json:"success"`
	Response map[string]interface{} `json:"response"`
	Errors   []responseError        `json:"errors"`
}

type handler struct {
	registry *Registry
}

func (h *handler) postWrite(w http.ResponseWriter, r *http.Request) {
	logger := log.WithField("request_id", middleware.GetReqID(r.Context()))

	var req writeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil || req.FormID == "" {
		logger.WithError(err).Debug("Rejected malformed submission")
		sendJSON(w, http.StatusBadRequest, failure(msgBadRequest))
		return
	}
	logger = logger.WithField("form", req.FormID)

	session, err := h.registry.Session(r.Context(), req.FormID)
	if err != nil {
		if errors.Is(err, ErrUnknownForm) {
			sendJSON(w, http.StatusNotFound, failure(msgUnknownForm))
			return
		}
		logger.WithError(err).Error("Form session unavailable")
		sendJSON(w, http.StatusServiceUnavailable, failure(msgUnavailable))
		return
	}

	res := session.Write(r.Context(), formsync.Submission(req.FormData))
	if !res.Success {
		logger.WithError(res.Err).Error("Failed to save submission")
		sendJSON(w, http.StatusBadGateway, failure(msgWriteFailed))
		return
	}
	logger.WithField("matched", res.Row.Matched).Info("Saved submission")

	body := map[string]interface{}{"matched": res.Row.Matched}
	if res.SubmissionID != "" {
		body["submission_id"] = res.SubmissionID
	}
	sendJSON(w, http.StatusOK, response{Success: true, Response: body, Errors: []responseError{}})
}

func (h *handler) getHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{"forms": h.registry.States()})
}

func failure(msg string) response {
	return response{
		Response: map[string]interface{}{},
		Errors:   []responseError{{Message: msg}},
	}
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("Failed to encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"success":false}`)
	}
	sendResponse(w, status, body)
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
