// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/domain"
)

const genericErrorMessage = "There was an error"

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  log.FieldLogger
}

// NewHandler builds a Handler. A nil logger falls back to the standard
// logrus logger.
func NewHandler(service *domain.Service, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes wires the API endpoints onto r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Post("/{id}/exercises", h.logExercise)
		r.Get("/{id}/logs", h.getLog)
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, "", err)
		return
	}

	resp := make([]UserView, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserView(u))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, genericErrorMessage, err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), form.Get("username"))
	if err != nil {
		h.fail(w, r, "", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserView(user))
}

func (h *Handler) logExercise(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	form, err := readForm(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, genericErrorMessage, err.Error())
		return
	}

	exercise, err := h.service.LogExercise(r.Context(), domain.LogExerciseInput{
		UserID:      userID,
		Description: form.Get("description"),
		Duration:    form.Get("duration"),
		Date:        form.Get("date"),
	})
	if err != nil {
		h.fail(w, r, userID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ExerciseView{
		ID:          exercise.UserID,
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.Display(),
	})
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	q := r.URL.Query()

	logs, err := h.service.GetLog(r.Context(), domain.LogQuery{
		UserID: userID,
		From:   q.Get("from"),
		To:     q.Get("to"),
		Limit:  q.Get("limit"),
	})
	if err != nil {
		h.fail(w, r, userID, err)
		return
	}

	resp := LogView{
		ID:       logs.User.ID,
		Username: logs.User.Username,
		Count:    logs.Count(),
		Log:      make([]LogEntryView, 0, len(logs.Entries)),
	}
	for _, ex := range logs.Entries {
		resp.Log = append(resp.Log, LogEntryView{
			Description: ex.Description,
			Duration:    ex.Duration,
			Date:        ex.Date.Display(),
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// fail maps service errors onto the error envelope. Unknown users are
// reported with a 200 status; everything else is a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, userID string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		h.writeJSON(w, http.StatusOK, ErrorResponse{Error: fmt.Sprintf("Cannot find a user with id %s", userID)})
		return
	}
	h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	h.writeError(w, http.StatusInternalServerError, genericErrorMessage, err.Error())
}

// UserView is the public shape of a user.
type UserView struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// ExerciseView is returned after logging an exercise. ID is the owning
// user's id.
type ExerciseView struct {
	ID          string     `json:"_id"`
	Username    string     `json:"username"`
	Description string     `json:"description"`
	Duration    domain.Int `json:"duration"`
	Date        string     `json:"date"`
}

// LogEntryView is one exercise in a log response.
type LogEntryView struct {
	Description string     `json:"description"`
	Duration    domain.Int `json:"duration"`
	Date        string     `json:"date"`
}

// LogView is the body of a log response. Count is the number of entries
// in Log.
type LogView struct {
	ID       string         `json:"_id"`
	Username string         `json:"username"`
	Count    int            `json:"count"`
	Log      []LogEntryView `json:"log"`
}

// ErrorResponse is the single error envelope used by every endpoint.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorBody string `json:"errorBody,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, detail string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, ErrorBody: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("encode response")
	}
}

func toUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Username: u.Username}
}
