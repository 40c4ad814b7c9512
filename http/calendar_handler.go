package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/yourorg/consensus-api/gcal"
	"github.com/yourorg/consensus-api/internal/authstate"
)

// CalendarAPI is what the handlers need from the calendar client.
type CalendarAPI interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*gcal.TokenBundle, error)
	CreateEvent(ctx context.Context, accessToken, refreshToken string, d gcal.EventDetails) (*gcal.EventResult, error)
}

type CalendarDeps struct {
	Calendar CalendarAPI
	States   authstate.Store
}

type CreateEventRequest struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token,omitempty"`
	EventDetails *gcal.EventDetails `json:"event_details"`
}

func RegisterCalendar(r chi.Router, d CalendarDeps) {
	r.Get("/api/calendar/auth/start", func(w http.ResponseWriter, req *http.Request) {
		userID := req.URL.Query().Get("user_id")
		if userID == "" {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "user_id_required", "detail": "user_id is required"})
			return
		}

		state := uuid.NewString()
		if err := d.States.Put(req.Context(), state, userID); err != nil {
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "state_store_error", "detail": err.Error()})
			return
		}

		render.JSON(w, req, map[string]any{
			"auth_url": d.Calendar.AuthorizationURL(state),
			"state":    state,
		})
	})

	r.Get("/api/calendar/auth/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		code, state := q.Get("code"), q.Get("state")
		if code == "" || state == "" {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "missing_params", "detail": "code and state are required"})
			return
		}

		// The CSRF check comes first; an unknown or replayed state never
		// reaches the token exchange.
		userID, ok, err := d.States.Take(req.Context(), state)
		if err != nil {
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "state_store_error", "detail": err.Error()})
			return
		}
		if !ok {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_state", "detail": "unknown or already used state token"})
			return
		}

		tokens, err := d.Calendar.Exchange(req.Context(), code)
		if err != nil {
			renderCalendarError(w, req, err)
			return
		}

		render.JSON(w, req, map[string]any{
			"success": true,
			"user_id": userID,
			"tokens":  tokens,
		})
	})

	r.Post("/api/calendar/create-event", func(w http.ResponseWriter, req *http.Request) {
		var body CreateEventRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "invalid_json", "detail": err.Error()})
			return
		}
		if body.AccessToken == "" || body.EventDetails == nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "missing_fields", "detail": "access_token and event_details are required"})
			return
		}

		result, err := d.Calendar.CreateEvent(req.Context(), body.AccessToken, body.RefreshToken, *body.EventDetails)
		if err != nil {
			renderCalendarError(w, req, err)
			return
		}
		render.JSON(w, req, result)
	})
}

func renderCalendarError(w http.ResponseWriter, req *http.Request, err error) {
	var calErr *gcal.CalendarAPIError
	if errors.As(err, &calErr) {
		render.Status(req, http.StatusBadGateway)
		render.JSON(w, req, map[string]any{"error": "calendar_error", "detail": calErr.Message})
		return
	}
	render.Status(req, http.StatusInternalServerError)
	render.JSON(w, req, map[string]any{"error": "internal_error", "detail": err.Error()})
}
