package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/consensus-api/gcal"
	"github.com/yourorg/consensus-api/gemini"
	"github.com/yourorg/consensus-api/internal/authstate"
	"github.com/yourorg/consensus-api/yelp"
)

type stubYelp struct{}

func (stubYelp) Chat(context.Context, yelp.ChatParams) (*yelp.ChatResult, error) {
	return &yelp.ChatResult{Businesses: []yelp.Business{}}, nil
}

func (stubYelp) Search(context.Context, yelp.ChatParams) ([]yelp.Business, error) {
	return []yelp.Business{}, nil
}

type stubGemini struct{}

func (stubGemini) ProcessAudio(context.Context, []byte, string, string) (string, error) {
	return "{}", nil
}

func (stubGemini) ProcessImage(context.Context, []byte, string, string) (string, error) {
	return "{}", nil
}

func (stubGemini) TranscribeAudio(context.Context, []byte, string) (string, error) {
	return "", nil
}

func (stubGemini) MultimodalSearch(context.Context, gemini.MultimodalParams) (string, error) {
	return "{}", nil
}

type stubCalendar struct{ exchangeCalls int }

func (s *stubCalendar) AuthorizationURL(state string) string { return "https://example.com/" + state }

func (s *stubCalendar) Exchange(context.Context, string) (*gcal.TokenBundle, error) {
	s.exchangeCalls++
	return &gcal.TokenBundle{AccessToken: "at"}, nil
}

func (s *stubCalendar) CreateEvent(context.Context, string, string, gcal.EventDetails) (*gcal.EventResult, error) {
	return &gcal.EventResult{Success: true}, nil
}

func TestRouterErrorStatusCodes(t *testing.T) {
	cal := &stubCalendar{}
	srv := httptest.NewServer(BuildRouter(routerDeps{
		Yelp:        stubYelp{},
		Gemini:      stubGemini{},
		Calendar:    cal,
		States:      authstate.NewMemory(),
		CORSOrigins: []string{"*"},
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Failure payloads must ride an error status, not a 200 with an error
	// body.
	resp, err = http.Get(srv.URL + "/api/calendar/auth/callback?code=abc&state=never-issued")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_state", body["error"])
	assert.Zero(t, cal.exchangeCalls)

	resp, err = http.Post(srv.URL+"/api/yelp/chat", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
