package gcal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var calendarScopes = []string{"https://www.googleapis.com/auth/calendar.events"}

const defaultAPIBase = "https://www.googleapis.com"

// CalendarAPIError is an OAuth or event-insert rejection from Google,
// surfaced with the provider's message.
type CalendarAPIError struct {
	Status  int
	Message string
}

func (e *CalendarAPIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("calendar api error (status %d): %s", e.Status, e.Message)
	}
	return "calendar api error: " + e.Message
}

// TokenBundle is what the callback hands back to the frontend so it can hold
// its own credentials; the gateway stores nothing.
type TokenBundle struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry,omitempty"`
}

type EventDetails struct {
	Title       string   `json:"title"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Timezone    string   `json:"timezone,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

type EventResult struct {
	Success   bool   `json:"success"`
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link,omitempty"`
	Message   string `json:"message"`
}

type Client struct {
	cfg     *oauth2.Config
	apiBase string
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       calendarScopes,
			Endpoint:     google.Endpoint,
		},
		apiBase: defaultAPIBase,
	}
}

// AuthorizationURL builds the consent URL for the given anti-forgery state
// token. Offline access so a refresh token comes back.
func (c *Client) AuthorizationURL(state string) string {
	return c.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for the token bundle.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenBundle, error) {
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &CalendarAPIError{Message: fmt.Sprintf("token exchange failed: %v", err)}
	}
	bundle := &TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     c.cfg.Endpoint.TokenURL,
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Scopes:       calendarScopes,
	}
	if !tok.Expiry.IsZero() {
		bundle.Expiry = tok.Expiry.Format(time.RFC3339)
	}
	return bundle, nil
}

// CreateEvent inserts an event on the user's primary calendar. The oauth2
// token source refreshes the access token when the bundle carries an expiry
// and a refresh token. Attendees get invites (sendUpdates=all).
func (c *Client) CreateEvent(ctx context.Context, accessToken, refreshToken string, d EventDetails) (*EventResult, error) {
	tz := d.Timezone
	if tz == "" {
		tz = "America/New_York"
	}

	event := map[string]any{
		"summary":     d.Title,
		"location":    d.Location,
		"description": d.Description,
		"start":       map[string]any{"dateTime": d.StartTime, "timeZone": tz},
		"end":         map[string]any{"dateTime": d.EndTime, "timeZone": tz},
		"reminders": map[string]any{
			"useDefault": false,
			"overrides": []map[string]any{
				{"method": "popup", "minutes": 60},
				{"method": "popup", "minutes": 15},
			},
		},
	}
	sendUpdates := "none"
	if len(d.Attendees) > 0 {
		attendees := make([]map[string]string, 0, len(d.Attendees))
		for _, email := range d.Attendees {
			attendees = append(attendees, map[string]string{"email": email})
		}
		event["attendees"] = attendees
		sendUpdates = "all"
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	ts := c.cfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = 30 * time.Second

	url := fmt.Sprintf("%s/calendar/v3/calendars/primary/events?sendUpdates=%s", c.apiBase, sendUpdates)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &CalendarAPIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &CalendarAPIError{Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CalendarAPIError{Status: resp.StatusCode, Message: providerMessage(raw)}
	}

	var created struct {
		ID       string `json:"id"`
		HTMLLink string `json:"htmlLink"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("decode created event: %w", err)
	}

	return &EventResult{
		Success:   true,
		EventID:   created.ID,
		EventLink: created.HTMLLink,
		Message:   "Event added to calendar successfully",
	}, nil
}

func providerMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return string(raw)
}
