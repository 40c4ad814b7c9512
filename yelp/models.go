package yelp

// Coordinates is a geographic point copied verbatim from a provider record.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Business is the canonical record shape served to the frontend. Optional
// fields render as null when the provider did not supply them, matching what
// the poll UI expects.
type Business struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Rating      *float64       `json:"rating"`
	Reviews     int            `json:"reviews"`
	Price       *string        `json:"price"`
	Distance    *string        `json:"distance"` // "<miles, 1dp> mi"
	Image       *string        `json:"image"`
	Tags        []string       `json:"tags"`
	Votes       int            `json:"votes"` // owned by the consensus layer, always 0 here
	Location    map[string]any `json:"location"`
	Coordinates *Coordinates   `json:"coordinates"`
	Phone       *string        `json:"phone"`
	URL         *string        `json:"url"`
	Categories  []any          `json:"categories"` // raw provider categories, unprocessed
}

// ChatResult is the normalized envelope of one AI chat turn.
type ChatResult struct {
	ResponseText string         `json:"response_text"`
	ChatID       *string        `json:"chat_id"`
	Businesses   []Business     `json:"businesses"`
	Types        []string       `json:"types,omitempty"`
	RawResponse  map[string]any `json:"raw_response,omitempty"`
}

// ChatParams carries one chat request. ChatID continues a prior conversation
// when set.
type ChatParams struct {
	Query     string
	Latitude  *float64
	Longitude *float64
	Locale    string
	ChatID    string
}
