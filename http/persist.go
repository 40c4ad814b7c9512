package httpapi

import (
	"context"
	"encoding/json"

	"github.com/yourorg/consensus-api/internal/events"
	"github.com/yourorg/consensus-api/yelp"
)

// publishSearch hands the provider payload to the archive pipeline. Best
// effort: a nil publisher or a full buffer never affects the response.
func publishSearch(ctx context.Context, pub events.Publisher, endpoint, query string, raw map[string]any, businesses []yelp.Business) {
	if pub == nil {
		return
	}
	var rawJSON []byte
	if raw != nil {
		rawJSON, _ = json.Marshal(raw)
	}
	pub.PublishSearchCompleted(ctx, events.SearchCompleted{
		Provider:   "yelp",
		Endpoint:   endpoint,
		Query:      query,
		Raw:        rawJSON,
		Businesses: businesses,
	})
}
